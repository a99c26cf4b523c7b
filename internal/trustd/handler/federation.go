package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quantumpoly/trustcore/internal/federation"
	"github.com/quantumpoly/trustcore/internal/ledger"
	"go.uber.org/zap"
)

// FederationHandler exposes the peer verification and network trust APIs.
type FederationHandler struct {
	registry *federation.Registry
	verifier *federation.Verifier
	local    *ledger.Verifier
	logger   *zap.Logger
}

// NewFederationHandler creates a new FederationHandler.
func NewFederationHandler(
	registry *federation.Registry,
	verifier *federation.Verifier,
	local *ledger.Verifier,
	logger *zap.Logger,
) *FederationHandler {
	return &FederationHandler{registry: registry, verifier: verifier, local: local, logger: logger}
}

// Register mounts the federation routes on the given router group.
func (h *FederationHandler) Register(rg *gin.RouterGroup) {
	f := rg.Group("/federation")
	{
		f.GET("/peers", h.Peers)
		f.GET("/trust", h.Trust)
	}
}

// Peers handles GET /federation/peers — runs a verification pass over every
// active partner and returns the per-peer results. Peer failures are folded
// into each result's trust status, so this endpoint never fails because a
// partner did.
func (h *FederationHandler) Peers(c *gin.Context) {
	results := h.verifier.VerifyAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"partners": results,
		"total":    len(results),
	})
}

// Trust handles GET /federation/trust — the network-wide trust summary plus
// the per-peer results it was aggregated from.
func (h *FederationHandler) Trust(c *gin.Context) {
	results := h.verifier.VerifyAll(c.Request.Context())
	summary := federation.Aggregate(results, h.localRoot(c))
	c.JSON(http.StatusOK, gin.H{
		"summary":  summary,
		"partners": results,
	})
}

// localRoot computes this instance's own ledger root for inclusion in the
// network aggregate. A local read failure degrades to an empty root rather
// than failing the federation view.
func (h *FederationHandler) localRoot(c *gin.Context) string {
	report, err := h.local.VerifyAll(c.Request.Context())
	if err != nil {
		h.logger.Warn("local ledger unavailable for network aggregate", zap.Error(err))
		return ""
	}
	return report.MerkleRoot
}
