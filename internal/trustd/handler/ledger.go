// Package handler contains the gin HTTP handlers for the trustd daemon.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quantumpoly/trustcore/internal/appendlog"
	"github.com/quantumpoly/trustcore/internal/ledger"
	"go.uber.org/zap"
)

// LedgerHandler exposes read-only HTTP endpoints for the governance ledger.
type LedgerHandler struct {
	log      appendlog.Log
	verifier *ledger.Verifier
	logger   *zap.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(log appendlog.Log, verifier *ledger.Verifier, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{log: log, verifier: verifier, logger: logger}
}

// Register mounts the ledger routes on the given router group.
func (h *LedgerHandler) Register(rg *gin.RouterGroup) {
	l := rg.Group("/ledger")
	{
		l.GET("", h.Overview)
		l.GET("/verify", h.Verify)
		l.GET("/entries/:idx", h.GetEntry)
	}
}

// Overview handles GET /ledger — entry count, current Merkle root and the
// timestamp of the newest record.
func (h *LedgerHandler) Overview(c *gin.Context) {
	report, ok := h.report(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries":     report.TotalEntries,
		"merkle_root": report.MerkleRoot,
		"last_update": report.LastUpdate,
		"verified":    report.Verified,
	})
}

// Verify handles GET /ledger/verify — the full integrity report. Integrity
// failures are data: the response is 200 with verified=false and the
// mismatch list, never an HTTP error.
func (h *LedgerHandler) Verify(c *gin.Context) {
	report, ok := h.report(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetEntry handles GET /ledger/entries/:idx — returns a single record by
// zero-based position in file order.
func (h *LedgerHandler) GetEntry(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idx must be a non-negative integer"})
		return
	}

	records, err := ledger.Parse(c.Request.Context(), h.log)
	if err != nil {
		h.ledgerError(c, err)
		return
	}
	if idx >= len(records) {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}
	c.JSON(http.StatusOK, records[idx])
}

func (h *LedgerHandler) report(c *gin.Context) (*ledger.Report, bool) {
	report, err := h.verifier.VerifyAll(c.Request.Context())
	if err != nil {
		h.ledgerError(c, err)
		return nil, false
	}
	RecordLedgerVerification(report.Verified)
	return report, true
}

// ledgerError distinguishes a corrupt source from an IO failure. A malformed
// line means the ledger cannot be interpreted at all, which is worth naming
// precisely in the response.
func (h *LedgerHandler) ledgerError(c *gin.Context, err error) {
	var perr *ledger.ParseError
	if errors.As(err, &perr) {
		h.logger.Error("ledger unparseable", zap.Int("line", perr.Line), zap.Error(perr.Err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "ledger contains a malformed entry",
			"line":  perr.Line,
		})
		return
	}
	h.logger.Error("ledger read failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read ledger"})
}
