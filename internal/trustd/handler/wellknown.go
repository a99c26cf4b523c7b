package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quantumpoly/trustcore/internal/federation"
	"github.com/quantumpoly/trustcore/internal/ledger"
	"go.uber.org/zap"
)

// InstanceInfo identifies this instance in the trust record it publishes.
type InstanceInfo struct {
	PartnerID       string
	DisplayName     string
	ComplianceStage string
}

// recordCache holds the last published trust record for a short TTL so peer
// polling does not re-verify the full ledger on every request.
type recordCache struct {
	mu        sync.RWMutex
	record    *federation.PeerRecord
	expiresAt time.Time
	ttl       time.Duration
}

func (c *recordCache) get() (*federation.PeerRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.record == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.record, true
}

func (c *recordCache) set(record *federation.PeerRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record = record
	c.expiresAt = time.Now().Add(c.ttl)
}

// WellKnownHandler serves GET /.well-known/trust-record.json — the trust
// record federation peers fetch to verify this instance. The record is
// ephemeral: recomputed from the current ledger state, cached briefly, never
// persisted.
type WellKnownHandler struct {
	local  *ledger.Verifier
	info   InstanceInfo
	cache  *recordCache
	logger *zap.Logger
}

// NewWellKnownHandler creates a WellKnownHandler. cacheTTL bounds how stale
// the published record may be (default: 5 minutes).
func NewWellKnownHandler(local *ledger.Verifier, info InstanceInfo, cacheTTL time.Duration, logger *zap.Logger) *WellKnownHandler {
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}
	return &WellKnownHandler{
		local:  local,
		info:   info,
		cache:  &recordCache{ttl: cacheTTL},
		logger: logger,
	}
}

// ServeTrustRecord handles GET /.well-known/trust-record.json.
func (h *WellKnownHandler) ServeTrustRecord(c *gin.Context) {
	if record, ok := h.cache.get(); ok {
		c.Header("Cache-Control", "public, max-age=300")
		c.JSON(http.StatusOK, record)
		return
	}

	report, err := h.local.VerifyAll(c.Request.Context())
	if err != nil {
		h.logger.Error("trust record unavailable", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute trust record"})
		return
	}

	timestamp := report.LastUpdate
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	record := &federation.PeerRecord{
		PartnerID:       h.info.PartnerID,
		DisplayName:     h.info.DisplayName,
		MerkleRoot:      report.MerkleRoot,
		Timestamp:       timestamp,
		ComplianceStage: h.info.ComplianceStage,
		HashAlgorithm:   "sha256",
	}
	h.cache.set(record)

	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, record)
}
