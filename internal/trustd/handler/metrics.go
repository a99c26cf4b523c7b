package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quantumpoly/trustcore/internal/federation"
)

var (
	trustRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trustcore_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	trustRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trustcore_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	trustPeerVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trustcore_peer_verifications_total",
		Help: "Total federation peer verifications by resulting trust status.",
	}, []string{"status"})

	trustLedgerVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trustcore_ledger_verifications_total",
		Help: "Total full-ledger integrity checks by result.",
	}, []string{"result"})

	trustAttestationsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trustcore_attestations_issued_total",
		Help: "Total attestation proofs issued.",
	})

	trustAttestationsRevokedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trustcore_attestations_revoked_total",
		Help: "Total attestation proofs revoked.",
	})
)

// PrometheusMiddleware returns a gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		trustRequestsTotal.WithLabelValues(method, path, status).Inc()
		trustRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordPeerVerification records the outcome of one peer verification.
func RecordPeerVerification(status federation.TrustStatus) {
	trustPeerVerificationsTotal.WithLabelValues(string(status)).Inc()
}

// RecordLedgerVerification records a full-ledger integrity check result.
func RecordLedgerVerification(verified bool) {
	if verified {
		trustLedgerVerificationsTotal.WithLabelValues("verified").Inc()
	} else {
		trustLedgerVerificationsTotal.WithLabelValues("mismatch").Inc()
	}
}

// RecordAttestationIssued records one issued attestation proof.
func RecordAttestationIssued() {
	trustAttestationsIssuedTotal.Inc()
}

// RecordAttestationRevoked records one revoked attestation proof.
func RecordAttestationRevoked() {
	trustAttestationsRevokedTotal.Inc()
}
