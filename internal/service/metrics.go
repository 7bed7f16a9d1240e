package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	auditQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vault_audit_queue_depth",
		Help: "Audit events waiting for the next flush.",
	})
	auditFlushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vault_audit_flush_total",
		Help: "Audit batch writes by result.",
	}, []string{"result"})
	auditEventsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_audit_events_written_total",
		Help: "Audit events persisted.",
	})

	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vault_uploads_total",
		Help: "Files processed by the upload orchestrator by terminal status.",
	}, []string{"status"})

	shareLinksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_share_links_created_total",
		Help: "Share links issued.",
	})
	shareLinksRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_share_links_revoked_total",
		Help: "Share link revocations.",
	})
	shareRedemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vault_share_redemptions_total",
		Help: "Share link redemptions by result.",
	}, []string{"result"})

	fileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_file_cache_hits_total",
		Help: "Vault file metadata cache hits.",
	})
	fileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_file_cache_misses_total",
		Help: "Vault file metadata cache misses.",
	})
)
