package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/templui/hrvault/internal/gateway"
	"github.com/templui/hrvault/internal/logger"
	"github.com/templui/hrvault/internal/model"
)

const (
	DefaultAuditBatchSize     = 10
	DefaultAuditFlushInterval = 30 * time.Second
)

type AuditConfig struct {
	Enabled       bool
	BatchSize     int
	FlushInterval time.Duration
}

// AuditLogger buffers audit events in memory and writes them to the gateway
// in batches, either when the queue reaches BatchSize or on every tick of the
// flush timer. Failed batches go back to the front of the queue.
type AuditLogger struct {
	gw        gateway.Gateway
	batchSize int
	interval  time.Duration
	now       func() time.Time
	log       *slog.Logger

	mu      sync.Mutex
	queue   []model.AuditEvent
	enabled bool
	stop    chan struct{}
	done    chan struct{}
}

func NewAuditLogger(gw gateway.Gateway, cfg AuditConfig) *AuditLogger {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultAuditBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultAuditFlushInterval
	}
	return &AuditLogger{
		gw:        gw,
		batchSize: cfg.BatchSize,
		interval:  cfg.FlushInterval,
		now:       time.Now,
		log:       logger.Component("audit"),
		enabled:   cfg.Enabled,
	}
}

// Start runs the flush timer when logging is enabled.
func (a *AuditLogger) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled {
		a.startTimerLocked()
	}
}

// Close disables logging, stops the timer and flushes whatever is still
// queued. Events logged afterwards are dropped until Enable is called.
func (a *AuditLogger) Close(ctx context.Context) {
	a.Disable()
	a.Flush(ctx)
}

func (a *AuditLogger) Enable() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = true
	a.startTimerLocked()
}

// Disable stops accepting events. Events already queued stay queued.
func (a *AuditLogger) Disable() {
	a.mu.Lock()
	a.enabled = false
	stop, done := a.detachTimerLocked()
	a.mu.Unlock()
	waitTimer(stop, done)
}

func (a *AuditLogger) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Pending returns the number of queued events.
func (a *AuditLogger) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

func (a *AuditLogger) Log(ctx context.Context, event model.AuditEvent) {
	a.mu.Lock()
	if !a.enabled {
		a.mu.Unlock()
		return
	}

	if identity := a.gw.CurrentUser(ctx); identity != nil {
		event.UserID = identity.ID
	}
	event.Timestamp = a.now().UTC()

	a.queue = append(a.queue, event)
	full := len(a.queue) >= a.batchSize
	auditQueueDepth.Set(float64(len(a.queue)))
	a.mu.Unlock()

	if full {
		a.Flush(context.WithoutCancel(ctx))
	}
}

func (a *AuditLogger) LogView(ctx context.Context, rt model.ResourceType, id, name string) {
	a.Log(ctx, model.AuditEvent{Action: model.AuditActionView, ResourceType: rt, ResourceID: id, ResourceName: name})
}

func (a *AuditLogger) LogDownload(ctx context.Context, rt model.ResourceType, id, name string, details map[string]any) {
	a.Log(ctx, model.AuditEvent{Action: model.AuditActionDownload, ResourceType: rt, ResourceID: id, ResourceName: name, Details: details})
}

func (a *AuditLogger) LogUpload(ctx context.Context, rt model.ResourceType, id, name string, details map[string]any) {
	a.Log(ctx, model.AuditEvent{Action: model.AuditActionUpload, ResourceType: rt, ResourceID: id, ResourceName: name, Details: details})
}

func (a *AuditLogger) LogDelete(ctx context.Context, rt model.ResourceType, id, name string) {
	a.Log(ctx, model.AuditEvent{Action: model.AuditActionDelete, ResourceType: rt, ResourceID: id, ResourceName: name})
}

func (a *AuditLogger) LogShare(ctx context.Context, rt model.ResourceType, id, name string, details map[string]any) {
	a.Log(ctx, model.AuditEvent{Action: model.AuditActionShare, ResourceType: rt, ResourceID: id, ResourceName: name, Details: details})
}

func (a *AuditLogger) LogSearch(ctx context.Context, rt model.ResourceType, query string, filters map[string]any, resultsCount int) {
	a.Log(ctx, model.AuditEvent{
		Action:       model.AuditActionSearch,
		ResourceType: rt,
		Details: map[string]any{
			"query":        query,
			"filters":      filters,
			"resultsCount": resultsCount,
		},
	})
}

func (a *AuditLogger) LogAccessDenied(ctx context.Context, rt model.ResourceType, id string, reason string) {
	a.Log(ctx, model.AuditEvent{
		Action:       model.AuditActionAccessDenied,
		ResourceType: rt,
		ResourceID:   id,
		Details:      map[string]any{"reason": reason},
	})
}

// Flush writes the current queue as one batch. Failures are logged and the
// batch is put back in front of any events queued meanwhile; Flush never
// reports an error to the caller.
func (a *AuditLogger) Flush(ctx context.Context) {
	a.mu.Lock()
	if len(a.queue) == 0 {
		a.mu.Unlock()
		return
	}
	batch := a.queue
	a.queue = nil
	auditQueueDepth.Set(0)
	a.mu.Unlock()

	err := a.gw.InsertMany(ctx, TableAuditLogs, a.rows(batch))
	if err != nil {
		a.mu.Lock()
		a.queue = append(batch, a.queue...)
		auditQueueDepth.Set(float64(len(a.queue)))
		a.mu.Unlock()

		auditFlushTotal.WithLabelValues("error").Inc()
		a.log.Error("failed to flush audit events", "error", err, "events", len(batch))
		return
	}

	auditFlushTotal.WithLabelValues("ok").Inc()
	auditEventsWritten.Add(float64(len(batch)))
}

func (a *AuditLogger) rows(batch []model.AuditEvent) []gateway.Row {
	rows := make([]gateway.Row, 0, len(batch))
	for _, e := range batch {
		row := gateway.Row{
			"user_id":       nullable(e.UserID),
			"action":        string(e.Action),
			"resource_type": string(e.ResourceType),
			"resource_id":   nullable(e.ResourceID),
			"resource_name": nullable(e.ResourceName),
			"details":       nil,
			"created_at":    e.Timestamp,
		}
		if len(e.Details) > 0 {
			details, err := sonic.MarshalString(e.Details)
			if err != nil {
				a.log.Warn("dropping unencodable audit details", "error", err, "action", e.Action)
			} else {
				row["details"] = details
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (a *AuditLogger) startTimerLocked() {
	if a.stop != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	a.stop, a.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				a.Flush(context.Background())
			}
		}
	}()
}

func (a *AuditLogger) detachTimerLocked() (chan struct{}, chan struct{}) {
	stop, done := a.stop, a.done
	a.stop, a.done = nil, nil
	return stop, done
}

// waitTimer must be called without holding mu: a tick in progress flushes.
func waitTimer(stop, done chan struct{}) {
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
