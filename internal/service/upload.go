package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/templui/hrvault/internal/gateway"
	"github.com/templui/hrvault/internal/logger"
	"github.com/templui/hrvault/internal/model"
	"github.com/templui/hrvault/internal/validation"
)

const (
	DefaultProgressStep     = 10
	DefaultProgressInterval = 200 * time.Millisecond
	progressCap             = 90
)

type UploadConfig struct {
	Constraints      validation.FileConstraints
	ProgressStep     int
	ProgressInterval time.Duration
}

// UploadInput is a file picked by the user, before validation.
type UploadInput struct {
	Name      string
	MediaType string
	Size      int64
	Content   []byte
}

type UploadOptions struct {
	ResourceType model.ResourceType
}

type UploadSummary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// UploadOrchestrator tracks a working set of files through
// pending -> uploading -> success|error and sends them to the vault-upload
// procedure one at a time.
type UploadOrchestrator struct {
	gw  gateway.Gateway
	cfg UploadConfig
	log *slog.Logger

	mu    sync.Mutex
	files []*model.UploadFile
}

func NewUploadOrchestrator(gw gateway.Gateway, cfg UploadConfig) *UploadOrchestrator {
	if cfg.ProgressStep <= 0 {
		cfg.ProgressStep = DefaultProgressStep
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	return &UploadOrchestrator{
		gw:  gw,
		cfg: cfg,
		log: logger.Component("upload"),
	}
}

// Select replaces the working set with a fresh selection.
func (o *UploadOrchestrator) Select(inputs ...UploadInput) []model.UploadFile {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files = o.files[:0]
	o.appendLocked(inputs)
	return o.snapshotLocked()
}

// Add appends to the working set.
func (o *UploadOrchestrator) Add(inputs ...UploadInput) []model.UploadFile {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.appendLocked(inputs)
	return o.snapshotLocked()
}

func (o *UploadOrchestrator) Remove(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, f := range o.files {
		if f.ID == id {
			o.files = append(o.files[:i], o.files[i+1:]...)
			return true
		}
	}
	return false
}

// ClearCompleted drops successfully uploaded files. Failed ones stay so the
// user can see why.
func (o *UploadOrchestrator) ClearCompleted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	kept := o.files[:0]
	for _, f := range o.files {
		if f.Status != model.UploadStatusSuccess {
			kept = append(kept, f)
		}
	}
	o.files = kept
}

func (o *UploadOrchestrator) Files() []model.UploadFile {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *UploadOrchestrator) appendLocked(inputs []UploadInput) {
	for _, in := range inputs {
		f := &model.UploadFile{
			ID:        uuid.NewString(),
			Name:      in.Name,
			Size:      in.Size,
			MediaType: in.MediaType,
			Content:   in.Content,
			Status:    model.UploadStatusPending,
		}
		err := o.cfg.Constraints.Validate(in.Name, in.MediaType, in.Size)
		if err != nil {
			f.Status = model.UploadStatusError
			f.Error = strings.ReplaceAll(err.Error(), "\n", "; ")
			uploadsTotal.WithLabelValues("rejected").Inc()
		}
		o.files = append(o.files, f)
	}
}

func (o *UploadOrchestrator) snapshotLocked() []model.UploadFile {
	out := make([]model.UploadFile, len(o.files))
	for i, f := range o.files {
		out[i] = *f
	}
	return out
}

type uploadOutcome struct {
	result *model.UploadResult
	err    error
}

// UploadPending sends every pending file, strictly sequentially. A failing
// file does not stop the batch, an unauthenticated caller does: every file
// still uploading is then marked as failed and ErrUnauthenticated returned.
// Final statuses are applied together once the batch is over.
func (o *UploadOrchestrator) UploadPending(ctx context.Context, opts UploadOptions) (UploadSummary, error) {
	if opts.ResourceType == "" {
		opts.ResourceType = model.ResourceTypeDocument
	}

	o.mu.Lock()
	var batch []*model.UploadFile
	for _, f := range o.files {
		if f.Status == model.UploadStatusPending {
			f.Status = model.UploadStatusUploading
			f.Progress = 0
			batch = append(batch, f)
		}
	}
	o.mu.Unlock()

	if len(batch) == 0 {
		return UploadSummary{}, nil
	}

	outcomes := make(map[*model.UploadFile]uploadOutcome, len(batch))
	var abort error

	if o.gw.CurrentUser(ctx) == nil {
		abort = ErrUnauthenticated
	} else {
		stop := o.startProgress(batch)
		for _, f := range batch {
			var res model.UploadResult
			err := o.gw.Invoke(ctx, ProcVaultUpload, VaultUploadRequest{
				FileName:     f.Name,
				MediaType:    f.MediaType,
				Size:         f.Size,
				Content:      f.Content,
				ResourceType: opts.ResourceType,
			}, &res)
			if errors.Is(err, ErrUnauthenticated) {
				abort = err
				break
			}
			if err != nil {
				o.log.Warn("upload failed", "error", err, "file", f.Name)
				outcomes[f] = uploadOutcome{err: err}
				continue
			}
			outcomes[f] = uploadOutcome{result: &res}
		}
		stop()
	}

	var summary UploadSummary
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, f := range batch {
		out, done := outcomes[f]
		if !done {
			out.err = ErrUnauthenticated
		}
		f.Progress = 100
		if out.err != nil {
			f.Status = model.UploadStatusError
			f.Error = UserMessage(out.err)
			summary.Failed++
			uploadsTotal.WithLabelValues("error").Inc()
			continue
		}
		f.Status = model.UploadStatusSuccess
		f.Error = ""
		f.Result = out.result
		f.Content = nil
		summary.Succeeded++
		uploadsTotal.WithLabelValues("success").Inc()
	}

	if abort != nil {
		return summary, fmt.Errorf("upload aborted: %w", abort)
	}
	return summary, nil
}

// startProgress advances an approximate progress value for every file in
// the batch until the returned func is called. It never passes progressCap.
func (o *UploadOrchestrator) startProgress(batch []*model.UploadFile) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(o.cfg.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				o.mu.Lock()
				for _, f := range batch {
					if f.Status == model.UploadStatusUploading {
						f.Progress = min(f.Progress+o.cfg.ProgressStep, progressCap)
					}
				}
				o.mu.Unlock()
			}
		}
	}()
	return func() {
		close(stop)
		<-done
	}
}
