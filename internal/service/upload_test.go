package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/templui/hrvault/internal/model"
	"github.com/templui/hrvault/internal/validation"
)

var testConstraints = validation.NewFileConstraints([]string{"application/pdf", "text/plain"}, 1024)

func newTestOrchestrator(gw *faultGateway) *UploadOrchestrator {
	return NewUploadOrchestrator(gw, UploadConfig{
		Constraints:      testConstraints,
		ProgressInterval: time.Millisecond,
	})
}

func pdf(name string, size int64) UploadInput {
	return UploadInput{Name: name, MediaType: "application/pdf", Size: size, Content: make([]byte, size)}
}

func TestSelectValidatesEachFile(t *testing.T) {
	o := newTestOrchestrator(&faultGateway{})

	files := o.Select(
		pdf("exact.pdf", 1024),
		pdf("big.pdf", 1025),
		UploadInput{Name: "run.exe", MediaType: "application/x-msdownload", Size: 2048},
	)
	if len(files) != 3 {
		t.Fatalf("files = %d", len(files))
	}
	if files[0].Status != model.UploadStatusPending {
		t.Errorf("exact max: status = %s, want pending", files[0].Status)
	}
	if files[1].Status != model.UploadStatusError || !strings.Contains(files[1].Error, "file too large") {
		t.Errorf("max+1: status = %s error = %q", files[1].Status, files[1].Error)
	}
	if strings.Contains(files[2].Error, "\n") {
		t.Errorf("error should be on one line: %q", files[2].Error)
	}
	if !strings.Contains(files[2].Error, "file too large") || !strings.Contains(files[2].Error, "file type not allowed") {
		t.Errorf("both violations expected: %q", files[2].Error)
	}
}

func TestSelectReplacesAddAppends(t *testing.T) {
	o := newTestOrchestrator(&faultGateway{})

	o.Select(pdf("a.pdf", 1), pdf("b.pdf", 1))
	o.Select(pdf("c.pdf", 1))
	files := o.Add(pdf("d.pdf", 1))
	if len(files) != 2 || files[0].Name != "c.pdf" || files[1].Name != "d.pdf" {
		t.Fatalf("files = %+v", files)
	}

	if !o.Remove(files[0].ID) {
		t.Fatal("Remove returned false")
	}
	if o.Remove("missing") {
		t.Error("Remove of unknown id returned true")
	}
	if got := o.Files(); len(got) != 1 || got[0].Name != "d.pdf" {
		t.Errorf("after remove = %+v", got)
	}
}

func TestRejectedFileIsNeverSent(t *testing.T) {
	gw := &faultGateway{
		user: &model.Identity{ID: "u1"},
		invoke: func(ctx context.Context, procedure string, payload, result any) error {
			return nil
		},
	}
	o := newTestOrchestrator(gw)
	o.Select(pdf("big.pdf", 1025))

	summary, err := o.UploadPending(context.Background(), UploadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if summary != (UploadSummary{}) {
		t.Errorf("summary = %+v", summary)
	}
	if len(gw.invocations) != 0 {
		t.Errorf("invocations = %v", gw.invocations)
	}
}

func TestUploadPendingContinuesPastFailure(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	var order []string
	gw := &faultGateway{
		user: &model.Identity{ID: "u1"},
		invoke: func(ctx context.Context, procedure string, payload, result any) error {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			if n > maxInFlight.Load() {
				maxInFlight.Store(n)
			}
			time.Sleep(3 * time.Millisecond)

			req := payload.(VaultUploadRequest)
			order = append(order, req.FileName)
			if req.ResourceType != model.ResourceTypeCertificate {
				return fmt.Errorf("resource type = %s", req.ResourceType)
			}
			if req.FileName == "b.pdf" {
				return fmt.Errorf("%w: disk full", ErrPersistenceFailed)
			}
			*result.(*model.UploadResult) = model.UploadResult{FileID: "id-" + req.FileName, URL: "https://files.test/" + req.FileName}
			return nil
		},
	}
	o := newTestOrchestrator(gw)
	o.Select(pdf("a.pdf", 10), pdf("b.pdf", 10), pdf("c.pdf", 10))

	summary, err := o.UploadPending(context.Background(), UploadOptions{ResourceType: model.ResourceTypeCertificate})
	if err != nil {
		t.Fatalf("UploadPending: %v", err)
	}
	if summary != (UploadSummary{Succeeded: 2, Failed: 1}) {
		t.Errorf("summary = %+v", summary)
	}
	if strings.Join(order, ",") != "a.pdf,b.pdf,c.pdf" {
		t.Errorf("order = %v", order)
	}
	if maxInFlight.Load() != 1 {
		t.Errorf("max concurrent uploads = %d, want 1", maxInFlight.Load())
	}

	files := o.Files()
	for _, f := range files {
		if f.Progress != 100 {
			t.Errorf("%s progress = %d", f.Name, f.Progress)
		}
	}
	if files[0].Status != model.UploadStatusSuccess || files[0].Result == nil || files[0].Result.FileID != "id-a.pdf" {
		t.Errorf("a.pdf = %+v", files[0])
	}
	if files[0].Content != nil {
		t.Error("content kept after success")
	}
	if files[1].Status != model.UploadStatusError || files[1].Error == "" {
		t.Errorf("b.pdf = %+v", files[1])
	}
	if files[2].Status != model.UploadStatusSuccess {
		t.Errorf("c.pdf = %+v", files[2])
	}

	o.ClearCompleted()
	if left := o.Files(); len(left) != 1 || left[0].Name != "b.pdf" {
		t.Errorf("after ClearCompleted = %+v", left)
	}
}

func TestUploadProgressCappedWhileUploading(t *testing.T) {
	var o *UploadOrchestrator
	last := map[string]int{}
	var samples int
	gw := &faultGateway{
		user: &model.Identity{ID: "u1"},
		invoke: func(ctx context.Context, procedure string, payload, result any) error {
			for range 30 {
				for _, f := range o.Files() {
					if f.Status != model.UploadStatusUploading {
						t.Errorf("%s status = %s mid-batch", f.Name, f.Status)
					}
					if f.Progress < 0 || f.Progress > 90 {
						t.Errorf("%s progress = %d, want 0..90", f.Name, f.Progress)
					}
					if f.Progress < last[f.ID] {
						t.Errorf("%s progress went from %d to %d", f.Name, last[f.ID], f.Progress)
					}
					last[f.ID] = f.Progress
					samples++
				}
				time.Sleep(time.Millisecond)
			}
			*result.(*model.UploadResult) = model.UploadResult{FileID: "id"}
			return nil
		},
	}
	o = newTestOrchestrator(gw)
	o.Select(pdf("a.pdf", 10), pdf("b.pdf", 10))

	if _, err := o.UploadPending(context.Background(), UploadOptions{}); err != nil {
		t.Fatal(err)
	}
	if samples == 0 {
		t.Fatal("no progress sampled")
	}
	for _, f := range o.Files() {
		if f.Progress != 100 {
			t.Errorf("%s final progress = %d, want 100", f.Name, f.Progress)
		}
	}
}

func TestUploadPendingWithoutIdentity(t *testing.T) {
	gw := &faultGateway{}
	o := newTestOrchestrator(gw)
	o.Select(pdf("a.pdf", 10), pdf("b.pdf", 10))

	summary, err := o.UploadPending(context.Background(), UploadOptions{})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if summary.Failed != 2 || summary.Succeeded != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(gw.invocations) != 0 {
		t.Errorf("invocations = %v", gw.invocations)
	}
	for _, f := range o.Files() {
		if f.Status != model.UploadStatusError {
			t.Errorf("%s status = %s", f.Name, f.Status)
		}
	}
}

func TestUploadPendingStopsWhenSessionEnds(t *testing.T) {
	gw := &faultGateway{
		user: &model.Identity{ID: "u1"},
		invoke: func(ctx context.Context, procedure string, payload, result any) error {
			if payload.(VaultUploadRequest).FileName == "b.pdf" {
				return ErrUnauthenticated
			}
			*result.(*model.UploadResult) = model.UploadResult{FileID: "ok"}
			return nil
		},
	}
	o := newTestOrchestrator(gw)
	o.Select(pdf("a.pdf", 10), pdf("b.pdf", 10), pdf("c.pdf", 10))

	summary, err := o.UploadPending(context.Background(), UploadOptions{})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v", err)
	}
	if summary != (UploadSummary{Succeeded: 1, Failed: 2}) {
		t.Errorf("summary = %+v", summary)
	}
	if len(gw.invocations) != 2 {
		t.Errorf("invocations = %v, want 2", gw.invocations)
	}
	files := o.Files()
	if files[2].Status != model.UploadStatusError {
		t.Errorf("c.pdf status = %s", files[2].Status)
	}
}

func TestUploadPendingNothingToDo(t *testing.T) {
	o := newTestOrchestrator(&faultGateway{})

	summary, err := o.UploadPending(context.Background(), UploadOptions{})
	if err != nil || summary != (UploadSummary{}) {
		t.Errorf("summary = %+v err = %v", summary, err)
	}
}
