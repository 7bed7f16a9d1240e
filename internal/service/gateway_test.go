package service

import (
	"context"
	"strings"
	"sync"

	"github.com/templui/hrvault/internal/gateway"
	"github.com/templui/hrvault/internal/model"
)

// faultGateway wraps a gateway and fails selected operations.
type faultGateway struct {
	gateway.Gateway

	mu            sync.Mutex
	user          *model.Identity
	invoke        func(ctx context.Context, procedure string, payload, result any) error
	invokeErr     error
	insertErr     error
	insertManyErr error
	updateErr     error
	queryErr      error

	inserts     int
	updates     int
	batches     [][]gateway.Row
	invocations []string
}

func (f *faultGateway) Query(ctx context.Context, dest any, table string, q gateway.Query) error {
	if f.queryErr != nil {
		return f.queryErr
	}
	return f.Gateway.Query(ctx, dest, table, q)
}

func (f *faultGateway) Insert(ctx context.Context, dest any, table string, row gateway.Row) error {
	f.mu.Lock()
	f.inserts++
	f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.Gateway.Insert(ctx, dest, table, row)
}

func (f *faultGateway) InsertMany(ctx context.Context, table string, rows []gateway.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertManyErr != nil {
		return f.insertManyErr
	}
	f.batches = append(f.batches, rows)
	if f.Gateway == nil {
		return nil
	}
	return f.Gateway.InsertMany(ctx, table, rows)
}

func (f *faultGateway) Update(ctx context.Context, table string, filters []gateway.Filter, patch gateway.Row) error {
	f.mu.Lock()
	f.updates++
	f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.Gateway.Update(ctx, table, filters, patch)
}

func (f *faultGateway) Invoke(ctx context.Context, procedure string, payload, result any) error {
	f.mu.Lock()
	f.invocations = append(f.invocations, procedure)
	f.mu.Unlock()
	if f.invokeErr != nil {
		return f.invokeErr
	}
	if f.invoke != nil {
		return f.invoke(ctx, procedure, payload, result)
	}
	return f.Gateway.Invoke(ctx, procedure, payload, result)
}

func (f *faultGateway) CurrentUser(ctx context.Context) *model.Identity {
	if f.user != nil {
		return f.user
	}
	if f.Gateway == nil {
		return nil
	}
	return f.Gateway.CurrentUser(ctx)
}

func (f *faultGateway) setInsertManyErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertManyErr = err
}

func (f *faultGateway) recordedBatches() [][]gateway.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]gateway.Row(nil), f.batches...)
}

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
