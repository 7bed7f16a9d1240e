package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bytedance/sonic"
)

// Procedure is a server-side function reachable through Gateway.Invoke.
// payload is the JSON encoded request body.
type Procedure func(ctx context.Context, payload []byte) (any, error)

// Typed adapts a function taking a decoded payload into a Procedure.
func Typed[P any](fn func(ctx context.Context, payload P) (any, error)) Procedure {
	return func(ctx context.Context, raw []byte) (any, error) {
		var p P
		if len(raw) > 0 {
			err := sonic.Unmarshal(raw, &p)
			if err != nil {
				return nil, fmt.Errorf("decode payload: %w", err)
			}
		}
		return fn(ctx, p)
	}
}

type Procedures struct {
	mu    sync.RWMutex
	procs map[string]Procedure
}

func NewProcedures() *Procedures {
	return &Procedures{procs: make(map[string]Procedure)}
}

// Register adds or replaces the procedure under name.
func (p *Procedures) Register(name string, proc Procedure) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.procs[name] = proc
}

func (p *Procedures) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.procs))
	for name := range p.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Procedures) call(ctx context.Context, name string, payload, result any) error {
	p.mu.RLock()
	proc, ok := p.procs[name]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProcedure, name)
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", name, err)
	}

	out, err := proc(ctx, body)
	if err != nil {
		return fmt.Errorf("procedure %s: %w", name, err)
	}
	if result == nil || out == nil {
		return nil
	}

	raw, err := sonic.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode %s result: %w", name, err)
	}
	err = sonic.Unmarshal(raw, result)
	if err != nil {
		return fmt.Errorf("decode %s result: %w", name, err)
	}
	return nil
}
