package lsp

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"

	"golang.org/x/sync/semaphore"
)

// pool bounds how many request handlers run concurrently. The teacher's
// server processes one message at a time end-to-end; spec.md §5 asks for
// handler bodies to run off the read loop so a slow hover doesn't stall
// didChange notifications behind it, bounded so an editor that fires off
// a hundred hovers at once doesn't spawn a hundred goroutines walking
// the same translation unit.
type pool struct {
	sem *semaphore.Weighted
	log *slog.Logger
}

func newPool(capacity int, log *slog.Logger) *pool {
	if capacity <= 0 {
		capacity = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = slog.Default()
	}
	return &pool{sem: semaphore.NewWeighted(int64(capacity)), log: log}
}

// run acquires a slot, runs fn, and recovers any panic into an error so
// one crashing handler can never take the whole server down.
func (p *pool) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("recovered panic in request handler", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return fn(ctx)
}
