package daemon

import (
	"context"
	"sync"
)

// Runner serializes builds. A trigger arriving while a build runs is
// coalesced: however many arrive, exactly one follow-up build starts once
// the running build finishes.
type Runner struct {
	build func(ctx context.Context, reason string)

	mu            sync.Mutex
	running       bool
	pending       bool
	pendingReason string
	wg            sync.WaitGroup
}

// NewRunner returns a runner invoking build for every (coalesced) trigger.
func NewRunner(build func(ctx context.Context, reason string)) *Runner {
	return &Runner{build: build}
}

// Trigger requests a build and returns immediately. It reports whether a
// new build started; false means the request was folded into a follow-up.
func (r *Runner) Trigger(ctx context.Context, reason string) bool {
	r.mu.Lock()
	if r.running {
		r.pending = true
		r.pendingReason = reason
		r.mu.Unlock()
		return false
	}
	r.running = true
	// Counted before running becomes observable, so Wait never misses it.
	r.wg.Add(1)
	r.mu.Unlock()

	go r.loop(ctx, reason)
	return true
}

// Running reports whether a build is in progress.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Wait blocks until no build is running.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) loop(ctx context.Context, reason string) {
	defer r.wg.Done()
	for {
		r.build(ctx, reason)

		r.mu.Lock()
		if !r.pending || ctx.Err() != nil {
			r.running = false
			r.pending = false
			r.mu.Unlock()
			return
		}
		reason = r.pendingReason
		r.pending = false
		r.mu.Unlock()
	}
}
