package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of engine processes running at once.
//
// Up to size invocations run concurrently and up to maxQueued more wait for a
// worker. A waiting caller leaves the queue as soon as its context ends, so no
// process is started for it. Once started, an invocation runs on a context
// detached from the caller's cancellation: when the caller gives up (an HTTP
// client disconnects), the process still runs to completion and its result is
// dropped. Timeouts configured on the wrapped runner still apply.
type Pool struct {
	runner  Runner
	pool    *ants.Pool
	admit   *semaphore.Weighted // running + queued
	workers *semaphore.Weighted // running
	waiting atomic.Int64
	log     zerolog.Logger
}

type runResult struct {
	out *Output
	err error
}

// NewPool wraps runner with a worker pool of size workers. Up to maxQueued
// callers wait for a free worker; with maxQueued == 0 a full pool rejects
// immediately with ErrBusy.
func NewPool(runner Runner, size, maxQueued int, log zerolog.Logger) (*Pool, error) {
	if runner == nil {
		return nil, fmt.Errorf("engine: pool requires a runner")
	}
	if size < 1 {
		size = 1
	}
	if maxQueued < 0 {
		maxQueued = 0
	}

	// Admission is bounded by the semaphores; the ants pool never holds more
	// than size tasks and only blocks while a finishing worker is recycled.
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to create worker pool: %w", err)
	}

	return &Pool{
		runner:  runner,
		pool:    pool,
		admit:   semaphore.NewWeighted(int64(size + maxQueued)),
		workers: semaphore.NewWeighted(int64(size)),
		log:     log,
	}, nil
}

// Run waits for a worker, submits the invocation and waits for its result or
// for ctx to end.
func (p *Pool) Run(ctx context.Context, query string) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.pool.IsClosed() {
		return nil, ErrClosed
	}
	if !p.admit.TryAcquire(1) {
		return nil, ErrBusy
	}

	p.waiting.Add(1)
	err := p.workers.Acquire(ctx, 1)
	p.waiting.Add(-1)
	if err != nil {
		p.admit.Release(1)
		p.log.Debug().Err(err).Msg("Caller went away while queued for an engine worker")
		return nil, err
	}
	release := func() {
		p.workers.Release(1)
		p.admit.Release(1)
	}
	// Acquire may succeed on an already finished context.
	if err := ctx.Err(); err != nil {
		release()
		return nil, err
	}

	// Buffered so an abandoned task can always deliver and exit.
	done := make(chan runResult, 1)
	detached := context.WithoutCancel(ctx)

	err = p.pool.Submit(func() {
		defer release()
		out, err := p.runner.Run(detached, query)
		done <- runResult{out: out, err: err}
	})
	if err != nil {
		release()
		if errors.Is(err, ants.ErrPoolClosed) {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("engine: failed to submit invocation: %w", err)
	}

	select {
	case res := <-done:
		return res.out, res.err
	case <-ctx.Done():
		p.log.Debug().Err(ctx.Err()).Msg("Caller went away before the engine finished, result will be discarded")
		return nil, ctx.Err()
	}
}

// Running returns the number of engine processes currently executing
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Waiting returns the number of callers queued for a worker
func (p *Pool) Waiting() int {
	return int(p.waiting.Load())
}

// Cap returns the pool size
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Close stops accepting work and waits up to timeout for running invocations.
func (p *Pool) Close(timeout time.Duration) error {
	if timeout <= 0 {
		p.pool.Release()
		return nil
	}
	return p.pool.ReleaseTimeout(timeout)
}
