package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ironsheep/compositor-mcp/internal/logging"
)

// ErrWorkerClosed is returned by Submit after Close.
var ErrWorkerClosed = errors.New("pipeline: worker closed")

// Result reports the completion of one submitted Op.
type Result struct {
	Op      string
	Err     error
	Elapsed time.Duration
}

type request struct {
	ctx  context.Context
	op   Op
	done chan Result
}

// Worker runs submitted operations one at a time on a single goroutine
// that owns the Pipeline. Callers hand over an Op and receive its Result on
// a one-slot channel; they must not touch the Op's images until then.
type Worker struct {
	pipeline *Pipeline
	requests chan request

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewWorker starts a worker for p. queue is the number of requests that
// may wait while one runs; values below 0 are treated as 0.
func NewWorker(p *Pipeline, queue int) *Worker {
	if queue < 0 {
		queue = 0
	}
	w := &Worker{
		pipeline: p,
		requests: make(chan request, queue),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for req := range w.requests {
		start := time.Now()
		var err error
		if err = req.ctx.Err(); err == nil {
			err = w.pipeline.Run(req.ctx, req.op)
		}
		req.done <- Result{Op: req.op.Name, Err: err, Elapsed: time.Since(start)}
	}
}

// Submit queues op. The returned channel receives exactly one Result. If
// the queue is full Submit blocks until there is room or ctx is done.
func (w *Worker) Submit(ctx context.Context, op Op) (<-chan Result, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil, ErrWorkerClosed
	}

	req := request{ctx: ctx, op: op, done: make(chan Result, 1)}
	select {
	case w.requests <- req:
		logging.Logger().Debug("operation queued", "op", op.Name)
		return req.done, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do submits op and waits for its result. Cancelling ctx makes a queued
// op fail fast and a running one stop at its next cancellation check; Do
// still waits for that so the op's images are free when it returns.
func (w *Worker) Do(ctx context.Context, op Op) error {
	done, err := w.Submit(ctx, op)
	if err != nil {
		return err
	}
	return (<-done).Err
}

// Close stops accepting requests, lets queued ones finish and waits for the
// worker goroutine to exit. It is safe to call more than once.
func (w *Worker) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.requests)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
