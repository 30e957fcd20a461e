package server

import (
	"context"
	"errors"
	"fmt"
)

// ErrWorkerStopped is returned for work submitted after Stop.
var ErrWorkerStopped = errors.New("compile worker stopped")

// workRequest represents a unit of work to be executed on the worker
// goroutine.
type workRequest struct {
	fn   func() (any, error)
	done chan workResult
}

// workResult holds the return value from a unit of work.
type workResult struct {
	value any
	err   error
}

// Worker serializes all registry access through a single goroutine.
// Registries are not synchronised; every handler that compiles or reads
// session state must go through the worker.
type Worker struct {
	requests chan workRequest
	quit     chan struct{}
	stopped  chan struct{}
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker() *Worker {
	w := &Worker{
		requests: make(chan workRequest, 64),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	defer close(w.stopped)
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn, recovering from panics.
func (w *Worker) execute(fn func() (any, error)) (result workResult) {
	defer func() {
		if r := recover(); r != nil {
			result.err = fmt.Errorf("%v", r)
		}
	}()
	result.value, result.err = fn()
	return result
}

// Do submits fn for execution on the worker goroutine and blocks until it
// completes or ctx is done. A request abandoned because of ctx still runs.
func (w *Worker) Do(ctx context.Context, fn func() (any, error)) (any, error) {
	req := workRequest{
		fn:   fn,
		done: make(chan workResult, 1),
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, ErrWorkerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case result := <-req.done:
		return result.value, result.err
	case <-w.stopped:
		return nil, ErrWorkerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop shuts down the worker goroutine.
func (w *Worker) Stop() {
	select {
	case <-w.quit:
	default:
		close(w.quit)
	}
	<-w.stopped
}
