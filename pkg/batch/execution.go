package batch

import (
	"context"
	"sync/atomic"
)

// Status is the execution status of a dispatched batch.
type Status int32

const (
	// StatusPending means the batch was dispatched but processing has not
	// started yet.
	StatusPending Status = iota
	// StatusRunning means the processing function is executing.
	StatusRunning
	// StatusCompleted means the processing function returned. The response
	// may still be a Failure.
	StatusCompleted
	// StatusFaulted means the processing function panicked.
	StatusFaulted
	// StatusCanceled means the processing context was canceled.
	StatusCanceled
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusRunning:
		return "Running"
	case StatusCompleted:
		return "Completed"
	case StatusFaulted:
		return "Faulted"
	case StatusCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFaulted || s == StatusCanceled
}

// task is the bookkeeping record of one dispatched batch. resp and err are
// written once before done is closed and only read after.
type task[R any] struct {
	id     ID
	size   int
	status atomic.Int32
	done   chan struct{}
	resp   Response[R]
	err    error
}

func newTask[R any](id ID, size int) *task[R] {
	return &task[R]{id: id, size: size, done: make(chan struct{})}
}

func (t *task[R]) start() bool {
	return t.status.CompareAndSwap(int32(StatusPending), int32(StatusRunning))
}

func (t *task[R]) finish(status Status, resp Response[R], err error) {
	t.resp = resp
	t.err = err
	t.status.Store(int32(status))
	close(t.done)
}

func (t *task[R]) load() Status {
	return Status(t.status.Load())
}

// Execution is the handle a caller uses to observe the processing of one
// dispatched batch. All methods are safe for concurrent use.
type Execution[R any] struct {
	t *task[R]
}

// BatchID returns the identity of the observed batch.
func (e *Execution[R]) BatchID() ID {
	return e.t.id
}

// Size returns the number of items that were dispatched.
func (e *Execution[R]) Size() int {
	return e.t.size
}

// Status returns the current execution status.
func (e *Execution[R]) Status() Status {
	return e.t.load()
}

// IsCompleted reports whether the execution reached a terminal status.
// It never blocks.
func (e *Execution[R]) IsCompleted() bool {
	select {
	case <-e.t.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed once the execution is terminal.
func (e *Execution[R]) Done() <-chan struct{} {
	return e.t.done
}

// Wait blocks until the execution is terminal or ctx is done.
//
// A Failure response is returned with a nil error: it is the outcome of the
// batch, not an error of Wait. A non-nil error means the execution faulted
// (ErrExecutionFaulted), was canceled (ErrExecutionCanceled), or ctx ended.
func (e *Execution[R]) Wait(ctx context.Context) (Response[R], error) {
	select {
	case <-e.t.done:
		return e.t.resp, e.t.err
	case <-ctx.Done():
		return Response[R]{}, ctx.Err()
	}
}

// Result returns the response without blocking. Before completion it
// returns an error wrapping ErrNotCompleted that names the current status.
// Repeated calls after completion return the same response.
func (e *Execution[R]) Result() (Response[R], error) {
	select {
	case <-e.t.done:
		return e.t.resp, e.t.err
	default:
		return Response[R]{}, notCompleted(e.t.id, e.t.load())
	}
}
