package batch

import (
	"errors"
	"fmt"
)

// Batch errors can be checked with errors.Is. Errors that concern a specific
// batch are returned wrapped in a *BatchError carrying its identity.
var (
	// ErrBatchFull is returned when an item is added to a batch whose
	// completion policy already reports it as full.
	ErrBatchFull = errors.New("batch: full")

	// ErrWaitingForExecution is returned by Query for the batch that is still
	// open. The caller may retry once the batch has been dispatched.
	ErrWaitingForExecution = errors.New("batch: waiting to be executed")

	// ErrBatchNotFound is returned by Query for an identity that was never
	// dispatched, or that has been forgotten.
	ErrBatchNotFound = errors.New("batch: not found")

	// ErrNotCompleted is returned by Execution.Result when the processing
	// has not reached a terminal status yet.
	ErrNotCompleted = errors.New("batch: execution not completed")

	// ErrExecutionFaulted is returned when the processing itself failed
	// (the callback panicked), as opposed to returning an error.
	ErrExecutionFaulted = errors.New("batch: execution faulted")

	// ErrExecutionCanceled is returned when the processing context was
	// canceled before or during the callback.
	ErrExecutionCanceled = errors.New("batch: execution canceled")

	// ErrClosed is returned by Add after Close has been called.
	ErrClosed = errors.New("batch: batcher closed")

	// ErrInvalidConfig is returned when a Batcher is constructed with an
	// invalid policy configuration.
	ErrInvalidConfig = errors.New("batch: invalid configuration")
)

// BatchError records an error and the operation and batch that caused it.
type BatchError struct {
	Op  string
	ID  ID
	Err error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s batch '%s': %v", e.Op, e.ID, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// PanicError is the cause of a faulted execution. Value holds whatever the
// processing function passed to panic.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("processing panicked: %v", e.Value)
}

// Unwrap returns the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// notCompleted builds the error Result returns for a non-terminal execution.
func notCompleted(id ID, status Status) error {
	return &BatchError{
		Op:  "result",
		ID:  id,
		Err: fmt.Errorf("%w: status is '%s'", ErrNotCompleted, status),
	}
}
