package batch

import "slices"

// Request is the read-only view of a dispatched batch handed to the
// processing function.
type Request[T any] struct {
	id    ID
	items []T
}

// newRequest snapshots a closed batch.
func newRequest[T any](b *Batch[T]) Request[T] {
	return Request[T]{id: b.ID(), items: b.Items()}
}

// NewRequest builds a request directly, mainly for testing processing
// functions in isolation.
func NewRequest[T any](id ID, items []T) Request[T] {
	return Request[T]{id: id, items: slices.Clone(items)}
}

// BatchID returns the identity of the batch.
func (r Request[T]) BatchID() ID {
	return r.id
}

// Items returns a copy of the work items in insertion order.
func (r Request[T]) Items() []T {
	return slices.Clone(r.items)
}

// Len returns the number of work items.
func (r Request[T]) Len() int {
	return len(r.items)
}

// Kind discriminates a Response.
type Kind int

const (
	KindSuccess Kind = iota
	KindFailure
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "Success"
	case KindFailure:
		return "Failure"
	default:
		return "Unknown"
	}
}

// Response is the outcome of processing one batch: either a Success carrying
// the value the processing function returned, or a Failure carrying the
// error it returned.
type Response[R any] struct {
	kind  Kind
	value R
	err   error
}

// Success wraps a value produced by the processing function.
func Success[R any](value R) Response[R] {
	return Response[R]{kind: KindSuccess, value: value}
}

// Failure wraps the error returned by the processing function.
func Failure[R any](err error) Response[R] {
	return Response[R]{kind: KindFailure, err: err}
}

// Kind returns the variant of the response.
func (r Response[R]) Kind() Kind {
	return r.kind
}

// IsSuccess reports whether the batch was processed successfully.
func (r Response[R]) IsSuccess() bool {
	return r.kind == KindSuccess
}

// Value returns the value of a Success, or the zero value of R.
func (r Response[R]) Value() R {
	return r.value
}

// Err returns the cause of a Failure, or nil.
func (r Response[R]) Err() error {
	return r.err
}
