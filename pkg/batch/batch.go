package batch

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Outcome tells the owner of a batch what an Add did to it.
type Outcome int

const (
	// Routed means the item was appended and the batch is still open.
	Routed Outcome = iota

	// RoutedAndFull means the item was appended and the batch just became
	// full. It is reported exactly once per batch.
	RoutedAndFull
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case Routed:
		return "Routed"
	case RoutedAndFull:
		return "RoutedAndFull"
	default:
		return "Unknown"
	}
}

// AddResult is returned by Batch.Add.
type AddResult struct {
	ID      ID
	Outcome Outcome
}

// Batch is an ordered, append-only group of items under one Policy.
//
// A Batch is not safe for concurrent use. The Batcher owns the open batch
// and serializes access to it; once dispatched a batch is only read.
type Batch[T any] struct {
	id      ID
	policy  Policy
	now     func() time.Time
	created time.Time
	items   []T
	ready   bool
}

// NewBatch creates an empty batch with a fresh identity. If now is nil,
// time.Now is used.
func NewBatch[T any](policy Policy, now func() time.Time) *Batch[T] {
	if now == nil {
		now = time.Now
	}
	return &Batch[T]{
		id:      uuid.New(),
		policy:  policy,
		now:     now,
		created: now(),
	}
}

// ID returns the identity of the batch.
func (b *Batch[T]) ID() ID {
	return b.id
}

// Created returns the time the batch was opened.
func (b *Batch[T]) Created() time.Time {
	return b.created
}

// Len returns the number of items in the batch.
func (b *Batch[T]) Len() int {
	return len(b.items)
}

// Items returns a copy of the items in insertion order.
func (b *Batch[T]) Items() []T {
	return slices.Clone(b.items)
}

// IsFull reports whether the policy considers the batch complete.
func (b *Batch[T]) IsFull() bool {
	return b.policy.IsFull(State{
		Len:     len(b.items),
		Created: b.created,
		Now:     b.now(),
	})
}

// Add appends item. It fails with ErrBatchFull if the batch was already
// full before the call. An empty batch always accepts its first item, so a
// window that elapsed before anything was added still holds one item.
func (b *Batch[T]) Add(item T) (AddResult, error) {
	if b.ready || (len(b.items) > 0 && b.IsFull()) {
		return AddResult{}, &BatchError{Op: "add", ID: b.id, Err: ErrBatchFull}
	}

	b.items = append(b.items, item)

	if b.IsFull() && b.markReady() {
		return AddResult{ID: b.id, Outcome: RoutedAndFull}, nil
	}
	return AddResult{ID: b.id, Outcome: Routed}, nil
}

// markReady raises the readiness signal. It returns true only for the call
// that performed the transition.
func (b *Batch[T]) markReady() bool {
	if b.ready {
		return false
	}
	b.ready = true
	return true
}
