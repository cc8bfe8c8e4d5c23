package batch

import (
	"context"
	"sync"
	"time"

	"github.com/makomweb/request-batcher/pkg/log"
)

// Batcher routes items into the single open batch and hands every batch
// that becomes full to its Processor exactly once.
//
// All state transitions of the open batch happen under one mutex: Add,
// Flush, Close and the time-window timer all go through it, so a batch is
// closed by exactly one of them and no item lands in a closed batch.
type Batcher[T, R any] struct {
	policy    Policy
	processor *Processor[T, R]
	logger    log.Logger
	clock     func() time.Time
	events    EventHandler

	mu     sync.Mutex
	open   *Batch[T]
	timer  *time.Timer
	closed bool
}

// New creates a Batcher for the policy described by cfg.
func New[T, R any](cfg Config, fn ProcessFunc[T, R], opts ...Option) (*Batcher[T, R], error) {
	policy, err := cfg.NewPolicy()
	if err != nil {
		return nil, err
	}
	return NewWithPolicy(policy, fn, opts...)
}

// NewSized creates a Batcher that dispatches every maxItems items.
func NewSized[T, R any](maxItems int, fn ProcessFunc[T, R], opts ...Option) (*Batcher[T, R], error) {
	return New(Config{Policy: PolicySize, MaxItems: maxItems}, fn, opts...)
}

// NewTimeWindowed creates a Batcher that dispatches each batch window after
// its first item.
func NewTimeWindowed[T, R any](window time.Duration, fn ProcessFunc[T, R], opts ...Option) (*Batcher[T, R], error) {
	return New(Config{Policy: PolicyTimeWindow, Window: window}, fn, opts...)
}

// NewWithPolicy creates a Batcher for a custom Policy.
func NewWithPolicy[T, R any](policy Policy, fn ProcessFunc[T, R], opts ...Option) (*Batcher[T, R], error) {
	if policy == nil {
		return nil, &BatchError{Op: "new", Err: ErrInvalidConfig}
	}
	if fn == nil {
		return nil, &BatchError{Op: "new", Err: ErrInvalidConfig}
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Batcher[T, R]{
		policy:    policy,
		processor: newProcessor(fn, o),
		logger:    o.logger,
		clock:     o.clock,
		events:    o.eventHandler,
	}, nil
}

// Add routes item into the open batch, opening one if needed, and returns
// the identity of that batch. If the item completes the batch, the batch is
// dispatched before Add returns.
func (b *Batcher[T, R]) Add(item T) (ID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return NilID, ErrClosed
	}

	// The window may have elapsed before its timer got the lock.
	if b.open != nil && b.open.IsFull() {
		b.open.markReady()
		b.dispatchLocked(ReasonExpired)
	}

	if b.open == nil {
		b.openLocked()
	}

	res, err := b.open.Add(item)
	if err != nil {
		return NilID, err
	}

	if res.Outcome == RoutedAndFull {
		b.dispatchLocked(ReasonFull)
	}

	return res.ID, nil
}

// Query returns the execution handle of a dispatched batch. It fails with
// ErrWaitingForExecution while id is still the open batch and with
// ErrBatchNotFound for unknown identities.
func (b *Batcher[T, R]) Query(id ID) (*Execution[R], error) {
	b.mu.Lock()
	if b.open != nil && b.open.ID() == id {
		b.mu.Unlock()
		return nil, &BatchError{Op: "query", ID: id, Err: ErrWaitingForExecution}
	}
	b.mu.Unlock()

	return b.processor.Query(id)
}

// Flush dispatches the open batch regardless of its policy. It returns the
// identity of the dispatched batch, or false if no batch was open.
func (b *Batcher[T, R]) Flush() (ID, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open == nil {
		return NilID, false
	}
	id := b.open.ID()
	b.dispatchLocked(ReasonFlush)
	return id, true
}

// OpenBatchID returns the identity of the batch currently accepting items.
func (b *Batcher[T, R]) OpenBatchID() (ID, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open == nil {
		return NilID, false
	}
	return b.open.ID(), true
}

// Forget releases the bookkeeping of a completed batch. Later queries for
// id fail with ErrBatchNotFound.
func (b *Batcher[T, R]) Forget(id ID) bool {
	return b.processor.Forget(id)
}

// Close stops accepting items, dispatches the open batch and waits for all
// executions to finish. If ctx ends first, the processing context is
// canceled and ctx's error is returned.
func (b *Batcher[T, R]) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	if b.open != nil {
		b.dispatchLocked(ReasonClose)
	}
	b.mu.Unlock()

	if err := b.processor.Wait(ctx); err != nil {
		b.logger.Warn("close timed out, canceling executions", log.Err(err))
		b.processor.Cancel()
		return err
	}
	b.processor.Cancel()
	return nil
}

// openLocked starts a new batch and arms its timer. b.mu must be held.
func (b *Batcher[T, R]) openLocked() {
	batch := NewBatch[T](b.policy, b.clock)
	b.open = batch

	if window := b.policy.Window(); window > 0 {
		id := batch.ID()
		b.timer = time.AfterFunc(window, func() {
			b.expire(id)
		})
	}

	b.logger.Debug("batch opened", log.String("batch_id", batch.ID().String()))
}

// expire is the timer callback. It closes the batch only if it is still the
// open one; a timer that lost the race against Add or Flush does nothing.
func (b *Batcher[T, R]) expire(id ID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open == nil || b.open.ID() != id {
		return
	}
	b.open.markReady()
	b.dispatchLocked(ReasonExpired)
}

// dispatchLocked detaches the open batch and hands it to the processor.
// b.mu must be held and b.open must be set.
func (b *Batcher[T, R]) dispatchLocked(reason Reason) {
	batch := b.open
	b.open = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}

	if err := b.processor.Dispatch(batch); err != nil {
		b.logger.Error("dispatch failed", log.String("batch_id", batch.ID().String()), log.Err(err))
		return
	}

	b.logger.Debug("batch dispatched",
		log.String("batch_id", batch.ID().String()),
		log.Int("items", batch.Len()),
		log.String("reason", string(reason)))

	if b.events != nil {
		b.events.OnDispatch(DispatchEvent{BatchID: batch.ID(), Size: batch.Len(), Reason: reason})
	}
}
