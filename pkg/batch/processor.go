package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/makomweb/request-batcher/pkg/log"
)

// ErrAlreadyDispatched is returned when the same batch is dispatched twice.
var ErrAlreadyDispatched = errors.New("batch: already dispatched")

// ProcessFunc turns the items of one batch into a single response value.
// A returned error becomes a Failure response. ctx is canceled when the
// owning Batcher gives up waiting on Close.
type ProcessFunc[T, R any] func(ctx context.Context, req Request[T]) (R, error)

// Processor runs the processing function once per dispatched batch, off the
// caller's goroutine, and keeps the executions so they can be looked up by
// batch identity.
type Processor[T, R any] struct {
	fn     ProcessFunc[T, R]
	ctx    context.Context
	cancel context.CancelFunc
	logger log.Logger
	events EventHandler

	mu    sync.RWMutex
	tasks map[ID]*task[R]
}

// NewProcessor creates a processor for fn. Only the logger, context and
// event handler options apply.
func NewProcessor[T, R any](fn ProcessFunc[T, R], opts ...Option) *Processor[T, R] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newProcessor(fn, o)
}

func newProcessor[T, R any](fn ProcessFunc[T, R], o options) *Processor[T, R] {
	ctx, cancel := context.WithCancel(o.ctx)
	return &Processor[T, R]{
		fn:     fn,
		ctx:    ctx,
		cancel: cancel,
		logger: o.logger,
		events: o.eventHandler,
		tasks:  make(map[ID]*task[R]),
	}
}

// Dispatch records the batch and starts processing it in a new goroutine.
// The execution is queryable as soon as Dispatch returns. Dispatch never
// waits for the processing function.
func (p *Processor[T, R]) Dispatch(b *Batch[T]) error {
	req := newRequest(b)
	t := newTask[R](req.BatchID(), req.Len())

	p.mu.Lock()
	if _, ok := p.tasks[t.id]; ok {
		p.mu.Unlock()
		return &BatchError{Op: "dispatch", ID: t.id, Err: ErrAlreadyDispatched}
	}
	p.tasks[t.id] = t
	p.mu.Unlock()

	go p.run(t, req)

	return nil
}

// run executes one task to a terminal status.
func (p *Processor[T, R]) run(t *task[R], req Request[T]) {
	started := time.Now()

	var (
		status Status
		resp   Response[R]
		err    error
	)
	if ctxErr := p.ctx.Err(); ctxErr != nil {
		status = StatusCanceled
		err = &BatchError{Op: "process", ID: t.id, Err: fmt.Errorf("%w: %w", ErrExecutionCanceled, ctxErr)}
	} else {
		t.start()
		status, resp, err = p.invoke(req)
	}

	elapsed := time.Since(started)

	switch {
	case err != nil:
		p.logger.Error("batch execution did not complete",
			log.String("batch_id", t.id.String()),
			log.String("status", status.String()),
			log.Err(err))
	case !resp.IsSuccess():
		p.logger.Warn("batch processed with failure",
			log.String("batch_id", t.id.String()),
			log.Int("items", t.size),
			log.Duration("duration", elapsed),
			log.Err(resp.Err()))
	default:
		p.logger.Debug("batch processed",
			log.String("batch_id", t.id.String()),
			log.Int("items", t.size),
			log.Duration("duration", elapsed))
	}

	if p.events != nil {
		cause := err
		if cause == nil {
			cause = resp.Err()
		}
		p.events.OnComplete(CompleteEvent{
			BatchID:  t.id,
			Size:     t.size,
			Status:   status,
			Success:  err == nil && resp.IsSuccess(),
			Err:      cause,
			Duration: elapsed,
		})
	}

	// Waiters observe completion only after logging and events are done.
	t.finish(status, resp, err)
}

// invoke calls the processing function and converts its outcome. Returned
// errors become Failure responses; panics and cancellation are reported as
// execution errors.
func (p *Processor[T, R]) invoke(req Request[T]) (status Status, resp Response[R], err error) {
	defer func() {
		if r := recover(); r != nil {
			status = StatusFaulted
			resp = Response[R]{}
			err = &BatchError{
				Op:  "process",
				ID:  req.BatchID(),
				Err: fmt.Errorf("%w: %w", ErrExecutionFaulted, &PanicError{Value: r}),
			}
		}
	}()

	value, fnErr := p.fn(p.ctx, req)
	if fnErr != nil {
		if ctxErr := p.ctx.Err(); ctxErr != nil && errors.Is(fnErr, ctxErr) {
			return StatusCanceled, Response[R]{}, &BatchError{
				Op:  "process",
				ID:  req.BatchID(),
				Err: fmt.Errorf("%w: %w", ErrExecutionCanceled, fnErr),
			}
		}
		return StatusCompleted, Failure[R](fnErr), nil
	}
	return StatusCompleted, Success(value), nil
}

// Query returns the execution of a dispatched batch.
func (p *Processor[T, R]) Query(id ID) (*Execution[R], error) {
	p.mu.RLock()
	t, ok := p.tasks[id]
	p.mu.RUnlock()

	if !ok {
		return nil, &BatchError{Op: "query", ID: id, Err: ErrBatchNotFound}
	}
	return &Execution[R]{t: t}, nil
}

// Forget drops the bookkeeping of a terminal execution. Handles already
// obtained stay valid. It returns false if the batch is unknown or still
// being processed.
func (p *Processor[T, R]) Forget(id ID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.tasks[id]
	if !ok || !t.load().Terminal() {
		return false
	}
	delete(p.tasks, id)
	return true
}

// Len returns the number of executions currently retained.
func (p *Processor[T, R]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.tasks)
}

// Wait blocks until every execution dispatched before the call is terminal,
// or ctx is done. It is safe to call concurrently with Dispatch; batches
// dispatched after Wait started are not waited for.
func (p *Processor[T, R]) Wait(ctx context.Context) error {
	p.mu.RLock()
	var pending []<-chan struct{}
	for _, t := range p.tasks {
		select {
		case <-t.done:
		default:
			pending = append(pending, t.done)
		}
	}
	p.mu.RUnlock()

	for _, done := range pending {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Cancel cancels the context passed to processing functions. Executions
// that have not started finish as Canceled.
func (p *Processor[T, R]) Cancel() {
	p.cancel()
}
