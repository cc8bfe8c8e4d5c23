package batch

import (
	"context"
	"time"

	"github.com/makomweb/request-batcher/pkg/log"
)

// Option configures optional behavior of a Batcher.
type Option func(*options)

// options holds the optional configuration for a Batcher.
type options struct {
	logger       log.Logger
	clock        func() time.Time
	ctx          context.Context
	eventHandler EventHandler
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
		clock:  time.Now,
		ctx:    context.Background(),
	}
}

// WithLogger sets a logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock replaces time.Now for policy evaluation. Timers still run on
// wall-clock time.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithContext sets the parent of the context passed to the processing
// function. Canceling it cancels executions that have not finished.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithEventHandler sets a handler notified about dispatches and completions.
// Handlers are called synchronously: OnDispatch while the Batcher holds its
// lock, OnComplete from the processing goroutine. They must not call back
// into the Batcher.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// Reason explains why a batch was dispatched.
type Reason string

const (
	ReasonFull    Reason = "full"
	ReasonExpired Reason = "expired"
	ReasonFlush   Reason = "flush"
	ReasonClose   Reason = "close"
)

// DispatchEvent is emitted when a batch is handed to the processor.
type DispatchEvent struct {
	BatchID ID
	Size    int
	Reason  Reason
}

// CompleteEvent is emitted when an execution reaches a terminal status.
type CompleteEvent struct {
	BatchID  ID
	Size     int
	Status   Status
	Success  bool
	Err      error
	Duration time.Duration
}

// EventHandler receives batch lifecycle notifications.
type EventHandler interface {
	OnDispatch(event DispatchEvent)
	OnComplete(event CompleteEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnDispatch(DispatchEvent) {}
func (BaseEventHandler) OnComplete(CompleteEvent) {}
