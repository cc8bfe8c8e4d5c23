// Package requestbatcher coalesces work items from concurrent callers into
// batches that are processed exactly once.
//
// Example usage:
//
//	b, err := requestbatcher.NewSized(2, func(ctx context.Context, req batch.Request[string]) (string, error) {
//	    return strings.Join(req.Items(), " "), nil
//	}, requestbatcher.WithConsoleLogging(os.Stderr, "info"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	id, _ := b.Add("one")
//	b.Add("two")
//	exec, _ := b.Query(id)
//	resp, _ := exec.Wait(ctx)
//	fmt.Println(resp.Value()) // one two
//
// The batch package holds the full API; this package re-exports the
// constructors for the common cases.
package requestbatcher

import (
	"io"
	"time"

	"github.com/makomweb/request-batcher/pkg/batch"
	"github.com/makomweb/request-batcher/pkg/log"
)

// Config selects the completion policy of a Batcher.
type Config = batch.Config

// Option configures optional behavior of a Batcher.
type Option = batch.Option

// ID identifies a batch.
type ID = batch.ID

// New creates a Batcher for the policy described by cfg.
func New[T, R any](cfg Config, fn batch.ProcessFunc[T, R], opts ...Option) (*batch.Batcher[T, R], error) {
	return batch.New(cfg, fn, opts...)
}

// NewSized creates a Batcher that dispatches every maxItems items.
func NewSized[T, R any](maxItems int, fn batch.ProcessFunc[T, R], opts ...Option) (*batch.Batcher[T, R], error) {
	return batch.NewSized(maxItems, fn, opts...)
}

// NewTimeWindowed creates a Batcher that dispatches each batch window after
// its first item.
func NewTimeWindowed[T, R any](window time.Duration, fn batch.ProcessFunc[T, R], opts ...Option) (*batch.Batcher[T, R], error) {
	return batch.NewTimeWindowed(window, fn, opts...)
}

// WithConsoleLogging logs batch lifecycle events to w through zerolog at the
// named level. An unparsable level falls back to info.
func WithConsoleLogging(w io.Writer, level string) Option {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.LevelInfo
	}
	return batch.WithLogger(log.NewZerologAdapter(w, lvl))
}

// Version is the version of the batch package.
const Version = batch.Version
