// Package sink provides the processing functions reqbatch hands to its
// Batcher. Each one delivers the items of a batch somewhere and returns a
// short textual receipt.
package sink

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/makomweb/request-batcher/pkg/batch"
)

// Func is the processing function signature shared by all sinks.
type Func = batch.ProcessFunc[string, string]

// Writer joins the items of each batch with sep and writes them as one line
// to w. The joined line is the batch result. Writes are serialized so lines
// from concurrent batches do not interleave.
func Writer(w io.Writer, sep string) Func {
	var mu sync.Mutex
	return func(ctx context.Context, req batch.Request[string]) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line := strings.Join(req.Items(), sep)

		mu.Lock()
		defer mu.Unlock()
		if _, err := fmt.Fprintln(w, line); err != nil {
			return "", fmt.Errorf("write batch %s: %w", req.BatchID(), err)
		}
		return line, nil
	}
}

// payload is the JSON document the HTTP sink posts per batch.
type payload struct {
	BatchID string   `json:"batch_id"`
	Items   []string `json:"items"`
}

func newPayload(req batch.Request[string]) payload {
	return payload{BatchID: req.BatchID().String(), Items: req.Items()}
}
