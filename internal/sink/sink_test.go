package sink

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/makomweb/request-batcher/pkg/batch"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	fn := Writer(&buf, ", ")

	got, err := fn(context.Background(), batch.NewRequest(batch.NilID, []string{"one", "two", "three"}))
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	if got != "one, two, three" {
		t.Errorf("Writer() = %q, want %q", got, "one, two, three")
	}
	if buf.String() != "one, two, three\n" {
		t.Errorf("output = %q", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriter_Error(t *testing.T) {
	fn := Writer(failingWriter{}, " ")

	_, err := fn(context.Background(), batch.NewRequest(batch.NilID, []string{"x"}))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Writer() error = %v, want disk full", err)
	}
}

func TestWriter_CanceledContext(t *testing.T) {
	var buf bytes.Buffer
	fn := Writer(&buf, " ")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fn(ctx, batch.NewRequest(batch.NilID, []string{"x"}))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Writer() error = %v, want context.Canceled", err)
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want nothing", buf.String())
	}
}

// A sink plugged into a Batcher yields one line per batch.
func TestWriter_WithBatcher(t *testing.T) {
	var buf bytes.Buffer
	b, err := batch.NewSized(2, Writer(&buf, " "))
	if err != nil {
		t.Fatalf("NewSized() error = %v", err)
	}

	for _, s := range []string{"a", "b", "c"} {
		if _, err := b.Add(s); err != nil {
			t.Fatalf("Add(%q) error = %v", s, err)
		}
	}
	if err := b.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Batches run concurrently, so line order is not fixed.
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	sort.Strings(lines)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if lines[0] != "a b" || lines[1] != "c" {
		t.Errorf("lines = %q", lines)
	}
}
