package log

import (
	"fmt"
	"io"
	"strings"
)

// Backend names accepted by NewBackend.
const (
	BackendZerolog = "zerolog"
	BackendLogrus  = "logrus"
)

// NewBackend creates a Logger for the named backend. An empty name selects
// zerolog.
func NewBackend(name string, w io.Writer, level Level) (Logger, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendZerolog:
		return NewZerologAdapter(w, level), nil
	case BackendLogrus:
		return NewLogrusAdapter(w, level), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", name)
	}
}
