package cliconfig

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/makomweb/request-batcher/pkg/batch"
	"github.com/makomweb/request-batcher/pkg/log"
)

// Sink names accepted by the sink setting.
const (
	SinkStdout = "stdout"
	SinkHTTP   = "http"
	SinkRedis  = "redis"
)

// Config holds CLI configuration for reqbatch.
type Config struct {
	Policy   string
	MaxItems int
	Window   time.Duration

	Sink      string
	Separator string
	Output    string
	Input     string

	HTTPURL     string
	HTTPTimeout time.Duration
	HTTPRetries int
	AuthKey     string

	RedisAddr   string
	RedisStream string

	LogLevel   string
	LogBackend string

	WatchConfig     bool
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Policy:          string(batch.PolicySize),
		MaxItems:        10,
		Window:          time.Second,
		Sink:            SinkStdout,
		Separator:       " ",
		HTTPTimeout:     15 * time.Second,
		HTTPRetries:     3,
		RedisStream:     "reqbatch",
		LogLevel:        "info",
		LogBackend:      log.BackendZerolog,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate checks the configuration for errors and normalizes values.
func (c *Config) Validate() error {
	kind, err := batch.ParsePolicyKind(c.Policy)
	if err != nil {
		return err
	}
	c.Policy = string(kind)

	if _, err := c.BatchConfig().NewPolicy(); err != nil {
		return err
	}

	c.Sink = strings.ToLower(strings.TrimSpace(c.Sink))
	switch c.Sink {
	case SinkStdout:
	case SinkHTTP:
		if c.HTTPURL == "" {
			return fmt.Errorf("http-url is required for the http sink")
		}
		c.HTTPURL = strings.TrimRight(c.HTTPURL, "/")
		if c.HTTPTimeout <= 0 {
			return fmt.Errorf("http timeout must be positive")
		}
		if c.HTTPRetries < 0 {
			return fmt.Errorf("http retries must not be negative")
		}
	case SinkRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis-addr is required for the redis sink")
		}
		if c.RedisStream == "" {
			return fmt.Errorf("redis-stream is required for the redis sink")
		}
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}

	return nil
}

// BatchConfig converts the batching settings into a batch.Config.
func (c Config) BatchConfig() batch.Config {
	kind, err := batch.ParsePolicyKind(c.Policy)
	if err != nil {
		kind = batch.PolicyKind(c.Policy)
	}
	return batch.Config{
		Policy:   kind,
		MaxItems: c.MaxItems,
		Window:   c.Window,
	}
}

// NewLogger builds the configured logging backend writing to w.
func (c Config) NewLogger(w io.Writer) (log.Logger, error) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	return log.NewBackend(c.LogBackend, w, level)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int value if not nil and flag not changed. Used where
// zero is meaningful.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Negative values are ignored.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
