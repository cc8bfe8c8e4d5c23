package batch

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID identifies a batch. It is assigned once when the batch is created and
// is never reused.
type ID = uuid.UUID

// NilID is the zero ID. It never identifies a batch.
var NilID = uuid.Nil

// ParseID parses the textual form of an ID.
func ParseID(s string) (ID, error) {
	return uuid.Parse(s)
}

// State is the snapshot of a batch handed to a Policy.
type State struct {
	// Len is the number of items currently in the batch.
	Len int

	// Created is the time the batch was opened.
	Created time.Time

	// Now is the time of evaluation.
	Now time.Time
}

// Policy decides when a batch stops accepting items.
//
// Implementations must be stateless with respect to a single batch: all
// per-batch information is passed in through State, so one Policy value can
// serve every batch a Batcher opens.
type Policy interface {
	// IsFull reports whether a batch in the given state is complete.
	IsFull(s State) bool

	// Window returns how long after creation a batch must be closed
	// regardless of its contents. Zero means no timer.
	Window() time.Duration
}

// SizePolicy closes a batch once it holds MaxItems items.
type SizePolicy struct {
	MaxItems int
}

// IsFull implements Policy.
func (p SizePolicy) IsFull(s State) bool {
	return s.Len >= p.MaxItems
}

// Window implements Policy. Size-bounded batches have no timer.
func (p SizePolicy) Window() time.Duration {
	return 0
}

// Validate checks that MaxItems is usable.
func (p SizePolicy) Validate() error {
	if p.MaxItems < 1 {
		return fmt.Errorf("%w: max items must be at least 1, got %d", ErrInvalidConfig, p.MaxItems)
	}
	return nil
}

// TimeWindowPolicy closes a batch once Duration has elapsed since it was
// opened. The number of items is irrelevant.
type TimeWindowPolicy struct {
	Duration time.Duration
}

// IsFull implements Policy.
func (p TimeWindowPolicy) IsFull(s State) bool {
	return !s.Now.Before(s.Created.Add(p.Duration))
}

// Window implements Policy.
func (p TimeWindowPolicy) Window() time.Duration {
	return p.Duration
}

// Validate checks that the window is positive.
func (p TimeWindowPolicy) Validate() error {
	if p.Duration <= 0 {
		return fmt.Errorf("%w: time window must be positive, got %s", ErrInvalidConfig, p.Duration)
	}
	return nil
}

// PolicyKind names a built-in completion policy.
type PolicyKind string

const (
	PolicySize       PolicyKind = "size"
	PolicyTimeWindow PolicyKind = "time-window"
)

// ParsePolicyKind converts a configuration string into a PolicyKind.
func ParsePolicyKind(s string) (PolicyKind, error) {
	switch PolicyKind(strings.ToLower(strings.TrimSpace(s))) {
	case PolicySize:
		return PolicySize, nil
	case PolicyTimeWindow, "time", "window":
		return PolicyTimeWindow, nil
	default:
		return "", fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, s)
	}
}

// Config is the construction surface of a Batcher.
type Config struct {
	// Policy selects the completion policy.
	Policy PolicyKind

	// MaxItems is the batch size for PolicySize.
	MaxItems int

	// Window is the batch lifetime for PolicyTimeWindow.
	Window time.Duration
}

// NewPolicy validates c and returns the Policy it describes.
func (c Config) NewPolicy() (Policy, error) {
	switch c.Policy {
	case PolicySize:
		p := SizePolicy{MaxItems: c.MaxItems}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return p, nil
	case PolicyTimeWindow:
		p := TimeWindowPolicy{Duration: c.Window}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, c.Policy)
	}
}
