package sink

import (
	"context"
	"math/rand"
	"time"
)

// Backoff spaces out redelivery attempts of one batch. Delays double from
// initial up to max, each one jittered by ±20% so batches that failed
// together do not retry in lockstep.
//
// A Backoff belongs to a single delivery and is not safe for concurrent use.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// NewBackoff returns a Backoff whose first delay is initial.
func NewBackoff(initial, max time.Duration) *Backoff {
	return &Backoff{
		initial: initial,
		max:     max,
		current: initial,
	}
}

// Next returns the jittered delay before the upcoming attempt and doubles
// the base delay for the one after.
func (b *Backoff) Next() time.Duration {
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	delay := time.Duration(float64(b.current) + jitter)

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return delay
}

// Wait blocks for Next() before the next delivery attempt. It gives up with
// ctx's error when the batch's processing context ends first.
func (b *Backoff) Wait(ctx context.Context) error {
	timer := time.NewTimer(b.Next())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Reset starts the schedule over, for a sink that reuses a Backoff across
// batches.
func (b *Backoff) Reset() {
	b.current = b.initial
}

// Current returns the base delay of the upcoming attempt, before jitter.
func (b *Backoff) Current() time.Duration {
	return b.current
}
