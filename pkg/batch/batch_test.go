package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestBatch_AddPreservesOrder(t *testing.T) {
	b := NewBatch[int](SizePolicy{MaxItems: 5}, nil)

	for i := 0; i < 4; i++ {
		res, err := b.Add(i)
		require.NoError(t, err)
		assert.Equal(t, b.ID(), res.ID)
		assert.Equal(t, Routed, res.Outcome)
	}

	assert.Equal(t, []int{0, 1, 2, 3}, b.Items())
	assert.Equal(t, 4, b.Len())
	assert.False(t, b.IsFull())
}

func TestBatch_ReadySignalFiresOnce(t *testing.T) {
	b := NewBatch[string](SizePolicy{MaxItems: 2}, nil)

	res, err := b.Add("one")
	require.NoError(t, err)
	assert.Equal(t, Routed, res.Outcome)

	res, err = b.Add("two")
	require.NoError(t, err)
	assert.Equal(t, RoutedAndFull, res.Outcome)
	assert.True(t, b.IsFull())

	_, err = b.Add("three")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBatchFull)
	assert.Contains(t, err.Error(), b.ID().String())
	assert.Equal(t, []string{"one", "two"}, b.Items())

	assert.False(t, b.markReady(), "readiness already raised by Add")
}

func TestBatch_ItemsIsACopy(t *testing.T) {
	b := NewBatch[string](SizePolicy{MaxItems: 3}, nil)
	_, _ = b.Add("a")

	items := b.Items()
	items[0] = "mutated"

	assert.Equal(t, []string{"a"}, b.Items())
}

func TestBatch_TimeWindowRejectsAfterDeadline(t *testing.T) {
	clock := newFakeClock()
	b := NewBatch[int](TimeWindowPolicy{Duration: time.Second}, clock.Now)

	res, err := b.Add(1)
	require.NoError(t, err)
	assert.Equal(t, Routed, res.Outcome)

	clock.Advance(time.Second)
	assert.True(t, b.IsFull())

	_, err = b.Add(2)
	assert.ErrorIs(t, err, ErrBatchFull)
	assert.Equal(t, []int{1}, b.Items())
}

func TestBatch_EmptyExpiredAcceptsFirstItem(t *testing.T) {
	clock := newFakeClock()
	b := NewBatch[int](TimeWindowPolicy{Duration: time.Second}, clock.Now)

	clock.Advance(2 * time.Second)
	require.True(t, b.IsFull())

	res, err := b.Add(1)
	require.NoError(t, err)
	assert.Equal(t, RoutedAndFull, res.Outcome)

	_, err = b.Add(2)
	assert.ErrorIs(t, err, ErrBatchFull)
	assert.Equal(t, []int{1}, b.Items())
}

func TestBatch_RejectsAfterMarkReady(t *testing.T) {
	b := NewBatch[int](TimeWindowPolicy{Duration: time.Hour}, nil)
	require.True(t, b.markReady())

	_, err := b.Add(1)
	assert.ErrorIs(t, err, ErrBatchFull)
	assert.Zero(t, b.Len())
}

func TestBatch_UniqueIDs(t *testing.T) {
	seen := make(map[ID]bool)
	for i := 0; i < 100; i++ {
		b := NewBatch[int](SizePolicy{MaxItems: 1}, nil)
		require.False(t, seen[b.ID()], "duplicate id %s", b.ID())
		seen[b.ID()] = true
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "Routed", Routed.String())
	assert.Equal(t, "RoutedAndFull", RoutedAndFull.String())
	assert.Equal(t, "Unknown", Outcome(7).String())
}

func TestParseID(t *testing.T) {
	b := NewBatch[int](SizePolicy{MaxItems: 1}, nil)

	id, err := ParseID(b.ID().String())
	require.NoError(t, err)
	assert.Equal(t, b.ID(), id)

	_, err = ParseID("not-an-id")
	assert.Error(t, err)
}
