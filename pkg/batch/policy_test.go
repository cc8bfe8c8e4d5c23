package batch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizePolicy_IsFull(t *testing.T) {
	p := SizePolicy{MaxItems: 3}

	assert.False(t, p.IsFull(State{Len: 0}))
	assert.False(t, p.IsFull(State{Len: 2}))
	assert.True(t, p.IsFull(State{Len: 3}))
	assert.Zero(t, p.Window())
}

func TestTimeWindowPolicy_IsFull(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := TimeWindowPolicy{Duration: time.Second}

	assert.False(t, p.IsFull(State{Created: created, Now: created}))
	assert.False(t, p.IsFull(State{Len: 100, Created: created, Now: created.Add(999 * time.Millisecond)}))
	assert.True(t, p.IsFull(State{Created: created, Now: created.Add(time.Second)}))
	assert.Equal(t, time.Second, p.Window())
}

func TestConfig_NewPolicy(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    Policy
		wantErr bool
	}{
		{"size", Config{Policy: PolicySize, MaxItems: 2}, SizePolicy{MaxItems: 2}, false},
		{"size zero", Config{Policy: PolicySize, MaxItems: 0}, nil, true},
		{"window", Config{Policy: PolicyTimeWindow, Window: time.Minute}, TimeWindowPolicy{Duration: time.Minute}, false},
		{"window negative", Config{Policy: PolicyTimeWindow, Window: -time.Second}, nil, true},
		{"unknown", Config{Policy: "fifo"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.NewPolicy()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePolicyKind(t *testing.T) {
	for in, want := range map[string]PolicyKind{
		"size":        PolicySize,
		" Size ":      PolicySize,
		"time-window": PolicyTimeWindow,
		"time":        PolicyTimeWindow,
		"window":      PolicyTimeWindow,
	} {
		got, err := ParsePolicyKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePolicyKind("priority")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
