package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
)

// TestDefaultPolicy verifies the baseline default values.
func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != BackoffLinear {
		t.Fatalf("expected linear default mode got %s", p.Mode)
	}
	if p.Initial != time.Second {
		t.Fatalf("expected initial 1s got %v", p.Initial)
	}
	if p.Max != 30*time.Second {
		t.Fatalf("expected max 30s got %v", p.Max)
	}
	if p.MaxRetries != 2 {
		t.Fatalf("expected max retries 2 got %d", p.MaxRetries)
	}
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(BackoffFixed, 5*time.Second, 2*time.Second, 5)
	if p.Initial != 2*time.Second {
		t.Fatalf("expected clamped initial 2s got %v", p.Initial)
	}
	if p.Mode != BackoffFixed {
		t.Fatalf("expected fixed mode got %s", p.Mode)
	}
	if p.MaxRetries != 5 {
		t.Fatalf("expected maxRetries 5 got %d", p.MaxRetries)
	}

	unknown := NewPolicy("random", 0, 0, -1)
	if unknown != DefaultPolicy() {
		t.Fatalf("expected defaults for invalid input, got %+v", unknown)
	}
}

// TestDelayModes ensures fixed, linear, exponential behave and respect cap.
func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{"fixed", NewPolicy(BackoffFixed, 100*ms, 500*ms, 3), 3, 100 * ms},
		{"linear", NewPolicy(BackoffLinear, 100*ms, 250*ms, 5), 2, 200 * ms},
		{"linear capped", NewPolicy(BackoffLinear, 100*ms, 250*ms, 5), 4, 250 * ms},
		{"exponential", NewPolicy(BackoffExponential, 100*ms, time.Second, 5), 3, 400 * ms},
		{"exponential capped", NewPolicy(BackoffExponential, 100*ms, time.Second, 5), 5, time.Second},
		{"no retry", DefaultPolicy(), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Delay(tt.attempt))
		})
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())
	require.Error(t, Policy{Initial: 0, Max: time.Second}.Validate())
	require.Error(t, Policy{Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
}

func TestDoRetriesTransientErrors(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	var retried []int
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return derrors.NetworkError("flaky").Build()
		}
		return nil
	}, func(attempt int, _ error) { retried = append(retried, attempt) })

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	permanent := errors.New("not found")
	err := p.Do(context.Background(), func() error {
		calls++
		return permanent
	}, nil)

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return derrors.NetworkError("down").Build()
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPolicy(BackoffFixed, time.Hour, time.Hour, 5)
	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		return derrors.NetworkError("down").Build()
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
