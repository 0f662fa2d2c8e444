package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestBreaker() (*CircuitBreaker, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("test-model")
	cb.now = clk.now
	return cb, clk
}

func TestNewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("test-model")
	assert.Equal(t, "test-model", cb.modelID)
	assert.Equal(t, CircuitClosed, cb.GetState())
	assert.Equal(t, 3, cb.failureThreshold)
	assert.Equal(t, 30*time.Second, cb.recoveryTimeout)
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker()

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.GetState())
	assert.True(t, cb.ShouldAttempt())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.GetState())
	assert.False(t, cb.ShouldAttempt())
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb, _ := newTestBreaker()
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.GetState())
}

func TestCircuitBreaker_Recovery(t *testing.T) {
	tests := []struct {
		name      string
		probeOK   bool
		wantState CircuitState
	}{
		{name: "probe succeeds closes circuit", probeOK: true, wantState: CircuitClosed},
		{name: "probe fails reopens circuit", probeOK: false, wantState: CircuitOpen},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cb, clk := newTestBreaker()
			for i := 0; i < 3; i++ {
				cb.RecordFailure()
			}
			require.False(t, cb.ShouldAttempt())

			clk.t = clk.t.Add(31 * time.Second)
			require.True(t, cb.ShouldAttempt())
			assert.Equal(t, CircuitHalfOpen, cb.GetState())
			// only one probe at a time
			assert.False(t, cb.ShouldAttempt())

			if tt.probeOK {
				cb.RecordSuccess()
			} else {
				cb.RecordFailure()
			}
			assert.Equal(t, tt.wantState, cb.GetState())
		})
	}
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(9).String())
}

func TestCircuitBreakerManager(t *testing.T) {
	m := NewCircuitBreakerManager()
	a := m.GetBreaker("a")
	assert.Same(t, a, m.GetBreaker("a"))
	assert.NotSame(t, a, m.GetBreaker("b"))

	for i := 0; i < 3; i++ {
		a.RecordFailure()
	}
	states := m.States()
	assert.Equal(t, CircuitOpen, states["a"])
	assert.Equal(t, CircuitClosed, states["b"])
}
