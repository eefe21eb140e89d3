package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome bool

const (
	fail outcome = false
	ok   outcome = true
)

func record(b *Breaker, outcomes ...outcome) (opened, closed int) {
	for _, o := range outcomes {
		if o == ok {
			if _, change := b.RecordSuccess(); change.Closed {
				closed++
			}
			continue
		}
		if _, change := b.RecordFailure(); change.Opened {
			opened++
		}
	}
	return opened, closed
}

func TestBreakerTransitions(t *testing.T) {
	cases := []struct {
		name       string
		failures   int
		successes  int
		outcomes   []outcome
		wantState  State
		wantOpened int
		wantClosed int
	}{
		{name: "stays closed below threshold", failures: 3, outcomes: []outcome{fail, fail}, wantState: StateClosed},
		{name: "opens on threshold", failures: 3, outcomes: []outcome{fail, fail, fail}, wantState: StateOpen, wantOpened: 1},
		{name: "success resets failure streak", failures: 3, outcomes: []outcome{fail, fail, ok, fail, fail}, wantState: StateClosed},
		{name: "failures while open do not reopen", failures: 1, outcomes: []outcome{fail, fail, fail}, wantState: StateOpen, wantOpened: 1},
		{name: "closes after success threshold", failures: 1, successes: 2, outcomes: []outcome{fail, ok, ok}, wantState: StateClosed, wantOpened: 1, wantClosed: 1},
		{name: "failure resets success streak", failures: 1, successes: 2, outcomes: []outcome{fail, ok, fail, ok}, wantState: StateOpen, wantOpened: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := New("nats", WithFailureThreshold(tc.failures), WithSuccessThreshold(tc.successes))
			opened, closed := record(b, tc.outcomes...)
			assert.Equal(t, tc.wantState, b.State())
			assert.Equal(t, tc.wantOpened, opened)
			assert.Equal(t, tc.wantClosed, closed)
		})
	}
}

func TestBreakerDefaults(t *testing.T) {
	b := New("nats")
	assert.Equal(t, "nats", b.Name())
	assert.False(t, b.IsOpen())

	opened, _ := record(b, fail, fail, fail, fail)
	require.Zero(t, opened)
	opened, _ = record(b, fail)
	assert.Equal(t, 1, opened, "five consecutive failures open by default")
}

func TestBreakerReset(t *testing.T) {
	b := New("nats", WithFailureThreshold(1))
	record(b, fail)
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerAllowProbesAfterCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("nats", WithFailureThreshold(1), WithCooldown(time.Second), WithClock(func() time.Time { return now }))

	assert.True(t, b.Allow())
	record(b, fail)
	assert.False(t, b.Allow(), "open breaker rejects within cooldown")

	now = now.Add(time.Second)
	assert.True(t, b.Allow(), "one probe after cooldown")
	assert.False(t, b.Allow(), "second probe waits for next cooldown")
}
