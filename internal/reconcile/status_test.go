package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedSync time.Time

func (f fixedSync) LastSyncedAt() time.Time { return time.Time(f) }

func Test_StatusMonitor_Check(t *testing.T) {
	req := require.New(t)

	// Given a last sync 30s ago and a degraded chat channel
	now := time.Date(2026, 3, 2, 10, 0, 30, 0, time.UTC)
	m := NewStatusMonitor(fixedSync(now.Add(-30*time.Second)), func() []string { return []string{"roster", "chat"} }, time.Second)
	m.now = func() time.Time { return now }

	// When checking
	s := m.Check()

	// Then age and degraded channels are reported
	req.Equal(30*time.Second, s.Since)
	req.Equal([]string{"chat", "roster"}, s.Degraded)
	req.False(s.Healthy())
}

func Test_StatusMonitor_NeverSynced(t *testing.T) {
	req := require.New(t)

	m := NewStatusMonitor(fixedSync(time.Time{}), nil, time.Second)

	s := m.Check()

	req.Zero(s.Since)
	req.True(s.Healthy())
}

func Test_StatusMonitor_RunStopsWithContext(t *testing.T) {
	req := require.New(t)

	// Given a fast ticking monitor
	m := NewStatusMonitor(fixedSync(time.Now()), nil, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan Status, 100)
	done := make(chan struct{})

	// When it runs until cancelled
	go func() {
		m.Run(ctx, func(s Status) { ticks <- s })
		close(done)
	}()
	req.Eventually(func() bool { return len(ticks) > 0 }, time.Second, time.Millisecond)
	cancel()

	// Then Run returns
	req.Eventually(func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}
