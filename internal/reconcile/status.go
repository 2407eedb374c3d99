package reconcile

import (
	"context"
	"slices"
	"time"
)

// SyncReader: read-only view of the protocol for status display
type SyncReader interface {
	LastSyncedAt() time.Time
}

// Status: what the "connection" indicator shows
type Status struct {
	LastSyncedAt time.Time
	Since        time.Duration
	Degraded     []string // channels whose subscription failed
}

// Healthy: no channel is degraded
func (s Status) Healthy() bool {
	return len(s.Degraded) == 0
}

// StatusMonitor ticks independently of the protocol and only reads from it
type StatusMonitor struct {
	sync     SyncReader
	degraded func() []string
	interval time.Duration
	now      func() time.Time
}

func NewStatusMonitor(sync SyncReader, degraded func() []string, interval time.Duration) *StatusMonitor {
	return &StatusMonitor{
		sync:     sync,
		degraded: degraded,
		interval: interval,
		now:      time.Now,
	}
}

// Check computes the current status
func (m *StatusMonitor) Check() Status {
	last := m.sync.LastSyncedAt()
	s := Status{LastSyncedAt: last}
	if !last.IsZero() {
		s.Since = m.now().Sub(last)
	}
	if m.degraded != nil {
		s.Degraded = slices.Sorted(slices.Values(m.degraded()))
	}
	return s
}

// Run emits a status on every tick until ctx is done; the ticker is stopped on return
func (m *StatusMonitor) Run(ctx context.Context, emit func(Status)) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			emit(m.Check())
		}
	}
}
