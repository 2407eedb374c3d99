package classroom_test

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"
	"time"

	"liveclass/internal/classroom"
	"liveclass/internal/identity"
	"liveclass/internal/session"
	"liveclass/internal/store"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// slowWrites delays whiteboard appends, as a store under load would
type slowWrites struct {
	*store.DocumentStore
	delay time.Duration
}

func (s slowWrites) Update(ctx context.Context, collection, id string, fields store.Fields) error {
	if _, ok := fields["whiteboard.objects"]; ok && collection == session.CollectionSessions {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.DocumentStore.Update(ctx, collection, id, fields)
}

func Test_Leave_FlushesQueuedStrokes(t *testing.T) {
	req := require.New(t)

	// Given two strokes queued behind a slow append
	s := slowWrites{DocumentStore: newStore(t), delay: 100 * time.Millisecond}
	c := join(t, s, identity.Static{UserID: "A"})
	first := draw(t, c, 0)
	second := draw(t, c, 50)
	req.False(c.Idle())

	// When leaving
	req.NoError(c.Leave(context.Background()))

	// Then both strokes reached the store
	stored := storedIDs(t, s)
	req.True(slices.Contains(stored, first.ID))
	req.True(slices.Contains(stored, second.ID))
	req.True(c.Idle())
	req.Empty(c.Unsynced())
}

func Test_Leave_ExpiredContextKeepsUnwrittenStrokesUnsynced(t *testing.T) {
	req := require.New(t)

	// Given strokes queued behind a very slow append, and a caller who will not wait
	s := slowWrites{DocumentStore: newStore(t), delay: time.Minute}
	c := classroom.New(s, identity.Static{UserID: "A"}, classroom.Options{SessionID: "S1"}, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(c.Join(context.Background()))
	first := draw(t, c, 0)
	second := draw(t, c, 50)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// When leaving
	_ = c.Leave(ctx)

	// Then neither stroke is lost silently
	unsynced := c.Unsynced()
	req.Len(unsynced, 2)
	req.Equal(first.ID, unsynced[0].ID)
	req.Equal(second.ID, unsynced[1].ID)
	req.Len(c.Whiteboard().Visible(), 2)
	req.Equal(2, countCanceledWrites(c))
}

func Test_Submit_AfterLeaveIsHeldUnsynced(t *testing.T) {
	req := require.New(t)
	s := newStore(t)
	c := join(t, s, identity.Static{UserID: "A"})
	req.NoError(c.Leave(context.Background()))

	obj := draw(t, c, 0)

	req.Len(c.Unsynced(), 1)
	req.Equal(obj.ID, c.Unsynced()[0].ID)
	req.True(c.Idle())
}

// countCanceledWrites drains buffered events and counts writes cut short by Leave
func countCanceledWrites(c *classroom.Client) int {
	n := 0
	for {
		select {
		case evt := <-c.Events():
			if evt.Kind == classroom.EventError && errors.Is(evt.Err, context.Canceled) {
				n++
			}
		default:
			return n
		}
	}
}
