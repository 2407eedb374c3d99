package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	s := NewMemory(logs.GetLoggerFromLevel(slog.LevelDebug))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func nextEvent(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case evt, ok := <-sub.Events():
		require.True(t, ok, "subscription closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		require.FailNow(t, "no event received in time")
	}
	return Event{}
}

func TestDocumentStore_ArrayUnion_AppendsOnce(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	// Given a document with an empty list
	req.NoError(s.Set(ctx, "boards", "b1", Fields{"objects": []any{}}, false))

	// When the same value is union-appended twice and another once
	req.NoError(AppendToArrayField(ctx, s, "boards", "b1", "objects", map[string]any{"id": "a"}))
	req.NoError(AppendToArrayField(ctx, s, "boards", "b1", "objects", map[string]any{"id": "a"}))
	req.NoError(AppendToArrayField(ctx, s, "boards", "b1", "objects", map[string]any{"id": "b"}))

	// Then the list holds each value once, in append order
	doc, err := s.Get(ctx, "boards", "b1")
	req.NoError(err)
	req.Equal([]any{map[string]any{"id": "a"}, map[string]any{"id": "b"}}, doc.Fields["objects"])
}

func TestDocumentStore_Increment_StartsFromZero(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	req.NoError(s.Set(ctx, "sessions", "s1", Fields{"title": "Maths"}, true))
	req.NoError(IncrementField(ctx, s, "sessions", "s1", "participantCount", 1))
	req.NoError(IncrementField(ctx, s, "sessions", "s1", "participantCount", 1))
	req.NoError(IncrementField(ctx, s, "sessions", "s1", "participantCount", -1))

	doc, err := s.Get(ctx, "sessions", "s1")
	req.NoError(err)
	req.Equal(float64(1), doc.Fields["participantCount"])
	req.Equal("Maths", doc.Fields["title"])
}

func TestDocumentStore_PatchArrayElement_KeepsLength(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	req.NoError(s.Set(ctx, "boards", "b1", Fields{"wb.objects": []any{
		map[string]any{"id": "a", "removed": false},
		map[string]any{"id": "b", "removed": false},
	}}, false))

	req.NoError(s.Update(ctx, "boards", "b1", Fields{
		"wb.objects": PatchArrayElement("id", "b", Fields{"removed": true}),
	}))

	doc, err := s.Get(ctx, "boards", "b1")
	req.NoError(err)
	objects := doc.Fields["wb"].(map[string]any)["objects"].([]any)
	req.Len(objects, 2)
	req.Equal(false, objects[0].(map[string]any)["removed"])
	req.Equal(true, objects[1].(map[string]any)["removed"])
}

func TestDocumentStore_Update_MissingDocument(t *testing.T) {
	s := newTestStore(t)

	err := s.Update(context.Background(), "sessions", "nope", Fields{"title": "x"})

	require.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentStore_ServerTimestamp_StrictlyIncreasing(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	frozen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewMemory(slog.Default(), WithClock(func() time.Time { return frozen }))
	defer s.Close()

	// Given a clock that never advances
	req.NoError(s.Set(ctx, "sessions", "s1", Fields{"at": ServerTimestamp()}, false))
	first, err := s.Get(ctx, "sessions", "s1")
	req.NoError(err)
	req.NoError(s.Update(ctx, "sessions", "s1", Fields{"at": ServerTimestamp()}))
	second, err := s.Get(ctx, "sessions", "s1")
	req.NoError(err)

	// Then each write still gets a later instant
	req.True(second.UpdateTime.After(first.UpdateTime))
	req.Greater(second.Fields["at"].(string), first.Fields["at"].(string))
	req.Equal(FormatTimestamp(second.UpdateTime), second.Fields["at"])
}

func TestDocumentStore_SubscribeDocument_DeliversInWriteOrder(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)
	req.NoError(s.Set(ctx, "sessions", "s1", Fields{"n": 0}, false))

	sub, err := s.Subscribe(ctx, Query{Collection: "sessions", DocID: "s1"})
	req.NoError(err)
	defer sub.Close()

	// Then the current state arrives first
	evt := nextEvent(t, sub)
	req.Equal(Added, evt.Type)
	req.Equal(float64(0), evt.Document.Fields["n"])

	// When several writes happen
	for i := 1; i <= 5; i++ {
		req.NoError(s.Update(ctx, "sessions", "s1", Fields{"n": i}))
	}
	req.NoError(s.Set(ctx, "sessions", "other", Fields{"n": 99}, false))
	req.NoError(s.Delete(ctx, "sessions", "s1"))

	// Then they arrive in order and unrelated documents are skipped
	for i := 1; i <= 5; i++ {
		evt = nextEvent(t, sub)
		req.Equal(Modified, evt.Type)
		req.Equal(float64(i), evt.Document.Fields["n"])
	}
	evt = nextEvent(t, sub)
	req.Equal(Removed, evt.Type)
	req.Equal("s1", evt.Document.ID)
}

func TestDocumentStore_SubscribeCollection_BoundedHistoryThenLive(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	for i, id := range []string{"m1", "m2", "m3", "m4"} {
		req.NoError(s.Set(ctx, "chat", id, Fields{"sessionId": "s1", "seq": i, "timestamp": ServerTimestamp()}, false))
	}
	req.NoError(s.Set(ctx, "chat", "x1", Fields{"sessionId": "s2", "timestamp": ServerTimestamp()}, false))

	sub, err := s.Subscribe(ctx, Query{
		Collection:  "chat",
		Where:       []Filter{{Field: "sessionId", Value: "s1"}},
		OrderBy:     "timestamp",
		LimitToLast: 2,
	})
	req.NoError(err)
	defer sub.Close()

	// Then only the two most recent matching documents are replayed
	req.Equal("m3", nextEvent(t, sub).Document.ID)
	req.Equal("m4", nextEvent(t, sub).Document.ID)

	// When new documents are written, matching ones stream live
	req.NoError(s.Set(ctx, "chat", "x2", Fields{"sessionId": "s2"}, false))
	req.NoError(s.Set(ctx, "chat", "m5", Fields{"sessionId": "s1"}, false))
	evt := nextEvent(t, sub)
	req.Equal(Added, evt.Type)
	req.Equal("m5", evt.Document.ID)
}

func TestDocumentStore_Close_EndsSubscriptions(t *testing.T) {
	req := require.New(t)
	s := NewMemory(slog.Default())

	sub, err := s.Subscribe(context.Background(), Query{Collection: "sessions", DocID: "s1"})
	req.NoError(err)

	req.NoError(s.Close())

	_, open := <-sub.Events()
	req.False(open)
	req.ErrorIs(sub.Err(), ErrUnavailable)
	req.ErrorIs(sub.Err(), ErrClosed)
	req.ErrorIs(s.Set(context.Background(), "sessions", "s1", Fields{}, false), ErrUnavailable)
}

func TestDocumentStore_SubscriptionEndsWithContext(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := s.Subscribe(ctx, Query{Collection: "sessions"})
	req.NoError(err)

	cancel()

	select {
	case _, open := <-sub.Events():
		req.False(open)
	case <-time.After(time.Second):
		req.Fail("subscription did not end with its context")
	}
}

func TestDecodeFields_RebuildsTransforms(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)
	req.NoError(s.Set(ctx, "sessions", "s1", Fields{"objects": []any{map[string]any{"id": "a"}}, "count": 1}, false))

	// Given transforms encoded for the wire
	raw, err := json.Marshal(Fields{
		"objects":     ArrayUnion(map[string]any{"id": "b"}),
		"count":       Increment(2),
		"lastUpdated": ServerTimestamp(),
		"title":       "plain",
	})
	req.NoError(err)

	// When decoded and applied
	fields, err := DecodeFields(raw)
	req.NoError(err)
	req.NoError(s.Update(ctx, "sessions", "s1", fields))

	// Then they behave like the originals
	doc, err := s.Get(ctx, "sessions", "s1")
	req.NoError(err)
	req.Len(doc.Fields["objects"], 2)
	req.Equal(float64(3), doc.Fields["count"])
	req.Equal(FormatTimestamp(doc.UpdateTime), doc.Fields["lastUpdated"])
	req.Equal("plain", doc.Fields["title"])
}

func TestDocumentStore_Create_OnlyFirstWins(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	req.NoError(s.Create(ctx, "participants", "p1", Fields{"name": "first"}))
	req.ErrorIs(s.Create(ctx, "participants", "p1", Fields{"name": "second"}), ErrAlreadyExists)

	doc, err := s.Get(ctx, "participants", "p1")
	req.NoError(err)
	req.Equal("first", doc.Fields["name"])
}

func TestDocumentStore_UpdateIfUnchanged_RejectsStaleRead(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	// Given two readers holding the same version
	req.NoError(s.Set(ctx, "participants", "p1", Fields{"active": false}, false))
	read, err := s.Get(ctx, "participants", "p1")
	req.NoError(err)

	// When both write against it, only the first succeeds
	req.NoError(s.UpdateIfUnchanged(ctx, "participants", "p1", read.UpdateTime, Fields{"active": true}))
	req.ErrorIs(s.UpdateIfUnchanged(ctx, "participants", "p1", read.UpdateTime, Fields{"active": true}), ErrConflict)
	req.ErrorIs(s.UpdateIfUnchanged(ctx, "participants", "ghost", read.UpdateTime, Fields{"active": true}), ErrNotFound)
}

func TestDocumentStore_DeleteIfUnchanged_WinsOnce(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	req.NoError(s.Set(ctx, "participants", "p1", Fields{"active": true}, false))
	read, err := s.Get(ctx, "participants", "p1")
	req.NoError(err)

	req.NoError(s.DeleteIfUnchanged(ctx, "participants", "p1", read.UpdateTime))
	req.ErrorIs(s.DeleteIfUnchanged(ctx, "participants", "p1", read.UpdateTime), ErrNotFound)

	// A write after the read also defeats the guard
	req.NoError(s.Set(ctx, "participants", "p2", Fields{"active": true}, false))
	read, err = s.Get(ctx, "participants", "p2")
	req.NoError(err)
	req.NoError(s.Update(ctx, "participants", "p2", Fields{"active": false}))
	req.ErrorIs(s.DeleteIfUnchanged(ctx, "participants", "p2", read.UpdateTime), ErrConflict)
}
