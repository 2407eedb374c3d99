package presence_test

import (
	"context"
	"testing"
	"time"

	"liveclass/internal/presence"
	"liveclass/internal/session"
	"liveclass/internal/store"

	"github.com/stretchr/testify/require"
)

func participantEvent(typ store.EventType, userID string, joined time.Time, hand bool) store.Event {
	return store.Event{Type: typ, Document: store.Document{
		Collection: session.CollectionParticipants,
		ID:         session.ParticipantID("S1", userID),
		Fields: store.Fields{
			"sessionId":   "S1",
			"userId":      userID,
			"displayName": userID,
			"active":      true,
			"handRaised":  hand,
			"joinedAt":    store.FormatTimestamp(joined),
		},
	}}
}

func Test_Roster_OrdersByJoinTimeWithStableColours(t *testing.T) {
	req := require.New(t)
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	// Given participants arriving out of order
	r := presence.NewRoster()
	req.NoError(r.Apply(participantEvent(store.Added, "late", t0.Add(time.Minute), false)))
	req.NoError(r.Apply(participantEvent(store.Added, "early", t0, true)))

	// Then the roster is in join order
	entries := r.Entries()
	req.Len(entries, 2)
	req.Equal("early", entries[0].UserID)
	req.Equal("late", entries[1].UserID)
	req.NotEqual(entries[0].Color, entries[1].Color)

	// When someone leaves and their neighbour is modified, colours stay put
	color := entries[1].Color
	req.NoError(r.Apply(participantEvent(store.Removed, "early", t0, true)))
	req.NoError(r.Apply(participantEvent(store.Modified, "late", t0.Add(time.Minute), true)))
	entries = r.Entries()
	req.Len(entries, 1)
	req.Equal(color, entries[0].Color)
	req.Len(r.RaisedHands(), 1)
	req.Equal(1, r.ActiveCount())
}

func Test_Roster_FollowsStoreSubscription(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given two joined participants
	f := newFixture(t)
	req.NoError(f.channel.Join(ctx, "S1", "teacher-1", "Ada", true))
	req.NoError(f.channel.Join(ctx, "S1", "u1", "Sam", false))

	// When a roster view consumes the subscription
	sub, err := f.channel.Watch(ctx, "S1")
	req.NoError(err)
	defer sub.Close()
	r := presence.NewRoster()
	go func() {
		for evt := range sub.Events() {
			_ = r.Apply(evt)
		}
	}()

	// Then it sees both, then the departure
	req.Eventually(func() bool { return len(r.Entries()) == 2 }, time.Second, 5*time.Millisecond)
	req.Equal("teacher-1", r.Entries()[0].UserID)
	req.NoError(f.channel.Leave(ctx, "S1", "teacher-1"))
	req.Eventually(func() bool { return len(r.Entries()) == 1 }, time.Second, 5*time.Millisecond)
}

func Test_ColorGenerator_IsStablePerUser(t *testing.T) {
	req := require.New(t)

	cg := presence.NewColorGenerator()

	first := cg.ColorFor("a")
	req.Equal(first, cg.ColorFor("a"))
	req.NotEqual(first, cg.ColorFor("b"))
	req.Regexp(`^#[0-9a-f]{6}$`, first)
}
