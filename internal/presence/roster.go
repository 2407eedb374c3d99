package presence

import (
	"cmp"
	"slices"
	"sync"

	"liveclass/internal/session"
	"liveclass/internal/store"

	"github.com/samber/lo"
)

// Entry: one roster line
type Entry struct {
	session.Participant
	Color string
}

// Roster: local view of a session's participants, fed by roster subscription events
type Roster struct {
	participants map[string]session.Participant
	colors       *ColorGenerator
	mu           sync.RWMutex
}

func NewRoster() *Roster {
	return &Roster{
		participants: make(map[string]session.Participant),
		colors:       NewColorGenerator(),
	}
}

// Apply folds one change event into the view
func (r *Roster) Apply(evt store.Event) error {
	p, err := session.DecodeParticipant(evt.Document)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if evt.Type == store.Removed {
		delete(r.participants, p.UserID)
		return nil
	}
	r.participants[p.UserID] = p
	return nil
}

// Entries: participants in join order
func (r *Roster) Entries() []Entry {
	r.mu.RLock()
	participants := lo.Values(r.participants)
	r.mu.RUnlock()

	slices.SortFunc(participants, func(a, b session.Participant) int {
		return cmp.Or(a.JoinedAt.Compare(b.JoinedAt), cmp.Compare(a.UserID, b.UserID))
	})
	return lo.Map(participants, func(p session.Participant, _ int) Entry {
		return Entry{Participant: p, Color: r.colors.ColorFor(p.UserID)}
	})
}

// ActiveCount: participants currently connected
func (r *Roster) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.CountBy(lo.Values(r.participants), func(p session.Participant) bool { return p.Active })
}

// RaisedHands: participants waiting to speak, in join order
func (r *Roster) RaisedHands() []Entry {
	return lo.Filter(r.Entries(), func(e Entry, _ int) bool { return e.HandRaised })
}
