package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"liveclass/internal/object"
	"liveclass/internal/session"
	"liveclass/internal/store"
)

var ErrNotJoined = errors.New("participant has not joined the session")

// Channel tracks who is in a session and their status flags.
// Every lifecycle change is announced in the session chat; announcements are best-effort.
type Channel struct {
	repo     ParticipantRepository
	announce Announcer
	log      *slog.Logger
}

func NewChannel(repo ParticipantRepository, announce Announcer, log *slog.Logger) *Channel {
	return &Channel{repo: repo, announce: announce, log: log}
}

// attempts bounds how often a join or leave re-reads a record that changed under it
const attempts = 5

// Join upserts the participant. Re-joining while active changes nothing but the name
// and presenter flag; re-joining after MarkInactive reactivates the record.
// The session count only moves for the caller whose write took the participant from
// absent or inactive to active; concurrent joins of one user count once.
func (c *Channel) Join(ctx context.Context, sessionID, userID, displayName string, isPresenter bool) error {
	displayName = object.SanitizeString(displayName)

	activated, err := c.activate(ctx, session.Participant{
		SessionID:   sessionID,
		UserID:      userID,
		DisplayName: displayName,
		IsPresenter: isPresenter,
		Active:      true,
	})
	if err != nil {
		return fmt.Errorf("join %s: %w", sessionID, err)
	}
	if !activated {
		return nil
	}

	if err := c.repo.AdjustParticipantCount(ctx, sessionID, 1); err != nil {
		// an uncounted record must not look active
		if rbErr := c.repo.UpdateParticipant(ctx, sessionID, userID, store.Fields{"active": false}); rbErr != nil {
			c.log.Error("Failed to roll back join", "session", sessionID, "user", userID, "error", rbErr)
		}
		return fmt.Errorf("count participant: %w", err)
	}
	c.log.Info("Participant joined", "session", sessionID, "user", userID)
	c.notify(ctx, sessionID, fmt.Sprintf("%s joined the session", displayName))
	return nil
}

// activate writes p as active and reports whether this call made it active
func (c *Channel) activate(ctx context.Context, p session.Participant) (bool, error) {
	for range attempts {
		existing, exists, err := c.repo.GetParticipant(ctx, p.SessionID, p.UserID)
		if err != nil {
			return false, err
		}

		if !exists {
			err := c.repo.CreateParticipant(ctx, p)
			if errors.Is(err, store.ErrAlreadyExists) {
				continue
			}
			return err == nil, err
		}
		if existing.Active && existing.DisplayName == p.DisplayName && existing.IsPresenter == p.IsPresenter {
			return false, nil
		}

		err = c.repo.UpdateParticipantIfUnchanged(ctx, existing, store.Fields{
			"displayName": p.DisplayName,
			"isPresenter": p.IsPresenter,
			"active":      true,
		})
		if isStale(err) {
			continue
		}
		return err == nil && !existing.Active, err
	}
	return false, fmt.Errorf("%w: participant %s kept changing", store.ErrConflict, p.UserID)
}

// Leave removes the participant record. Leaving twice is a no-op, and of
// concurrent leaves only the one whose delete lands uncounts the participant.
func (c *Channel) Leave(ctx context.Context, sessionID, userID string) error {
	for range attempts {
		p, exists, err := c.repo.GetParticipant(ctx, sessionID, userID)
		if err != nil {
			return fmt.Errorf("leave %s: %w", sessionID, err)
		}
		if !exists {
			return nil
		}

		err = c.repo.DeleteParticipantIfUnchanged(ctx, p)
		if isStale(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("leave %s: %w", sessionID, err)
		}
		if p.Active {
			if err := c.repo.AdjustParticipantCount(ctx, sessionID, -1); err != nil {
				return fmt.Errorf("uncount participant: %w", err)
			}
		}
		c.log.Info("Participant left", "session", sessionID, "user", userID)
		c.notify(ctx, sessionID, fmt.Sprintf("%s left the session", p.DisplayName))
		return nil
	}
	return fmt.Errorf("leave %s: %w: participant %s kept changing", sessionID, store.ErrConflict, userID)
}

// MarkInactive flags a participant whose connection dropped without a leave.
// The record stays so a reconnect keeps its join time.
func (c *Channel) MarkInactive(ctx context.Context, sessionID, userID string) error {
	for range attempts {
		p, exists, err := c.repo.GetParticipant(ctx, sessionID, userID)
		if err != nil {
			return fmt.Errorf("mark inactive: %w", err)
		}
		if !exists || !p.Active {
			return nil
		}

		err = c.repo.UpdateParticipantIfUnchanged(ctx, p, store.Fields{"active": false})
		if isStale(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("mark inactive: %w", err)
		}
		if err := c.repo.AdjustParticipantCount(ctx, sessionID, -1); err != nil {
			return fmt.Errorf("uncount participant: %w", err)
		}
		c.log.Info("Participant disconnected", "session", sessionID, "user", userID)
		return nil
	}
	return fmt.Errorf("mark inactive: %w: participant %s kept changing", store.ErrConflict, userID)
}

// isStale reports a conditional write that lost to a concurrent change
func isStale(err error) bool {
	return errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound)
}

func (c *Channel) SetMic(ctx context.Context, sessionID, userID string, enabled bool) error {
	p, err := c.participant(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if err := c.repo.UpdateParticipant(ctx, sessionID, userID, store.Fields{"micEnabled": enabled}); err != nil {
		return fmt.Errorf("set mic: %w", err)
	}

	state := "off"
	if enabled {
		state = "on"
	}
	c.notify(ctx, sessionID, fmt.Sprintf("%s turned their microphone %s", p.DisplayName, state))
	return nil
}

// ToggleHand flips the raised-hand flag and returns the new value
func (c *Channel) ToggleHand(ctx context.Context, sessionID, userID string) (bool, error) {
	p, err := c.participant(ctx, sessionID, userID)
	if err != nil {
		return false, err
	}
	raised := !p.HandRaised
	if err := c.repo.UpdateParticipant(ctx, sessionID, userID, store.Fields{"handRaised": raised}); err != nil {
		return p.HandRaised, fmt.Errorf("toggle hand: %w", err)
	}

	action := "lowered"
	if raised {
		action = "raised"
	}
	c.notify(ctx, sessionID, fmt.Sprintf("%s %s their hand", p.DisplayName, action))
	return raised, nil
}

// Watch streams roster changes, starting with the current participants in join order
func (c *Channel) Watch(ctx context.Context, sessionID string) (store.Subscription, error) {
	sub, err := c.repo.WatchParticipants(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("subscribe to roster: %w", err)
	}
	return sub, nil
}

func (c *Channel) participant(ctx context.Context, sessionID, userID string) (session.Participant, error) {
	p, exists, err := c.repo.GetParticipant(ctx, sessionID, userID)
	if err != nil {
		return session.Participant{}, err
	}
	if !exists {
		return session.Participant{}, fmt.Errorf("%w: %s", ErrNotJoined, userID)
	}
	return p, nil
}

func (c *Channel) notify(ctx context.Context, sessionID, body string) {
	if c.announce == nil {
		return
	}
	if _, err := c.announce.SendSystem(ctx, sessionID, body); err != nil {
		c.log.Warn("Failed to post system message", "session", sessionID, "error", err)
	}
}
