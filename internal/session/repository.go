package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"liveclass/internal/object"
	"liveclass/internal/store"

	"github.com/google/uuid"
)

// Repository: typed access to the shared live-session collections.
// Whiteboard writes only use atomic transforms (append, patch, replace-with-empty),
// never a read-modify-write of the object list.
type Repository struct {
	store store.Store
	log   *slog.Logger
}

func NewRepository(s store.Store, log *slog.Logger) *Repository {
	return &Repository{store: s, log: log}
}

// EnsureSession returns the session, creating it on first join.
// Creation merges metadata only, so a concurrent creator cannot wipe the whiteboard.
func (r *Repository) EnsureSession(ctx context.Context, id, title, createdBy string) (Session, error) {
	s, err := r.GetSession(ctx, id)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return Session{}, err
	}

	err = r.store.Set(ctx, CollectionSessions, id, store.Fields{
		"id":        id,
		"title":     title,
		"isActive":  true,
		"createdBy": createdBy,
	}, true)
	if err != nil {
		return Session{}, fmt.Errorf("create session %s: %w", id, err)
	}
	r.log.Info("Session created", "session", id, "user", createdBy)
	return r.GetSession(ctx, id)
}

func (r *Repository) GetSession(ctx context.Context, id string) (Session, error) {
	doc, err := r.store.Get(ctx, CollectionSessions, id)
	if err != nil {
		return Session{}, err
	}
	return DecodeSession(doc)
}

// AppendObject union-appends obj and stamps lastUpdated in the same write
func (r *Repository) AppendObject(ctx context.Context, sessionID string, obj object.Object, by string) error {
	return r.store.Update(ctx, CollectionSessions, sessionID, store.Fields{
		"whiteboard.objects":       store.ArrayUnion(obj),
		"whiteboard.lastUpdated":   store.ServerTimestamp(),
		"whiteboard.lastUpdatedBy": by,
	})
}

// MarkObjectRemoved flags the object removed in place; the list length is unchanged
func (r *Repository) MarkObjectRemoved(ctx context.Context, sessionID, objectID, by string) error {
	return r.store.Update(ctx, CollectionSessions, sessionID, store.Fields{
		"whiteboard.objects":       store.PatchArrayElement("id", objectID, store.Fields{"removed": true}),
		"whiteboard.lastUpdated":   store.ServerTimestamp(),
		"whiteboard.lastUpdatedBy": by,
	})
}

// ClearWhiteboard replaces the object list with an empty one
func (r *Repository) ClearWhiteboard(ctx context.Context, sessionID, by string) error {
	return r.store.Update(ctx, CollectionSessions, sessionID, store.Fields{
		"whiteboard.objects":       []any{},
		"whiteboard.lastUpdated":   store.ServerTimestamp(),
		"whiteboard.lastUpdatedBy": by,
	})
}

// SetWhiteboardLocked stamps lastUpdated too, so the lock state fans out as a newer snapshot
func (r *Repository) SetWhiteboardLocked(ctx context.Context, sessionID string, locked bool, by string) error {
	return r.store.Update(ctx, CollectionSessions, sessionID, store.Fields{
		"whiteboardLocked":         locked,
		"whiteboard.lastUpdated":   store.ServerTimestamp(),
		"whiteboard.lastUpdatedBy": by,
	})
}

func (r *Repository) AdjustParticipantCount(ctx context.Context, sessionID string, delta int64) error {
	return store.IncrementField(ctx, r.store, CollectionSessions, sessionID, "participantCount", delta)
}

func (r *Repository) WatchSession(ctx context.Context, sessionID string) (store.Subscription, error) {
	return r.store.Subscribe(ctx, store.Query{Collection: CollectionSessions, DocID: sessionID})
}

// GetParticipant reports whether the participant record exists
func (r *Repository) GetParticipant(ctx context.Context, sessionID, userID string) (Participant, bool, error) {
	doc, err := r.store.Get(ctx, CollectionParticipants, ParticipantID(sessionID, userID))
	if errors.Is(err, store.ErrNotFound) {
		return Participant{}, false, nil
	}
	if err != nil {
		return Participant{}, false, err
	}
	p, err := DecodeParticipant(doc)
	return p, err == nil, err
}

// CreateParticipant writes a whole participant record unless one exists;
// joinedAt is the server instant. A second create fails with store.ErrAlreadyExists.
func (r *Repository) CreateParticipant(ctx context.Context, p Participant) error {
	return r.store.Create(ctx, CollectionParticipants, ParticipantID(p.SessionID, p.UserID), store.Fields{
		"sessionId":   p.SessionID,
		"userId":      p.UserID,
		"displayName": p.DisplayName,
		"isPresenter": p.IsPresenter,
		"micEnabled":  p.MicEnabled,
		"handRaised":  p.HandRaised,
		"joinedAt":    store.ServerTimestamp(),
		"active":      p.Active,
	})
}

// UpdateParticipant changes status flags of an existing record
func (r *Repository) UpdateParticipant(ctx context.Context, sessionID, userID string, fields store.Fields) error {
	return r.store.Update(ctx, CollectionParticipants, ParticipantID(sessionID, userID), fields)
}

// UpdateParticipantIfUnchanged applies fields only if the record is still the version p was read at
func (r *Repository) UpdateParticipantIfUnchanged(ctx context.Context, p Participant, fields store.Fields) error {
	return r.store.UpdateIfUnchanged(ctx, CollectionParticipants, ParticipantID(p.SessionID, p.UserID), p.UpdatedAt, fields)
}

// DeleteParticipantIfUnchanged removes the record only if it is still the version p was read at
func (r *Repository) DeleteParticipantIfUnchanged(ctx context.Context, p Participant) error {
	return r.store.DeleteIfUnchanged(ctx, CollectionParticipants, ParticipantID(p.SessionID, p.UserID), p.UpdatedAt)
}

func (r *Repository) WatchParticipants(ctx context.Context, sessionID string) (store.Subscription, error) {
	return r.store.Subscribe(ctx, store.Query{
		Collection: CollectionParticipants,
		Where:      []store.Filter{{Field: "sessionId", Value: sessionID}},
		OrderBy:    "joinedAt",
	})
}

// AppendMessage stores msg under a fresh id with a server-ordered timestamp
func (r *Repository) AppendMessage(ctx context.Context, msg ChatMessage) (string, error) {
	id := uuid.NewString()
	err := r.store.Set(ctx, CollectionMessages, id, store.Fields{
		"id":              id,
		"sessionId":       msg.SessionID,
		"authorId":        msg.AuthorID,
		"authorName":      msg.AuthorName,
		"body":            msg.Body,
		"timestamp":       store.ServerTimestamp(),
		"isSystemMessage": msg.IsSystemMessage,
	}, false)
	if err != nil {
		return "", err
	}
	return id, nil
}

// WatchMessages replays the last limit messages, then streams new ones
func (r *Repository) WatchMessages(ctx context.Context, sessionID string, limit int) (store.Subscription, error) {
	return r.store.Subscribe(ctx, store.Query{
		Collection:  CollectionMessages,
		Where:       []store.Filter{{Field: "sessionId", Value: sessionID}},
		OrderBy:     "timestamp",
		LimitToLast: limit,
	})
}

func DecodeSession(doc store.Document) (Session, error) {
	var s Session
	if err := doc.Decode(&s); err != nil {
		return Session{}, err
	}
	if s.ID == "" {
		s.ID = doc.ID
	}
	return s, nil
}

func DecodeParticipant(doc store.Document) (Participant, error) {
	var p Participant
	err := doc.Decode(&p)
	p.UpdatedAt = doc.UpdateTime
	return p, err
}

func DecodeMessage(doc store.Document) (ChatMessage, error) {
	var m ChatMessage
	if err := doc.Decode(&m); err != nil {
		return ChatMessage{}, err
	}
	if m.ID == "" {
		m.ID = doc.ID
	}
	return m, nil
}
