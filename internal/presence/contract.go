//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../../mocks/mock_presence.go -package=mocks

package presence

import (
	"context"

	"liveclass/internal/session"
	"liveclass/internal/store"
)

// ParticipantRepository: roster access, implemented by session.Repository
type ParticipantRepository interface {
	GetParticipant(ctx context.Context, sessionID, userID string) (session.Participant, bool, error)
	CreateParticipant(ctx context.Context, p session.Participant) error
	UpdateParticipant(ctx context.Context, sessionID, userID string, fields store.Fields) error
	UpdateParticipantIfUnchanged(ctx context.Context, p session.Participant, fields store.Fields) error
	DeleteParticipantIfUnchanged(ctx context.Context, p session.Participant) error
	AdjustParticipantCount(ctx context.Context, sessionID string, delta int64) error
	WatchParticipants(ctx context.Context, sessionID string) (store.Subscription, error)
}

// Announcer posts lifecycle notices to the session chat, implemented by chat.Channel
type Announcer interface {
	SendSystem(ctx context.Context, sessionID, body string) (*session.ChatMessage, error)
}
