//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../../mocks/mock_chat.go -package=mocks

package chat

import (
	"context"

	"liveclass/internal/session"
	"liveclass/internal/store"
)

// MessageRepository: chat log access, implemented by session.Repository
type MessageRepository interface {
	AppendMessage(ctx context.Context, msg session.ChatMessage) (string, error)
	WatchMessages(ctx context.Context, sessionID string, limit int) (store.Subscription, error)
}
