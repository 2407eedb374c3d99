package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"liveclass/internal/middleware"
	"liveclass/internal/object"
	"liveclass/internal/session"
)

var (
	ErrMessageTooLong = errors.New("chat message too long")
	ErrRateLimited    = errors.New("sending messages too fast")
)

const (
	// DefaultHistoryLimit: messages replayed to a new subscriber
	DefaultHistoryLimit = 50
	SystemAuthorID      = "system"
	SystemAuthorName    = "System"

	// 10 messages per minute per author, burst of 5
	messagesPerSecond = 10.0 / 60.0
	messageBurst      = 5
)

// Channel: append-only ordered messaging scoped to a session
type Channel struct {
	repo    MessageRepository
	limits  middleware.RateLimit
	limiter *middleware.KeyedLimiter
	log     *slog.Logger
}

func NewChannel(repo MessageRepository, limits middleware.RateLimit, log *slog.Logger) *Channel {
	return &Channel{
		repo:    repo,
		limits:  limits,
		limiter: middleware.NewKeyedLimiter(messagesPerSecond, messageBurst),
		log:     log,
	}
}

// Send appends a message with a server-ordered timestamp.
// A body that is empty after trimming and stripping markup is a no-op: (nil, nil).
func (c *Channel) Send(ctx context.Context, sessionID, authorID, authorName, body string) (*session.ChatMessage, error) {
	body = strings.TrimSpace(object.SanitizeString(strings.TrimSpace(body)))
	if body == "" {
		return nil, nil
	}
	if !c.limits.ValidateChatLength(body) {
		return nil, fmt.Errorf("%w: max %d characters", ErrMessageTooLong, c.limits.MaxChatLength)
	}
	if !c.limiter.Allow(sessionID + "/" + authorID) {
		c.log.Warn("Chat message rate limited", "session", sessionID, "user", authorID)
		return nil, ErrRateLimited
	}

	msg := session.ChatMessage{
		SessionID:  sessionID,
		AuthorID:   authorID,
		AuthorName: object.SanitizeString(authorName),
		Body:       body,
	}
	return c.append(ctx, msg)
}

// SendSystem appends a lifecycle notice; not rate limited
func (c *Channel) SendSystem(ctx context.Context, sessionID, body string) (*session.ChatMessage, error) {
	msg := session.ChatMessage{
		SessionID:       sessionID,
		AuthorID:        SystemAuthorID,
		AuthorName:      SystemAuthorName,
		Body:            body,
		IsSystemMessage: true,
	}
	return c.append(ctx, msg)
}

func (c *Channel) append(ctx context.Context, msg session.ChatMessage) (*session.ChatMessage, error) {
	id, err := c.repo.AppendMessage(ctx, msg)
	if err != nil {
		c.log.Error("Failed to append chat message", "session", msg.SessionID, "user", msg.AuthorID, "error", err)
		return nil, fmt.Errorf("append chat message: %w", err)
	}
	msg.ID = id
	return &msg, nil
}

// Subscribe replays at most limit recent messages, then streams new ones.
// A non-positive limit uses DefaultHistoryLimit.
func (c *Channel) Subscribe(ctx context.Context, sessionID string, limit int) (*Stream, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	sub, err := c.repo.WatchMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("subscribe to chat: %w", err)
	}
	return newStream(sub, c.log.With("session", sessionID, "channel", "chat")), nil
}
