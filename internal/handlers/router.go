package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"liveclass/internal/middleware"
	"liveclass/internal/store"
)

// MessageRouter routes incoming request frames to the appropriate handler
type MessageRouter struct {
	documentHandler     *DocumentHandler
	subscriptionHandler *SubscriptionHandler
}

func NewMessageRouter(s store.Store, limits middleware.RateLimit, log *slog.Logger) *MessageRouter {
	return &MessageRouter{
		documentHandler:     NewDocumentHandler(s, limits, log),
		subscriptionHandler: NewSubscriptionHandler(s, log),
	}
}

// Route: process a frame via appropriate handler.
// Malformed frames return an error; failed store operations are answered on the connection.
func (mr *MessageRouter) Route(ctx context.Context, p *Peer, msg []byte) error {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return fmt.Errorf("unmarshal request: %w", err)
	}
	if req.Type != FrameRequest {
		return fmt.Errorf("unexpected frame type: %q", req.Type)
	}

	switch req.Op {
	case OpGet:
		return mr.documentHandler.HandleGet(ctx, p, req)
	case OpCreate:
		return mr.documentHandler.HandleCreate(ctx, p, req)
	case OpSet:
		return mr.documentHandler.HandleSet(ctx, p, req)
	case OpUpdate:
		return mr.documentHandler.HandleUpdate(ctx, p, req)
	case OpDelete:
		return mr.documentHandler.HandleDelete(ctx, p, req)
	case OpSubscribe:
		return mr.subscriptionHandler.HandleSubscribe(p, req)
	case OpUnsubscribe:
		return mr.subscriptionHandler.HandleUnsubscribe(p, req)
	default:
		err := fmt.Errorf("%w: unknown op %q", ErrInvalidArgument, req.Op)
		if sendErr := p.Send(errorResponse(req.ID, err)); sendErr != nil {
			return sendErr
		}
		return err
	}
}
