package handlers

import (
	"fmt"
	"log/slog"

	"liveclass/internal/store"
)

// SubscriptionHandler: subscribe and unsubscribe requests.
// Events are forwarded on the connection until the subscription or the connection ends.
type SubscriptionHandler struct {
	store store.Store
	log   *slog.Logger
}

func NewSubscriptionHandler(s store.Store, log *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{store: s, log: log}
}

func (h *SubscriptionHandler) HandleSubscribe(p *Peer, req Request) error {
	if req.Query == nil {
		return p.Send(errorResponse(req.ID, fmt.Errorf("%w: query missing", ErrInvalidArgument)))
	}

	sub, err := h.store.Subscribe(p.ctx, *req.Query)
	if err != nil {
		return p.Send(errorResponse(req.ID, err))
	}
	if !p.track(req.ID, sub) {
		sub.Close()
		return p.Send(errorResponse(req.ID, fmt.Errorf("%w: subscription %d already open", ErrInvalidArgument, req.ID)))
	}
	if err := p.Send(Response{Type: FrameResponse, ID: req.ID}); err != nil {
		return err
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		h.forward(p, req.ID, sub)
	}()
	return nil
}

func (h *SubscriptionHandler) HandleUnsubscribe(p *Peer, req Request) error {
	if sub, ok := p.untrack(req.Subscription); ok {
		sub.Close()
	}
	return p.Send(Response{Type: FrameResponse, ID: req.ID})
}

// forward relays events, then tells the client why the subscription ended
func (h *SubscriptionHandler) forward(p *Peer, id uint64, sub store.Subscription) {
	for evt := range sub.Events() {
		if err := p.Send(EventFrame{Type: FrameEvent, Subscription: id, Event: &evt}); err != nil {
			h.log.Debug("Stopped forwarding subscription", "user", p.UserID, "subscription", id, "error", err)
			sub.Close()
			return
		}
	}

	p.untrack(id)
	if p.ctx.Err() != nil {
		return
	}
	end := EventFrame{Type: FrameEvent, Subscription: id, End: true}
	if err := sub.Err(); err != nil {
		end.Error = ErrorCode(err)
		end.Message = err.Error()
	}
	_ = p.Send(end)
}
