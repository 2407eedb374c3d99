package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"liveclass/internal/middleware"
	"liveclass/internal/store"
)

// DocumentHandler: get, create, set, update and delete requests
type DocumentHandler struct {
	store  store.Store
	limits middleware.RateLimit
	log    *slog.Logger
}

func NewDocumentHandler(s store.Store, limits middleware.RateLimit, log *slog.Logger) *DocumentHandler {
	return &DocumentHandler{store: s, limits: limits, log: log}
}

func (h *DocumentHandler) HandleGet(ctx context.Context, p *Peer, req Request) error {
	doc, err := h.store.Get(ctx, req.Collection, req.DocID)
	if err != nil {
		return p.Send(errorResponse(req.ID, err))
	}
	return p.Send(Response{Type: FrameResponse, ID: req.ID, Document: &doc})
}

func (h *DocumentHandler) HandleCreate(ctx context.Context, p *Peer, req Request) error {
	fields, err := h.decodeFields(req)
	if err != nil {
		return p.Send(errorResponse(req.ID, err))
	}
	return h.reply(p, req, h.store.Create(ctx, req.Collection, req.DocID, fields))
}

func (h *DocumentHandler) HandleSet(ctx context.Context, p *Peer, req Request) error {
	fields, err := h.decodeFields(req)
	if err != nil {
		return p.Send(errorResponse(req.ID, err))
	}
	return h.reply(p, req, h.store.Set(ctx, req.Collection, req.DocID, fields, req.Merge))
}

func (h *DocumentHandler) HandleUpdate(ctx context.Context, p *Peer, req Request) error {
	fields, err := h.decodeFields(req)
	if err != nil {
		return p.Send(errorResponse(req.ID, err))
	}
	if req.UpdateTime != nil {
		return h.reply(p, req, h.store.UpdateIfUnchanged(ctx, req.Collection, req.DocID, *req.UpdateTime, fields))
	}
	return h.reply(p, req, h.store.Update(ctx, req.Collection, req.DocID, fields))
}

func (h *DocumentHandler) HandleDelete(ctx context.Context, p *Peer, req Request) error {
	if req.UpdateTime != nil {
		return h.reply(p, req, h.store.DeleteIfUnchanged(ctx, req.Collection, req.DocID, *req.UpdateTime))
	}
	return h.reply(p, req, h.store.Delete(ctx, req.Collection, req.DocID))
}

func (h *DocumentHandler) reply(p *Peer, req Request, err error) error {
	if err != nil {
		h.log.Warn("Store request failed", "op", req.Op, "collection", req.Collection, "doc", req.DocID, "user", p.UserID, "error", err)
		return p.Send(errorResponse(req.ID, err))
	}
	return p.Send(Response{Type: FrameResponse, ID: req.ID})
}

// decodeFields restores transforms and enforces the field complexity limits
func (h *DocumentHandler) decodeFields(req Request) (store.Fields, error) {
	if len(req.Fields) == 0 {
		return nil, fmt.Errorf("%w: fields missing", ErrInvalidArgument)
	}
	var raw map[string]any
	if err := json.Unmarshal(req.Fields, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if err := h.limits.ValidateFieldComplexity(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	fields, err := store.DecodeFields(req.Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return fields, nil
}
