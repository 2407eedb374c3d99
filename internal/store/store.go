//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../../mocks/mock_store.go -package=mocks
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable: backend or network failure on read or write
	ErrUnavailable = errors.New("store unavailable")
	ErrNotFound    = errors.New("document not found")
	ErrClosed      = errors.New("store closed")

	// ErrAlreadyExists: Create found a document under the id
	ErrAlreadyExists = errors.New("document already exists")
	// ErrConflict: the document changed since the update time a conditional write was based on
	ErrConflict      = errors.New("document changed since read")
)

// Fields: document body. Values are JSON-compatible or Transforms.
// Keys passed to Set and Update may be dotted paths ("whiteboard.objects").
type Fields map[string]any

// Document is one stored record as returned to callers
type Document struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Fields     Fields    `json:"fields"`
	UpdateTime time.Time `json:"updateTime"`
}

// Decode converts the document body into a typed struct using JSON tags
func (d Document) Decode(target any) error {
	raw, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s/%s: %w", d.Collection, d.ID, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode document %s/%s: %w", d.Collection, d.ID, err)
	}
	return nil
}

type EventType string

const (
	Added    EventType = "added"
	Modified EventType = "modified"
	Removed  EventType = "removed"
)

// Event: one change delivered to a subscriber. Removed events carry the last known document.
type Event struct {
	Type     EventType `json:"type"`
	Document Document  `json:"document"`
}

// Filter: equality match on a (possibly dotted) field
type Filter struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// Query describes what a subscription watches. DocID selects a single document;
// otherwise every document of Collection matching all Where filters is watched.
// OrderBy and LimitToLast only shape the initial snapshot.
type Query struct {
	Collection  string   `json:"collection"`
	DocID       string   `json:"docId,omitempty"`
	Where       []Filter `json:"where,omitempty"`
	OrderBy     string   `json:"orderBy,omitempty"`
	LimitToLast int      `json:"limitToLast,omitempty"`
}

// Subscription is a lazy, infinite sequence of change events in store write order.
// Events is closed when the subscription ends; Err then reports a backend failure,
// or nil when ended by Close or context cancellation. Re-subscribe to restart.
type Subscription interface {
	Events() <-chan Event
	Err() error
	Close()
}

// Store is the shared document database every participant reads and writes
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Set(ctx context.Context, collection, id string, fields Fields, merge bool) error
	Update(ctx context.Context, collection, id string, fields Fields) error
	Delete(ctx context.Context, collection, id string) error
	// Create writes fields only when no document exists under id
	Create(ctx context.Context, collection, id string, fields Fields) error
	// UpdateIfUnchanged is Update guarded by the UpdateTime the caller last read
	UpdateIfUnchanged(ctx context.Context, collection, id string, updateTime time.Time, fields Fields) error
	// DeleteIfUnchanged is Delete guarded by the UpdateTime the caller last read
	DeleteIfUnchanged(ctx context.Context, collection, id string, updateTime time.Time) error
	Subscribe(ctx context.Context, q Query) (Subscription, error)
}

// AppendToArrayField atomically union-appends value to an array field
func AppendToArrayField(ctx context.Context, s Store, collection, id, field string, value any) error {
	return s.Update(ctx, collection, id, Fields{field: ArrayUnion(value)})
}

// IncrementField atomically adds delta to a numeric field
func IncrementField(ctx context.Context, s Store, collection, id, field string, delta int64) error {
	return s.Update(ctx, collection, id, Fields{field: Increment(delta)})
}
