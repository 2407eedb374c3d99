package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// record is the persisted form of a document
type record struct {
	Collection string         `json:"collection"`
	ID         string         `json:"id"`
	Fields     map[string]any `json:"fields"`
	UpdateTime time.Time      `json:"updateTime"`
}

func (r record) document() Document {
	return Document{
		Collection: r.Collection,
		ID:         r.ID,
		Fields:     copyFields(r.Fields),
		UpdateTime: r.UpdateTime,
	}
}

// backend: raw record persistence under a DocumentStore
type backend interface {
	load(collection, id string) (record, bool, error)
	save(rec record) error
	remove(collection, id string) error
	scan(collection string) ([]record, error)
	close() error
}

// DocumentStore implements Store over a backend. Writes are serialized, so
// array unions, increments and patches never race, and change events leave
// in write order.
type DocumentStore struct {
	backend backend
	clock   *Clock
	broker  *broker
	log     *slog.Logger
	closed  bool
	mu      sync.Mutex
}

type Option func(*DocumentStore)

// WithClock replaces the wall clock used for server timestamps
func WithClock(now func() time.Time) Option {
	return func(s *DocumentStore) {
		s.clock = NewClock(now)
	}
}

func newDocumentStore(b backend, log *slog.Logger, opts ...Option) *DocumentStore {
	s := &DocumentStore{
		backend: b,
		clock:   NewClock(nil),
		broker:  newBroker(),
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Document{}, fmt.Errorf("%w: %w", ErrUnavailable, ErrClosed)
	}
	rec, ok, err := s.backend.load(collection, id)
	if err != nil {
		return Document{}, fmt.Errorf("%w: load %s/%s: %w", ErrUnavailable, collection, id, err)
	}
	if !ok {
		return Document{}, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return rec.document(), nil
}

// precondition rejects a write from the stored record; nil accepts any
type precondition func(before record, exists bool) error

func unchangedSince(updateTime time.Time) precondition {
	return func(before record, exists bool) error {
		if !exists {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, before.Collection, before.ID)
		}
		if !before.UpdateTime.Equal(updateTime) {
			return fmt.Errorf("%w: %s/%s", ErrConflict, before.Collection, before.ID)
		}
		return nil
	}
}

func (s *DocumentStore) Set(ctx context.Context, collection, id string, fields Fields, merge bool) error {
	return s.write(ctx, collection, id, nil, func(current map[string]any, exists bool) (map[string]any, error) {
		next := make(map[string]any)
		if merge && exists {
			next = current
		}
		return next, nil
	}, fields)
}

func (s *DocumentStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	return s.write(ctx, collection, id, nil, func(current map[string]any, exists bool) (map[string]any, error) {
		if !exists {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
		}
		return current, nil
	}, fields)
}

func (s *DocumentStore) Create(ctx context.Context, collection, id string, fields Fields) error {
	absent := func(_ record, exists bool) error {
		if exists {
			return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, collection, id)
		}
		return nil
	}
	return s.write(ctx, collection, id, absent, func(map[string]any, bool) (map[string]any, error) {
		return make(map[string]any), nil
	}, fields)
}

func (s *DocumentStore) UpdateIfUnchanged(ctx context.Context, collection, id string, updateTime time.Time, fields Fields) error {
	return s.write(ctx, collection, id, unchangedSince(updateTime), func(current map[string]any, _ bool) (map[string]any, error) {
		return current, nil
	}, fields)
}

// write loads, transforms and saves one document under the store lock, then publishes the change
func (s *DocumentStore) write(
	ctx context.Context,
	collection, id string,
	pre precondition,
	base func(current map[string]any, exists bool) (map[string]any, error),
	fields Fields,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(collection, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%w: %w", ErrUnavailable, ErrClosed)
	}

	before, exists, err := s.backend.load(collection, id)
	if err != nil {
		return fmt.Errorf("%w: load %s/%s: %w", ErrUnavailable, collection, id, err)
	}
	if pre != nil {
		if !exists {
			before = record{Collection: collection, ID: id}
		}
		if err := pre(before, exists); err != nil {
			return err
		}
	}

	var current map[string]any
	if exists {
		current = copyFields(before.Fields)
	}
	next, err := base(current, exists)
	if err != nil {
		return err
	}

	now := s.clock.Next()
	if err := applyFields(next, fields, FormatTimestamp(now)); err != nil {
		return fmt.Errorf("write %s/%s: %w", collection, id, err)
	}

	after := record{Collection: collection, ID: id, Fields: next, UpdateTime: now}
	if err := s.backend.save(after); err != nil {
		return fmt.Errorf("%w: save %s/%s: %w", ErrUnavailable, collection, id, err)
	}

	var prev *record
	if exists {
		prev = &before
	}
	s.broker.publish(collection, id, prev, &after)
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	return s.remove(ctx, collection, id, nil)
}

func (s *DocumentStore) DeleteIfUnchanged(ctx context.Context, collection, id string, updateTime time.Time) error {
	return s.remove(ctx, collection, id, unchangedSince(updateTime))
}

// remove deletes one document under the store lock; a missing document is only an error under pre
func (s *DocumentStore) remove(ctx context.Context, collection, id string, pre precondition) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%w: %w", ErrUnavailable, ErrClosed)
	}
	before, exists, err := s.backend.load(collection, id)
	if err != nil {
		return fmt.Errorf("%w: load %s/%s: %w", ErrUnavailable, collection, id, err)
	}
	if pre != nil {
		if !exists {
			before = record{Collection: collection, ID: id}
		}
		if err := pre(before, exists); err != nil {
			return err
		}
	}
	if !exists {
		return nil
	}
	if err := s.backend.remove(collection, id); err != nil {
		return fmt.Errorf("%w: remove %s/%s: %w", ErrUnavailable, collection, id, err)
	}
	s.broker.publish(collection, id, &before, nil)
	return nil
}

// Subscribe primes the subscription with the current matching documents as
// Added events, then streams every later change.
func (s *DocumentStore) Subscribe(ctx context.Context, q Query) (Subscription, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("subscribe: collection missing")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ErrClosed)
	}

	var records []record
	if q.DocID != "" {
		rec, ok, err := s.backend.load(q.Collection, q.DocID)
		if err != nil {
			return nil, fmt.Errorf("%w: load %s/%s: %w", ErrUnavailable, q.Collection, q.DocID, err)
		}
		if ok {
			records = append(records, rec)
		}
	} else {
		all, err := s.backend.scan(q.Collection)
		if err != nil {
			return nil, fmt.Errorf("%w: scan %s: %w", ErrUnavailable, q.Collection, err)
		}
		records = all
	}

	s.log.Debug("Subscription opened", "collection", q.Collection, "doc", q.DocID)
	return s.broker.add(ctx, q, q.snapshot(records)), nil
}

// Close ends all subscriptions and releases the backend
func (s *DocumentStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.broker.closeAll(fmt.Errorf("%w: %w", ErrUnavailable, ErrClosed))
	return s.backend.close()
}

func validateKey(collection, id string) error {
	if collection == "" || id == "" {
		return fmt.Errorf("collection and document id are required")
	}
	if strings.Contains(collection, "/") || strings.Contains(id, "/") {
		return fmt.Errorf("collection and document id must not contain '/'")
	}
	return nil
}
