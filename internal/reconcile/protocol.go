package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"liveclass/internal/identity"
	"liveclass/internal/middleware"
	"liveclass/internal/object"
	"liveclass/internal/session"

	"github.com/samber/lo"
)

var (
	// ErrStaleUpdateDiscarded: the incoming snapshot is not newer than the last applied one. Not a failure.
	ErrStaleUpdateDiscarded = errors.New("stale update discarded")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrWhiteboardLocked     = errors.New("whiteboard is locked")
	ErrBoardFull            = errors.New("whiteboard object limit reached")
)

// boardSize adapts an object count to middleware.ObjectCounter
type boardSize int

func (b boardSize) ObjectCount() int { return int(b) }

// Protocol bridges local edits and the shared object list of one session.
// Writes are atomic appends or whole-list replacements; incoming snapshots
// are applied last-writer-wins on whiteboard.lastUpdated.
type Protocol struct {
	sessionID string
	repo      WhiteboardRepository
	surface   Surface
	identity  identity.Provider
	limits    middleware.RateLimit
	log       *slog.Logger

	mu           sync.Mutex
	synced       bool
	lastSyncedAt time.Time
	locked       bool
	applied      int // objects in the last applied snapshot
	inFlight     int
	unsynced     []object.Object
}

func NewProtocol(
	sessionID string,
	repo WhiteboardRepository,
	surface Surface,
	id identity.Provider,
	limits middleware.RateLimit,
	log *slog.Logger,
) *Protocol {
	return &Protocol{
		sessionID: sessionID,
		repo:      repo,
		surface:   surface,
		identity:  id,
		limits:    limits,
		log:       log.With("session", sessionID),
	}
}

// CanCommit reports the error Commit would fail with before reaching the store
func (p *Protocol) CanCommit() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.checkCommit()
}

func (p *Protocol) checkCommit() error {
	if p.locked && !p.identity.IsPresenter() {
		return ErrWhiteboardLocked
	}
	count := p.applied + p.inFlight
	if !p.limits.CanAddObject(boardSize(count)) {
		return fmt.Errorf("%w: %d objects", ErrBoardFull, count)
	}
	return nil
}

// Commit appends obj to the shared list without waiting for the fan-out echo.
// A failed append keeps obj visible as unsynced until Retry or the next clear.
func (p *Protocol) Commit(ctx context.Context, obj object.Object) error {
	p.mu.Lock()
	if err := p.checkCommit(); err != nil {
		p.mu.Unlock()
		return err
	}
	p.inFlight++
	p.mu.Unlock()

	err := p.repo.AppendObject(ctx, p.sessionID, obj, p.identity.CurrentUserID())

	p.mu.Lock()
	p.inFlight--
	if err != nil {
		p.unsynced = append(p.unsynced, obj)
	}
	p.mu.Unlock()

	if err != nil {
		p.surface.MarkUnsynced(obj)
		p.log.Error("Failed to append object", "object", obj.ID, "error", err)
		return fmt.Errorf("append object %s: %w", obj.ID, err)
	}
	return nil
}

// Hold records obj as unsynced without writing it; Retry sends it later
func (p *Protocol) Hold(obj object.Object) {
	p.mu.Lock()
	if !lo.ContainsBy(p.unsynced, func(o object.Object) bool { return o.ID == obj.ID }) {
		p.unsynced = append(p.unsynced, obj)
	}
	p.mu.Unlock()

	p.surface.MarkUnsynced(obj)
}

// Remove marks an object removed in place; the list keeps its length
func (p *Protocol) Remove(ctx context.Context, objectID string) error {
	p.mu.Lock()
	locked := p.locked
	p.mu.Unlock()
	if locked && !p.identity.IsPresenter() {
		return ErrWhiteboardLocked
	}

	if err := p.repo.MarkObjectRemoved(ctx, p.sessionID, objectID, p.identity.CurrentUserID()); err != nil {
		p.log.Error("Failed to mark object removed", "object", objectID, "error", err)
		return fmt.Errorf("remove object %s: %w", objectID, err)
	}
	return nil
}

// ClearAll replaces the shared list with an empty one. Presenter only.
// The local surface is cleared when the resulting snapshot arrives.
func (p *Protocol) ClearAll(ctx context.Context) error {
	if !p.identity.IsPresenter() {
		return fmt.Errorf("%w: clear whiteboard", ErrPermissionDenied)
	}

	if err := p.repo.ClearWhiteboard(ctx, p.sessionID, p.identity.CurrentUserID()); err != nil {
		p.log.Error("Failed to clear whiteboard", "error", err)
		return fmt.Errorf("clear whiteboard: %w", err)
	}
	p.log.Info("Whiteboard cleared", "user", p.identity.CurrentUserID())
	return nil
}

// SetLocked toggles the whiteboard lock. Presenter only.
func (p *Protocol) SetLocked(ctx context.Context, locked bool) error {
	if !p.identity.IsPresenter() {
		return fmt.Errorf("%w: lock whiteboard", ErrPermissionDenied)
	}

	if err := p.repo.SetWhiteboardLocked(ctx, p.sessionID, locked, p.identity.CurrentUserID()); err != nil {
		return fmt.Errorf("set whiteboard lock: %w", err)
	}
	return nil
}

// Retry re-sends every unsynced object in commit order. Objects that fail stay unsynced.
func (p *Protocol) Retry(ctx context.Context) error {
	p.mu.Lock()
	pending := p.unsynced
	p.unsynced = nil
	p.mu.Unlock()

	var errs []error
	for _, obj := range pending {
		err := p.Commit(ctx, obj)
		if err == nil {
			continue
		}
		errs = append(errs, err)
		// rejected before the store call, so Commit did not keep it
		if errors.Is(err, ErrWhiteboardLocked) || errors.Is(err, ErrBoardFull) {
			p.mu.Lock()
			p.unsynced = append(p.unsynced, obj)
			p.mu.Unlock()
		}
	}
	return errors.Join(errs...)
}

// Apply hands a session snapshot to the surface if it is newer than the last one applied.
// A snapshot holding fewer objects than the previous one is a clear: the surface and
// the unsynced set are emptied first.
func (p *Protocol) Apply(s session.Session) error {
	state := s.Whiteboard

	p.mu.Lock()
	if p.synced && !state.LastUpdated.After(p.lastSyncedAt) {
		p.mu.Unlock()
		p.log.Debug("Discarding stale whiteboard update",
			"lastUpdated", state.LastUpdated, "lastSyncedAt", p.lastSyncedAt)
		return ErrStaleUpdateDiscarded
	}

	cleared := p.synced && len(state.Objects) < p.applied
	p.synced = true
	p.lastSyncedAt = state.LastUpdated
	p.locked = s.WhiteboardLocked
	p.applied = len(state.Objects)
	if cleared {
		p.unsynced = nil
	} else {
		present := lo.SliceToMap(state.Objects, func(o object.Object) (string, bool) { return o.ID, true })
		p.unsynced = lo.Reject(p.unsynced, func(o object.Object, _ int) bool { return present[o.ID] })
	}
	p.mu.Unlock()

	if cleared {
		p.surface.Clear()
	}
	p.surface.ApplyAuthoritative(state.Objects)
	return nil
}

func (p *Protocol) LastSyncedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSyncedAt
}

func (p *Protocol) Locked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.locked
}

// Unsynced lists objects whose append failed, in commit order
func (p *Protocol) Unsynced() []object.Object {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]object.Object(nil), p.unsynced...)
}
