package classroom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"liveclass/internal/chat"
	"liveclass/internal/identity"
	"liveclass/internal/middleware"
	"liveclass/internal/object"
	"liveclass/internal/presence"
	"liveclass/internal/reconcile"
	"liveclass/internal/session"
	"liveclass/internal/store"
	"liveclass/internal/whiteboard"

	"github.com/samber/lo"
)

// Channel names, as reported in degraded status
const (
	ChannelWhiteboard = "whiteboard"
	ChannelRoster     = "roster"
	ChannelChat       = "chat"
)

var (
	ErrAlreadyJoined = errors.New("already joined")
	ErrNotJoined     = errors.New("not joined")
)

type EventKind string

const (
	EventWhiteboard EventKind = "whiteboard"
	EventRoster     EventKind = "roster"
	EventChat       EventKind = "chat"
	EventStatus     EventKind = "status"
	EventError      EventKind = "error"
)

// Event: notification for the UI. Events are hints and may be dropped when the
// UI falls behind; current state is always readable from the client.
type Event struct {
	Kind    EventKind
	Message *session.ChatMessage
	Status  *reconcile.Status
	Err     error
}

type Options struct {
	SessionID      string
	Title          string
	HistoryLimit   int
	StatusInterval time.Duration
	Limits         middleware.RateLimit
	EngineOptions  []whiteboard.Option
}

// Client: one participant's live classroom. It owns the local whiteboard, the
// three subscriptions and the status timer; Leave tears all of them down.
type Client struct {
	opts     Options
	identity identity.Provider
	repo     *session.Repository
	engine   *whiteboard.Engine
	protocol *reconcile.Protocol
	presence *presence.Channel
	chat     *chat.Channel
	roster   *presence.Roster
	monitor  *reconcile.StatusMonitor
	writes   *writer
	events   chan Event
	log      *slog.Logger

	mu       sync.Mutex
	joined   bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	degraded map[string]error
	messages []session.ChatMessage
}

func New(s store.Store, id identity.Provider, opts Options, log *slog.Logger) *Client {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = chat.DefaultHistoryLimit
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = 5 * time.Second
	}
	if opts.Limits == (middleware.RateLimit{}) {
		opts.Limits = middleware.DefaultRateLimit()
	}
	log = log.With("session", opts.SessionID, "user", id.CurrentUserID())

	repo := session.NewRepository(s, log)
	chatChannel := chat.NewChannel(repo, opts.Limits, log)
	c := &Client{
		opts:     opts,
		identity: id,
		repo:     repo,
		presence: presence.NewChannel(repo, chatChannel, log),
		chat:     chatChannel,
		roster:   presence.NewRoster(),
		writes:   newWriter(),
		events:   make(chan Event, 256),
		log:      log,
		degraded: make(map[string]error),
	}
	c.engine = whiteboard.NewEngine(id.CurrentUserID(), c, opts.EngineOptions...)
	c.protocol = reconcile.NewProtocol(opts.SessionID, repo, c.engine, id, opts.Limits, log)
	c.monitor = reconcile.NewStatusMonitor(c.protocol, c.degradedChannels, opts.StatusInterval)
	return c
}

// Join creates the session if needed, registers the participant and starts
// the whiteboard, roster and chat subscriptions. A subscription that fails
// degrades its own channel only.
func (c *Client) Join(ctx context.Context) error {
	c.mu.Lock()
	if c.joined {
		c.mu.Unlock()
		return ErrAlreadyJoined
	}
	c.joined = true
	c.mu.Unlock()

	sessionID, userID := c.opts.SessionID, c.identity.CurrentUserID()
	if _, err := c.repo.EnsureSession(ctx, sessionID, c.opts.Title, userID); err != nil {
		c.setJoined(false)
		return fmt.Errorf("open session: %w", err)
	}
	if err := c.presence.Join(ctx, sessionID, userID, c.identity.DisplayName(), c.identity.IsPresenter()); err != nil {
		c.setJoined(false)
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	if c.writes.isClosed() {
		c.writes = newWriter()
	}
	writes := c.writes
	c.mu.Unlock()

	c.spawn(func() { writes.run(runCtx) })
	c.spawn(func() { c.watchWhiteboard(runCtx) })
	c.spawn(func() { c.watchRoster(runCtx) })
	c.spawn(func() { c.watchChat(runCtx) })
	c.spawn(func() {
		c.monitor.Run(runCtx, func(s reconcile.Status) {
			c.emit(Event{Kind: EventStatus, Status: &s})
		})
	})

	c.log.Info("Joined live session")
	return nil
}

// Leave waits for queued whiteboard writes until ctx is done, then stops every
// subscription and the status timer and removes the participant. Writes cut short
// by ctx end up unsynced with an error event.
func (c *Client) Leave(ctx context.Context) error {
	c.mu.Lock()
	if !c.joined {
		c.mu.Unlock()
		return ErrNotJoined
	}
	c.joined = false
	cancel := c.cancel
	writes := c.writes
	c.mu.Unlock()

	writes.close()
	select {
	case <-writes.done:
	case <-ctx.Done():
		c.log.Warn("Leaving before queued writes finished", "error", ctx.Err())
	}
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	if err := c.presence.Leave(ctx, c.opts.SessionID, c.identity.CurrentUserID()); err != nil {
		return err
	}
	c.log.Info("Left live session")
	return nil
}

func (c *Client) setJoined(joined bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joined = joined
}

func (c *Client) spawn(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

func (c *Client) emit(evt Event) {
	select {
	case c.events <- evt:
	default:
		c.log.Debug("Dropping UI event", "kind", evt.Kind)
	}
}

func (c *Client) Events() <-chan Event {
	return c.events
}

// Submit implements whiteboard.Sink: the append is queued, never awaited.
// After Leave the object is held as unsynced for a later RetryUnsynced.
func (c *Client) Submit(obj object.Object) {
	queued := c.writer().enqueue(func(ctx context.Context) {
		if err := c.protocol.Commit(ctx, obj); err != nil {
			c.emit(Event{Kind: EventError, Err: err})
		}
	})
	if !queued {
		c.protocol.Hold(obj)
		c.emit(Event{Kind: EventError, Err: fmt.Errorf("append object %s: %w", obj.ID, ErrNotJoined)})
	}
}

// SubmitRemoval implements whiteboard.Sink
func (c *Client) SubmitRemoval(objectID string) {
	queued := c.writer().enqueue(func(ctx context.Context) {
		if err := c.protocol.Remove(ctx, objectID); err != nil {
			c.emit(Event{Kind: EventError, Err: err})
		}
	})
	if !queued {
		c.emit(Event{Kind: EventError, Err: fmt.Errorf("remove object %s: %w", objectID, ErrNotJoined)})
	}
}

func (c *Client) writer() *writer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func (c *Client) watchWhiteboard(ctx context.Context) {
	c.consume(ctx, ChannelWhiteboard, func() (store.Subscription, error) {
		return c.repo.WatchSession(ctx, c.opts.SessionID)
	}, func(evt store.Event) {
		if evt.Type == store.Removed {
			return
		}
		s, err := session.DecodeSession(evt.Document)
		if err != nil {
			c.log.Warn("Skipping undecodable session snapshot", "error", err)
			return
		}
		if err := c.protocol.Apply(s); err == nil {
			c.emit(Event{Kind: EventWhiteboard})
		}
	})
}

func (c *Client) watchRoster(ctx context.Context) {
	c.consume(ctx, ChannelRoster, func() (store.Subscription, error) {
		return c.presence.Watch(ctx, c.opts.SessionID)
	}, func(evt store.Event) {
		if err := c.roster.Apply(evt); err != nil {
			c.log.Warn("Skipping undecodable participant", "error", err)
			return
		}
		c.emit(Event{Kind: EventRoster})
	})
}

func (c *Client) watchChat(ctx context.Context) {
	stream, err := c.chat.Subscribe(ctx, c.opts.SessionID, c.opts.HistoryLimit)
	if err != nil {
		c.markDegraded(ChannelChat, err)
		return
	}
	defer stream.Close()
	c.markHealthy(ChannelChat)

	for msg := range stream.Messages() {
		c.mu.Lock()
		c.messages = append(c.messages, msg)
		c.mu.Unlock()
		c.emit(Event{Kind: EventChat, Message: &msg})
	}
	if ctx.Err() == nil {
		c.markDegraded(ChannelChat, endReason(stream.Err()))
	}
}

// consume runs one subscription to its end; failures only degrade channel
func (c *Client) consume(ctx context.Context, channel string, open func() (store.Subscription, error), handle func(store.Event)) {
	sub, err := open()
	if err != nil {
		c.markDegraded(channel, err)
		return
	}
	defer sub.Close()
	c.markHealthy(channel)

	for evt := range sub.Events() {
		handle(evt)
	}
	if ctx.Err() == nil {
		c.markDegraded(channel, endReason(sub.Err()))
	}
}

// endReason names why a live stream stopped; a silent end still counts as lost
func endReason(err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: stream ended", store.ErrUnavailable)
}

func (c *Client) markDegraded(channel string, err error) {
	c.mu.Lock()
	c.degraded[channel] = err
	c.mu.Unlock()

	c.log.Warn("Channel degraded", "channel", channel, "error", err)
	c.emit(Event{Kind: EventError, Err: fmt.Errorf("%s channel: %w", channel, err)})
}

func (c *Client) markHealthy(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.degraded, channel)
}

func (c *Client) degradedChannels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Keys(c.degraded)
}

// Whiteboard: the local surface, driven directly by pointer input
func (c *Client) Whiteboard() *whiteboard.Engine {
	return c.engine
}

func (c *Client) ClearWhiteboard(ctx context.Context) error {
	return c.protocol.ClearAll(ctx)
}

func (c *Client) LockWhiteboard(ctx context.Context, locked bool) error {
	return c.protocol.SetLocked(ctx, locked)
}

// RetryUnsynced re-sends objects whose append failed
func (c *Client) RetryUnsynced(ctx context.Context) error {
	return c.protocol.Retry(ctx)
}

func (c *Client) Unsynced() []object.Object {
	return c.protocol.Unsynced()
}

func (c *Client) SendChat(ctx context.Context, body string) (*session.ChatMessage, error) {
	return c.chat.Send(ctx, c.opts.SessionID, c.identity.CurrentUserID(), c.identity.DisplayName(), body)
}

func (c *Client) SetMic(ctx context.Context, enabled bool) error {
	return c.presence.SetMic(ctx, c.opts.SessionID, c.identity.CurrentUserID(), enabled)
}

func (c *Client) ToggleHand(ctx context.Context) (bool, error) {
	return c.presence.ToggleHand(ctx, c.opts.SessionID, c.identity.CurrentUserID())
}

func (c *Client) Roster() []presence.Entry {
	return c.roster.Entries()
}

// Messages: chat log received since Join, bounded history first
func (c *Client) Messages() []session.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

func (c *Client) Status() reconcile.Status {
	return c.monitor.Check()
}

// Idle reports whether every submitted write has been issued
func (c *Client) Idle() bool {
	return c.writer().idle()
}
