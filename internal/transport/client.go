package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"liveclass/internal/handlers"
	"liveclass/internal/store"

	"github.com/gorilla/websocket"
)

// Client is a store.Store served by a remote Server
type Client struct {
	conn   *connection
	ws     *websocket.Conn
	UserID string
	log    *slog.Logger

	nextID  atomic.Uint64
	pending map[uint64]chan handlers.Response
	feeds   map[uint64]*store.Feed
	err     error
	mu      sync.Mutex

	done chan struct{}
}

var _ store.Store = (*Client)(nil)

// Dial connects to a Server's /ws endpoint and authenticates as userID.
// An empty userID asks the server to assign one.
func Dial(ctx context.Context, url, userID string, log *slog.Logger) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", store.ErrUnavailable, url, err)
	}

	conn := newConnection(ws)
	if err := conn.Send(handlers.AuthFrame{Type: handlers.FrameAuthenticate, UserID: userID}); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = ws.SetReadDeadline(deadline)
	}
	var auth handlers.AuthFrame
	if err := ws.ReadJSON(&auth); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("%w: read auth response: %w", store.ErrUnavailable, err)
	}
	_ = ws.SetReadDeadline(time.Time{})
	if auth.Type != handlers.FrameAuthenticated {
		_ = ws.Close()
		return nil, fmt.Errorf("unexpected auth response: %q", auth.Type)
	}

	c := &Client{
		conn:    conn,
		ws:      ws,
		UserID:  auth.UserID,
		log:     log,
		pending: make(map[uint64]chan handlers.Response),
		feeds:   make(map[uint64]*store.Feed),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) Get(ctx context.Context, collection, id string) (store.Document, error) {
	resp, err := c.request(ctx, handlers.Request{Op: handlers.OpGet, Collection: collection, DocID: id})
	if err != nil {
		return store.Document{}, err
	}
	if resp.Document == nil {
		return store.Document{}, fmt.Errorf("%w: %s/%s", store.ErrNotFound, collection, id)
	}
	return *resp.Document, nil
}

func (c *Client) Create(ctx context.Context, collection, id string, fields store.Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	_, err = c.request(ctx, handlers.Request{Op: handlers.OpCreate, Collection: collection, DocID: id, Fields: raw})
	return err
}

func (c *Client) Set(ctx context.Context, collection, id string, fields store.Fields, merge bool) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	_, err = c.request(ctx, handlers.Request{Op: handlers.OpSet, Collection: collection, DocID: id, Fields: raw, Merge: merge})
	return err
}

func (c *Client) Update(ctx context.Context, collection, id string, fields store.Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	_, err = c.request(ctx, handlers.Request{Op: handlers.OpUpdate, Collection: collection, DocID: id, Fields: raw})
	return err
}

func (c *Client) UpdateIfUnchanged(ctx context.Context, collection, id string, updateTime time.Time, fields store.Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	_, err = c.request(ctx, handlers.Request{Op: handlers.OpUpdate, Collection: collection, DocID: id, Fields: raw, UpdateTime: &updateTime})
	return err
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	_, err := c.request(ctx, handlers.Request{Op: handlers.OpDelete, Collection: collection, DocID: id})
	return err
}

func (c *Client) DeleteIfUnchanged(ctx context.Context, collection, id string, updateTime time.Time) error {
	_, err := c.request(ctx, handlers.Request{Op: handlers.OpDelete, Collection: collection, DocID: id, UpdateTime: &updateTime})
	return err
}

// Subscribe registers the feed before asking the server, so no event can outrun it
func (c *Client) Subscribe(ctx context.Context, q store.Query) (store.Subscription, error) {
	id := c.nextID.Add(1)
	feed := store.NewFeed(ctx, nil, func() { c.dropFeed(id, true) })

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		feed.Close()
		return nil, err
	}
	c.feeds[id] = feed
	c.mu.Unlock()

	if _, err := c.send(ctx, handlers.Request{ID: id, Op: handlers.OpSubscribe, Query: &q}); err != nil {
		c.dropFeed(id, false)
		feed.Close()
		return nil, err
	}
	return feed, nil
}

// Close disconnects; pending requests and open subscriptions fail with store.ErrUnavailable
func (c *Client) Close() error {
	err := c.ws.Close()
	<-c.done
	return err
}

func (c *Client) request(ctx context.Context, req handlers.Request) (handlers.Response, error) {
	req.ID = c.nextID.Add(1)
	return c.send(ctx, req)
}

// send writes req and waits for the response carrying its id
func (c *Client) send(ctx context.Context, req handlers.Request) (handlers.Response, error) {
	req.Type = handlers.FrameRequest
	reply := make(chan handlers.Response, 1)

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return handlers.Response{}, err
	}
	c.pending[req.ID] = reply
	c.mu.Unlock()

	if err := c.conn.Send(req); err != nil {
		c.forget(req.ID)
		return handlers.Response{}, fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}

	select {
	case resp, ok := <-reply:
		if !ok {
			return handlers.Response{}, c.failure()
		}
		if err := handlers.CodeError(resp.Error, resp.Message); err != nil {
			return resp, err
		}
		return resp, nil
	case <-ctx.Done():
		c.forget(req.ID)
		return handlers.Response{}, ctx.Err()
	}
}

func (c *Client) forget(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

func (c *Client) failure() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// dropFeed forgets a subscription, telling the server when it is still connected
func (c *Client) dropFeed(id uint64, unsubscribe bool) {
	c.mu.Lock()
	_, ok := c.feeds[id]
	delete(c.feeds, id)
	connected := c.err == nil
	c.mu.Unlock()

	if !ok || !unsubscribe || !connected {
		return
	}
	go func() {
		req := handlers.Request{Type: handlers.FrameRequest, ID: c.nextID.Add(1), Op: handlers.OpUnsubscribe, Subscription: id}
		if err := c.conn.Send(req); err != nil {
			c.log.Debug("Failed to unsubscribe", "subscription", id, "error", err)
		}
	}()
}

type envelope struct {
	Type string `json:"type"`
}

// readLoop dispatches responses and events until the connection drops
func (c *Client) readLoop() {
	defer close(c.done)

	var cause error
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			cause = err
			break
		}

		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			c.log.Warn("Dropping malformed frame", "error", err)
			continue
		}

		switch env.Type {
		case handlers.FrameResponse:
			var resp handlers.Response
			if err := json.Unmarshal(msg, &resp); err != nil {
				c.log.Warn("Dropping malformed response", "error", err)
				continue
			}
			c.deliver(resp)
		case handlers.FrameEvent:
			var evt handlers.EventFrame
			if err := json.Unmarshal(msg, &evt); err != nil {
				c.log.Warn("Dropping malformed event", "error", err)
				continue
			}
			c.dispatch(evt)
		default:
			c.log.Debug("Ignoring frame", "type", env.Type)
		}
	}

	c.shutdown(fmt.Errorf("%w: connection lost: %w", store.ErrUnavailable, cause))
}

func (c *Client) deliver(resp handlers.Response) {
	c.mu.Lock()
	reply, ok := c.pending[resp.ID]
	delete(c.pending, resp.ID)
	c.mu.Unlock()

	if ok {
		reply <- resp
	}
}

func (c *Client) dispatch(evt handlers.EventFrame) {
	c.mu.Lock()
	feed, ok := c.feeds[evt.Subscription]
	if ok && evt.End {
		delete(c.feeds, evt.Subscription)
	}
	c.mu.Unlock()

	if !ok {
		return
	}
	switch {
	case evt.End && evt.Error != "":
		feed.Fail(handlers.CodeError(evt.Error, evt.Message))
	case evt.End:
		feed.Close()
	case evt.Event != nil:
		feed.Push(*evt.Event)
	}
}

// shutdown fails everything still waiting on the connection
func (c *Client) shutdown(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	pending := c.pending
	feeds := c.feeds
	c.pending = make(map[uint64]chan handlers.Response)
	c.feeds = make(map[uint64]*store.Feed)
	c.mu.Unlock()

	for _, reply := range pending {
		close(reply)
	}
	for _, feed := range feeds {
		feed.Fail(err)
	}
	c.log.Debug("Store connection closed", "user", c.UserID, "error", err)
}
