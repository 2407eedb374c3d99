package handlers

import (
	"context"
	"sync"

	"liveclass/internal/store"
)

// Peer: per-connection state, the authenticated user and its open subscriptions
type Peer struct {
	UserID string
	sender FrameSender
	ctx    context.Context
	cancel context.CancelFunc

	subs map[uint64]store.Subscription
	mu   sync.Mutex
	wg   sync.WaitGroup
}

func NewPeer(ctx context.Context, userID string, sender FrameSender) *Peer {
	ctx, cancel := context.WithCancel(ctx)
	return &Peer{
		UserID: userID,
		sender: sender,
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[uint64]store.Subscription),
	}
}

func (p *Peer) Send(frame any) error {
	return p.sender.Send(frame)
}

// track registers sub under id; false if id is taken
func (p *Peer) track(id uint64, sub store.Subscription) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.subs[id]; exists {
		return false
	}
	p.subs[id] = sub
	return true
}

func (p *Peer) untrack(id uint64) (store.Subscription, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sub, ok := p.subs[id]
	delete(p.subs, id)
	return sub, ok
}

func (p *Peer) SubscriptionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Close ends every subscription of the connection and waits for their forwarders
func (p *Peer) Close() {
	p.cancel()

	p.mu.Lock()
	subs := p.subs
	p.subs = make(map[uint64]store.Subscription)
	p.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	p.wg.Wait()
}
