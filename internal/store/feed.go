package store

import (
	"context"
	"sync"
)

// Feed: a Subscription backed by an unbounded queue drained by its own goroutine.
// Push never blocks, and events come out in push order.
type Feed struct {
	query   Query
	events  chan Event
	signal  chan struct{}
	done    chan struct{}
	onClose func()

	mu        sync.Mutex
	queue     []Event
	err       error
	closeOnce sync.Once
}

// NewFeed starts a feed that ends when ctx is done, Close is called or Fail is called
func NewFeed(ctx context.Context, initial []Event, onClose func()) *Feed {
	f := newFeed(initial)
	f.onClose = onClose
	go f.run(ctx)
	return f
}

func newFeed(initial []Event) *Feed {
	return &Feed{
		events: make(chan Event),
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
		queue:  initial,
	}
}

func (f *Feed) Events() <-chan Event { return f.events }

func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Feed) Close() {
	f.closeOnce.Do(func() {
		close(f.done)
		if f.onClose != nil {
			f.onClose()
		}
	})
}

// Fail records err as the reason the feed ended and closes it
func (f *Feed) Fail(err error) {
	f.mu.Lock()
	if f.err == nil {
		f.err = err
	}
	f.mu.Unlock()
	f.Close()
}

func (f *Feed) Push(evt Event) {
	f.mu.Lock()
	f.queue = append(f.queue, evt)
	f.mu.Unlock()

	select {
	case f.signal <- struct{}{}:
	default:
	}
}

// run drains the queue into the events channel until the feed ends
func (f *Feed) run(ctx context.Context) {
	defer close(f.events)

	for {
		f.mu.Lock()
		batch := f.queue
		f.queue = nil
		f.mu.Unlock()

		for _, evt := range batch {
			select {
			case f.events <- evt:
			case <-f.done:
				return
			case <-ctx.Done():
				f.Close()
				return
			}
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-f.signal:
		case <-f.done:
			return
		case <-ctx.Done():
			f.Close()
			return
		}
	}
}
