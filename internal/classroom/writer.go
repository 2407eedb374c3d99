package classroom

import (
	"context"
	"sync"
)

// writer runs store writes one at a time in submission order, off the caller's goroutine.
// Jobs are never skipped: once ctx is done they still run and report their own failure.
type writer struct {
	mu      sync.Mutex
	queue   []func(context.Context)
	running bool
	closed  bool
	signal  chan struct{}
	done    chan struct{}
}

func newWriter() *writer {
	return &writer{signal: make(chan struct{}, 1), done: make(chan struct{})}
}

// enqueue adds job; false once the writer is closed
func (w *writer) enqueue(job func(context.Context)) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	w.queue = append(w.queue, job)
	w.mu.Unlock()

	w.notify()
	return true
}

// close stops accepting jobs; run returns once the queue is drained
func (w *writer) close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.notify()
}

func (w *writer) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *writer) notify() {
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func (w *writer) run(ctx context.Context) {
	defer close(w.done)

	for {
		w.mu.Lock()
		batch := w.queue
		w.queue = nil
		w.running = len(batch) > 0
		closed := w.closed
		w.mu.Unlock()

		for _, job := range batch {
			job(ctx)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}

		select {
		case <-w.signal:
		case <-ctx.Done():
			w.close()
		}
	}
}

// idle reports whether nothing is queued or being written
func (w *writer) idle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.running && len(w.queue) == 0
}
