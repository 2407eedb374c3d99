package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// broker fans out document changes to subscriptions.
// Each subscription is a Feed, so publishers never block and every subscriber sees store write order.
type broker struct {
	subs map[uint64]*Feed
	next uint64
	mu   sync.Mutex
}

func newBroker() *broker {
	return &broker{subs: make(map[uint64]*Feed)}
}

// add registers a subscription primed with its initial snapshot events
func (b *broker) add(ctx context.Context, q Query, initial []Event) *Feed {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	feed := newFeed(initial)
	feed.query = q
	feed.onClose = func() { b.remove(id) }
	b.subs[id] = feed

	go feed.run(ctx)
	return feed
}

func (b *broker) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// publish queues the change between before and after on every interested subscription
func (b *broker) publish(collection, id string, before, after *record) {
	b.mu.Lock()
	subs := make([]*Feed, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		if evt, ok := changeEvent(s.query, collection, id, before, after); ok {
			s.Push(evt)
		}
	}
}

// closeAll ends every subscription with err
func (b *broker) closeAll(err error) {
	b.mu.Lock()
	subs := make([]*Feed, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.Fail(err)
	}
}

// changeEvent decides which event, if any, a write produces for a query
func changeEvent(q Query, collection, id string, before, after *record) (Event, bool) {
	if q.Collection != collection {
		return Event{}, false
	}
	if q.DocID != "" && q.DocID != id {
		return Event{}, false
	}

	was := before != nil && q.matches(before.Fields)
	is := after != nil && q.matches(after.Fields)

	switch {
	case !was && is:
		return Event{Type: Added, Document: after.document()}, true
	case was && is:
		return Event{Type: Modified, Document: after.document()}, true
	case was && !is:
		return Event{Type: Removed, Document: before.document()}, true
	default:
		return Event{}, false
	}
}

func (q Query) matches(fields map[string]any) bool {
	for _, f := range q.Where {
		got, ok := getPath(fields, f.Field)
		if !ok {
			return false
		}
		want, err := normalize(f.Value)
		if err != nil || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// snapshot filters, orders and bounds records into the initial event batch
func (q Query) snapshot(records []record) []Event {
	matched := make([]record, 0, len(records))
	for _, r := range records {
		if q.DocID != "" && r.ID != q.DocID {
			continue
		}
		if q.matches(r.Fields) {
			matched = append(matched, r)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if q.OrderBy != "" {
			a, _ := getPath(matched[i].Fields, q.OrderBy)
			b, _ := getPath(matched[j].Fields, q.OrderBy)
			if c := compareValues(a, b); c != 0 {
				return c < 0
			}
		}
		return matched[i].ID < matched[j].ID
	})

	if q.LimitToLast > 0 && len(matched) > q.LimitToLast {
		matched = matched[len(matched)-q.LimitToLast:]
	}

	events := make([]Event, len(matched))
	for i, r := range matched {
		events[i] = Event{Type: Added, Document: r.document()}
	}
	return events
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case nil:
		if b == nil {
			return 0
		}
		return -1
	case float64:
		if y, ok := b.(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case string:
		if y, ok := b.(string); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	if b == nil {
		return 1
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}
