package chat

import (
	"log/slog"

	"liveclass/internal/session"
	"liveclass/internal/store"
)

// Stream: messages in log order. It ends when the underlying subscription does
// and cannot be resumed; subscribe again to re-read the bounded history.
type Stream struct {
	sub      store.Subscription
	messages chan session.ChatMessage
	log      *slog.Logger
}

func newStream(sub store.Subscription, log *slog.Logger) *Stream {
	s := &Stream{
		sub:      sub,
		messages: make(chan session.ChatMessage),
		log:      log,
	}
	go s.run()
	return s
}

func (s *Stream) run() {
	defer close(s.messages)

	for evt := range s.sub.Events() {
		// messages are never mutated, and history trimmed by the limit is not a deletion
		if evt.Type != store.Added {
			continue
		}
		msg, err := session.DecodeMessage(evt.Document)
		if err != nil {
			s.log.Warn("Skipping undecodable chat message", "id", evt.Document.ID, "error", err)
			continue
		}
		s.messages <- msg
	}
}

func (s *Stream) Messages() <-chan session.ChatMessage {
	return s.messages
}

// Err: why the stream ended early, nil after Close
func (s *Stream) Err() error {
	return s.sub.Err()
}

// Close ends the stream; pending messages are discarded once Messages is drained
func (s *Stream) Close() {
	s.sub.Close()
	go func() {
		for range s.messages {
		}
	}()
}
