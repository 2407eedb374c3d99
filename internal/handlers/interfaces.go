package handlers

// FrameSender writes one frame to the peer's connection; safe for concurrent use
type FrameSender interface {
	Send(frame any) error
}
