package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"liveclass/internal/store"
)

// Frame types
const (
	FrameAuthenticate  = "authenticate"
	FrameAuthenticated = "authenticated"
	FrameRequest       = "request"
	FrameResponse      = "response"
	FrameEvent         = "event"
)

// Request operations
const (
	OpGet         = "get"
	OpCreate      = "create"
	OpSet         = "set"
	OpUpdate      = "update"
	OpDelete      = "delete"
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
)

// Error codes carried in response and event frames
const (
	CodeNotFound        = "not_found"
	CodeAlreadyExists   = "already_exists"
	CodeConflict        = "conflict"
	CodeUnavailable     = "unavailable"
	CodeInvalidArgument = "invalid_argument"
	CodeInternal        = "internal"
)

var ErrInvalidArgument = errors.New("invalid argument")

// AuthFrame: first frame of a connection and its answer
type AuthFrame struct {
	Type   string `json:"type"`
	UserID string `json:"userId,omitempty"`
}

// Request: one store operation. Fields carries store.Fields with transforms encoded.
// UpdateTime, when set on update or delete, makes the write conditional.
// Subscriptions are identified by the id of the request that opened them.
type Request struct {
	Type         string          `json:"type"`
	ID           uint64          `json:"id"`
	Op           string          `json:"op"`
	Collection   string          `json:"collection,omitempty"`
	DocID        string          `json:"docId,omitempty"`
	Fields       json.RawMessage `json:"fields,omitempty"`
	Merge        bool            `json:"merge,omitempty"`
	UpdateTime   *time.Time      `json:"updateTime,omitempty"`
	Query        *store.Query    `json:"query,omitempty"`
	Subscription uint64          `json:"subscription,omitempty"`
}

type Response struct {
	Type     string          `json:"type"`
	ID       uint64          `json:"id"`
	Error    string          `json:"error,omitempty"`
	Message  string          `json:"message,omitempty"`
	Document *store.Document `json:"document,omitempty"`
}

// EventFrame: a change on a subscription, or its end when End is set
type EventFrame struct {
	Type         string       `json:"type"`
	Subscription uint64       `json:"subscription"`
	Event        *store.Event `json:"event,omitempty"`
	End          bool         `json:"end,omitempty"`
	Error        string       `json:"error,omitempty"`
	Message      string       `json:"message,omitempty"`
}

// ErrorCode classifies err for the wire
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, store.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, store.ErrConflict):
		return CodeConflict
	case errors.Is(err, store.ErrUnavailable):
		return CodeUnavailable
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	default:
		return CodeInternal
	}
}

// CodeError rebuilds an error from a wire code so callers can use errors.Is
func CodeError(code, message string) error {
	var sentinel error
	switch code {
	case "":
		return nil
	case CodeNotFound:
		sentinel = store.ErrNotFound
	case CodeAlreadyExists:
		sentinel = store.ErrAlreadyExists
	case CodeConflict:
		sentinel = store.ErrConflict
	case CodeUnavailable:
		sentinel = store.ErrUnavailable
	case CodeInvalidArgument:
		sentinel = ErrInvalidArgument
	default:
		return errors.New(message)
	}
	if message == "" {
		return sentinel
	}
	return &remoteError{sentinel: sentinel, message: message}
}

type remoteError struct {
	sentinel error
	message  string
}

func (e *remoteError) Error() string { return e.message }
func (e *remoteError) Unwrap() error { return e.sentinel }

func errorResponse(id uint64, err error) Response {
	return Response{Type: FrameResponse, ID: id, Error: ErrorCode(err), Message: err.Error()}
}
