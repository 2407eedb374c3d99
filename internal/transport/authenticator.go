package transport

import (
	"encoding/json"
	"fmt"
	"time"

	"liveclass/internal/handlers"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Authenticator: handles the first frame of every connection
type Authenticator struct {
	validate *validator.Validate
}

func NewAuthenticator() *Authenticator {
	return &Authenticator{validate: validator.New()}
}

type authRequest struct {
	Type   string `validate:"eq=authenticate"`
	UserID string `validate:"omitempty,max=128,printascii"`
}

// Authenticate: reads the authenticate frame within timeout and returns the user id.
// Clients without an id are given a fresh one.
func (a *Authenticator) Authenticate(conn *websocket.Conn, timeout time.Duration) (string, error) {
	// Read deadline
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", fmt.Errorf("failed to set auth deadline: %w", err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("failed to receive auth message: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{}) // Clear timeout

	var frame handlers.AuthFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		return "", fmt.Errorf("invalid auth message format: %w", err)
	}

	if err := a.validate.Struct(authRequest{Type: frame.Type, UserID: frame.UserID}); err != nil {
		return "", fmt.Errorf("invalid auth message: %w", err)
	}

	if frame.UserID == "" {
		return uuid.NewString(), nil
	}
	return frame.UserID, nil
}
