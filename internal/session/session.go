package session

import (
	"strings"
	"time"

	"liveclass/internal/object"
)

// Collections holding the shared live-session state
const (
	CollectionSessions     = "liveSessions"
	CollectionParticipants = "liveParticipants"
	CollectionMessages     = "liveMessages"
)

// WhiteboardState: authoritative object list of a session.
// Objects only grow, except on clear (replaced by an empty list) and removal marking.
type WhiteboardState struct {
	Objects       []object.Object `json:"objects"`
	LastUpdated   time.Time       `json:"lastUpdated"`
	LastUpdatedBy string          `json:"lastUpdatedBy"`
}

// Session is one live classroom
type Session struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	IsActive         bool            `json:"isActive"`
	CreatedBy        string          `json:"createdBy"`
	ParticipantCount int             `json:"participantCount"`
	WhiteboardLocked bool            `json:"whiteboardLocked"`
	Whiteboard       WhiteboardState `json:"whiteboard"`
}

// Participant is keyed by (SessionID, UserID)
type Participant struct {
	SessionID   string    `json:"sessionId"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	IsPresenter bool      `json:"isPresenter"`
	MicEnabled  bool      `json:"micEnabled"`
	HandRaised  bool      `json:"handRaised"`
	JoinedAt    time.Time `json:"joinedAt"`
	Active      bool      `json:"active"`
	// UpdatedAt is the store version the record was read at
	UpdatedAt time.Time `json:"-"`
}

// ChatMessage is append-only and ordered by its server timestamp
type ChatMessage struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"sessionId"`
	AuthorID        string    `json:"authorId"`
	AuthorName      string    `json:"authorName"`
	Body            string    `json:"body"`
	Timestamp       time.Time `json:"timestamp"`
	IsSystemMessage bool      `json:"isSystemMessage"`
}

// idEscaper keeps the separator unique so distinct pairs never share an id
var idEscaper = strings.NewReplacer("%", "%25", "_", "%5F")

// ParticipantID: document id of a participant record
func ParticipantID(sessionID, userID string) string {
	return idEscaper.Replace(sessionID) + "_" + idEscaper.Replace(userID)
}
