//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../../mocks/mock_reconcile.go -package=mocks

package reconcile

import (
	"context"

	"liveclass/internal/object"
)

// WhiteboardRepository: the shared-store writes the protocol issues, implemented by session.Repository
type WhiteboardRepository interface {
	AppendObject(ctx context.Context, sessionID string, obj object.Object, by string) error
	MarkObjectRemoved(ctx context.Context, sessionID, objectID, by string) error
	ClearWhiteboard(ctx context.Context, sessionID, by string) error
	SetWhiteboardLocked(ctx context.Context, sessionID string, locked bool, by string) error
}

// Surface: the local rendering side, implemented by whiteboard.Engine
type Surface interface {
	ApplyAuthoritative(objects []object.Object)
	Clear()
	MarkUnsynced(obj object.Object)
}
