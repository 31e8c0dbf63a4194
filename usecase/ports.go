package usecase

import (
	"context"

	"github.com/tasknest/backend/domain"
)

// Operation names shared with the offline buffer.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// OperationBuffer abstracts the durable offline buffer so use cases stay
// storage-agnostic. Completion/scoring writes are never buffered: they need
// a transaction, not eventual replay.
type OperationBuffer interface {
	BufferTask(ctx context.Context, operation string, task *domain.Task) error
}

// Broadcaster pushes an event to every live connection. Used for the coarse
// tasksUpdated invalidation signal.
type Broadcaster interface {
	ToAll(event domain.Event)
}
