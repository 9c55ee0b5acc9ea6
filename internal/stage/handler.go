package stage

import (
	"context"

	"transvox/internal/queue"
)

// Handler is implemented by each pipeline stage the workflow manager drives.
// Prepare runs before the item enters its processing status and should be
// limited to cheap validation (trim ranges, credentials); Execute performs
// the stage's external work and records produced artifact paths on the item.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}
