package bus

import (
	"context"

	"github.com/google/uuid"
)

// InvalidationMessage announces that a course package is stale. Origin is the
// publishing instance so it can skip its own messages.
type InvalidationMessage struct {
	Origin   string    `json:"origin"`
	CourseID uuid.UUID `json:"course_id"`
}

type Bus interface {
	Publish(ctx context.Context, msg InvalidationMessage) error
	StartForwarder(ctx context.Context, onMsg func(m InvalidationMessage)) error
	Close() error
}
