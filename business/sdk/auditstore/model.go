package auditstore

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemActor is the identity stamped on records changed by the scheduler
// rather than by a person.
var SystemActor = uuid.MustParse("00000000-0000-4000-8000-00000000a11c")

// Meta is the audited shape every stored entity embeds. The store owns every
// field except Sample, which callers may set on create.
type Meta struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Deleted   bool
	Sample    bool
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedBy uuid.UUID
	UpdatedAt time.Time
}

// Record is the capability a type needs to pass through the store.
type Record[T any] interface {
	RecordMeta() Meta
	WithRecordMeta(Meta) T
}

// =============================================================================

type ctxKey int

const actorKey ctxKey = 1

// WithActor stores the acting identity in the context.
func WithActor(ctx context.Context, actorID uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey, actorID)
}

// SystemContext returns a context acting as the system actor.
func SystemContext(ctx context.Context) context.Context {
	return WithActor(ctx, SystemActor)
}

// GetActor returns the acting identity from the context.
func GetActor(ctx context.Context) (uuid.UUID, error) {
	v, ok := ctx.Value(actorKey).(uuid.UUID)
	if !ok || v == uuid.Nil {
		return uuid.Nil, ErrUnauthenticated
	}

	return v, nil
}
