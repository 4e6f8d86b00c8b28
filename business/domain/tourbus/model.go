package tourbus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/types/tourstatus"
)

// Kind names the tour record kind and its table.
const Kind = "tour"

// Tour is a scheduled site visit of a unit by a prospect.
type Tour struct {
	auditstore.Meta
	UnitID      uuid.UUID
	ContactID   uuid.UUID
	ScheduledAt time.Time
	Status      tourstatus.Tour
}

// RecordMeta implements auditstore.Record.
func (t Tour) RecordMeta() auditstore.Meta { return t.Meta }

// WithRecordMeta implements auditstore.Record.
func (t Tour) WithRecordMeta(m auditstore.Meta) Tour {
	t.Meta = m
	return t
}

// NewTour contains information needed to schedule a tour.
type NewTour struct {
	UnitID      uuid.UUID
	ContactID   uuid.UUID
	ScheduledAt time.Time
	Sample      bool
}

// UpdateTour contains information needed to update a tour.
type UpdateTour struct {
	ScheduledAt *time.Time
	Status      *tourstatus.Tour
}
