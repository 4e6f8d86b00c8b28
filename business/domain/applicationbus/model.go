package applicationbus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/types/applicationstatus"
)

// Kind names the rental application record kind and its table.
const Kind = "rental_application"

// Application is a contact's request to rent a unit.
type Application struct {
	auditstore.Meta
	UnitID    uuid.UUID
	ContactID uuid.UUID
	Status    applicationstatus.Application
	ExpiresAt time.Time
}

// RecordMeta implements auditstore.Record.
func (a Application) RecordMeta() auditstore.Meta { return a.Meta }

// WithRecordMeta implements auditstore.Record.
func (a Application) WithRecordMeta(m auditstore.Meta) Application {
	a.Meta = m
	return a
}

// Open reports whether the application can still change status.
func (a Application) Open() bool {
	return a.Status.Equal(applicationstatus.Draft) ||
		a.Status.Equal(applicationstatus.Submitted) ||
		a.Status.Equal(applicationstatus.UnderReview)
}

// NewApplication contains information needed to create a new application.
type NewApplication struct {
	UnitID    uuid.UUID
	ContactID uuid.UUID
	Status    applicationstatus.Application
	ExpiresAt time.Time
	Sample    bool
}

// UpdateApplication contains information needed to update an application.
type UpdateApplication struct {
	Status    *applicationstatus.Application
	ExpiresAt *time.Time
}
