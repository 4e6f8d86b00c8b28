package leasebus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/types/leasestatus"
	"github.com/jcpaschoal/leasekeeper/business/types/renewalstatus"
)

// Kind names the lease record kind and its table.
const Kind = "lease"

// Lease binds a contact to a unit for a date range. Each renewal ladder
// step carries its own sent flag and timestamp.
type Lease struct {
	auditstore.Meta
	UnitID                uuid.UUID
	ContactID             uuid.UUID
	StartDate             time.Time
	EndDate               time.Time
	Status                leasestatus.Lease
	RenewalStatus         renewalstatus.Renewal
	RenewalNoticeSent     bool
	RenewalNoticeSentAt   time.Time
	RenewalReminderSent   bool
	RenewalReminderSentAt time.Time
	FinalReminderSent     bool
	FinalReminderSentAt   time.Time
}

// RecordMeta implements auditstore.Record.
func (l Lease) RecordMeta() auditstore.Meta { return l.Meta }

// WithRecordMeta implements auditstore.Record.
func (l Lease) WithRecordMeta(m auditstore.Meta) Lease {
	l.Meta = m
	return l
}

// Occupies reports whether the lease holds its unit for its date range.
func (l Lease) Occupies() bool {
	return l.Status.Equal(leasestatus.Active) || l.Status.Equal(leasestatus.Pending)
}

// Overlaps reports whether the two leases share at least one day.
func (l Lease) Overlaps(o Lease) bool {
	return !l.EndDate.Before(o.StartDate) && !o.EndDate.Before(l.StartDate)
}

// NewLease contains information needed to create a new lease.
type NewLease struct {
	UnitID    uuid.UUID
	ContactID uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	Status    leasestatus.Lease
	Sample    bool
}

// UpdateLease contains information needed to update a lease.
type UpdateLease struct {
	StartDate     *time.Time
	EndDate       *time.Time
	Status        *leasestatus.Lease
	RenewalStatus *renewalstatus.Renewal
}
