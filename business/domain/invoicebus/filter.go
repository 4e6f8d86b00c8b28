package invoicebus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/types/invoicestatus"
)

// QueryFilter holds the available fields a query can be filtered on. Date
// bounds compare against the due date; DueBefore is exclusive, DueFrom and
// DueTo are inclusive.
type QueryFilter struct {
	ContactID      *uuid.UUID
	LeaseID        *uuid.UUID
	Statuses       []invoicestatus.Invoice
	DueBefore      *time.Time
	DueFrom        *time.Time
	DueTo          *time.Time
	LateFeeApplied *bool
	ReminderSent   *bool
}

func (f QueryFilter) match(i Invoice) bool {
	switch {
	case f.ContactID != nil && i.ContactID != *f.ContactID:
		return false
	case f.LeaseID != nil && i.LeaseID != *f.LeaseID:
		return false
	case len(f.Statuses) > 0 && !statusIn(i.Status, f.Statuses):
		return false
	case f.DueBefore != nil && !i.DueDate.Before(*f.DueBefore):
		return false
	case f.DueFrom != nil && i.DueDate.Before(*f.DueFrom):
		return false
	case f.DueTo != nil && i.DueDate.After(*f.DueTo):
		return false
	case f.LateFeeApplied != nil && i.LateFeeApplied != *f.LateFeeApplied:
		return false
	case f.ReminderSent != nil && i.ReminderSent != *f.ReminderSent:
		return false
	}
	return true
}

func statusIn(s invoicestatus.Invoice, set []invoicestatus.Invoice) bool {
	for _, v := range set {
		if s.Equal(v) {
			return true
		}
	}
	return false
}
