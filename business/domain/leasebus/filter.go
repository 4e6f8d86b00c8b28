package leasebus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/types/leasestatus"
)

// QueryFilter holds the available fields a query can be filtered on.
type QueryFilter struct {
	UnitID       *uuid.UUID
	ContactID    *uuid.UUID
	Statuses     []leasestatus.Lease
	StartAfter   *time.Time
	StartBefore  *time.Time
	EndBefore    *time.Time
	EndNotBefore *time.Time
}

func (f QueryFilter) match(l Lease) bool {
	if f.UnitID != nil && l.UnitID != *f.UnitID {
		return false
	}
	if f.ContactID != nil && l.ContactID != *f.ContactID {
		return false
	}
	if len(f.Statuses) > 0 && !statusIn(l.Status, f.Statuses) {
		return false
	}
	if f.StartAfter != nil && !l.StartDate.After(*f.StartAfter) {
		return false
	}
	if f.StartBefore != nil && !l.StartDate.Before(*f.StartBefore) {
		return false
	}
	if f.EndBefore != nil && !l.EndDate.Before(*f.EndBefore) {
		return false
	}
	if f.EndNotBefore != nil && l.EndDate.Before(*f.EndNotBefore) {
		return false
	}
	return true
}

func statusIn(s leasestatus.Lease, set []leasestatus.Lease) bool {
	for _, v := range set {
		if s.Equal(v) {
			return true
		}
	}
	return false
}
