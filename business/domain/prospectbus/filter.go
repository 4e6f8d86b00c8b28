package prospectbus

import "github.com/jcpaschoal/leasekeeper/business/types/prospectstatus"

// QueryFilter holds the available fields a query can be filtered on.
type QueryFilter struct {
	Status *prospectstatus.Prospect
	Email  *string
}

func (f QueryFilter) match(p Prospect) bool {
	if f.Status != nil && !p.Status.Equal(*f.Status) {
		return false
	}
	if f.Email != nil && p.Email.Address != *f.Email {
		return false
	}
	return true
}
