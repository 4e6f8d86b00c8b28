package unitbus

// QueryFilter holds the available fields a query can be filtered on.
type QueryFilter struct {
	Name        *string
	MinBedrooms *int
}

func (f QueryFilter) match(u Unit) bool {
	if f.Name != nil && u.Name != *f.Name {
		return false
	}
	if f.MinBedrooms != nil && u.Bedrooms < *f.MinBedrooms {
		return false
	}
	return true
}
