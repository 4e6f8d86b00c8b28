// Package leasestatus represents the lease status in the system.
package leasestatus

import "fmt"

// The set of statuses that can be used.
var (
	Pending      = newLease("PENDING")
	Active       = newLease("ACTIVE")
	Renewed      = newLease("RENEWED")
	MonthToMonth = newLease("MONTH_TO_MONTH")
	NoticeGiven  = newLease("NOTICE_GIVEN")
	Terminated   = newLease("TERMINATED")
	Expired      = newLease("EXPIRED")
)

// =============================================================================

// Set of known statuses.
var statuses = make(map[string]Lease)

// Lease represents a lease status.
type Lease struct {
	value string
}

func newLease(status string) Lease {
	l := Lease{status}
	statuses[status] = l
	return l
}

// String returns the name of the status.
func (l Lease) String() string {
	return l.value
}

// Equal provides support for the go-cmp package and testing.
func (l Lease) Equal(l2 Lease) bool {
	return l.value == l2.value
}

// MarshalText provides support for logging and any marshal needs.
func (l Lease) MarshalText() ([]byte, error) {
	return []byte(l.value), nil
}

// =============================================================================

// Parse parses the string value and returns a status if one exists.
func Parse(value string) (Lease, error) {
	l, exists := statuses[value]
	if !exists {
		return Lease{}, fmt.Errorf("invalid lease status %q", value)
	}

	return l, nil
}

// MustParse parses the string value and returns a status if one exists. If
// an error occurs the function panics.
func MustParse(value string) Lease {
	l, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return l
}
