// Package renewalstatus represents the renewal negotiation status of a lease in the system.
package renewalstatus

import "fmt"

// The set of statuses that can be used.
var (
	None     = newRenewal("NONE")
	Pending  = newRenewal("PENDING")
	Accepted = newRenewal("ACCEPTED")
	Declined = newRenewal("DECLINED")
)

// =============================================================================

// Set of known statuses.
var statuses = make(map[string]Renewal)

// Renewal represents a renewal negotiation status of a lease.
type Renewal struct {
	value string
}

func newRenewal(status string) Renewal {
	r := Renewal{status}
	statuses[status] = r
	return r
}

// String returns the name of the status.
func (r Renewal) String() string {
	return r.value
}

// Equal provides support for the go-cmp package and testing.
func (r Renewal) Equal(r2 Renewal) bool {
	return r.value == r2.value
}

// MarshalText provides support for logging and any marshal needs.
func (r Renewal) MarshalText() ([]byte, error) {
	return []byte(r.value), nil
}

// =============================================================================

// Parse parses the string value and returns a status if one exists.
func Parse(value string) (Renewal, error) {
	r, exists := statuses[value]
	if !exists {
		return Renewal{}, fmt.Errorf("invalid renewal status %q", value)
	}

	return r, nil
}

// MustParse parses the string value and returns a status if one exists. If
// an error occurs the function panics.
func MustParse(value string) Renewal {
	r, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return r
}
