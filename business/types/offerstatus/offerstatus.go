// Package offerstatus represents the lease offer status in the system.
package offerstatus

import "fmt"

// The set of statuses that can be used.
var (
	Pending   = newOffer("PENDING")
	Sent      = newOffer("SENT")
	Accepted  = newOffer("ACCEPTED")
	Declined  = newOffer("DECLINED")
	Withdrawn = newOffer("WITHDRAWN")
	Expired   = newOffer("EXPIRED")
)

// =============================================================================

// Set of known statuses.
var statuses = make(map[string]Offer)

// Offer represents a lease offer status.
type Offer struct {
	value string
}

func newOffer(status string) Offer {
	o := Offer{status}
	statuses[status] = o
	return o
}

// String returns the name of the status.
func (o Offer) String() string {
	return o.value
}

// Equal provides support for the go-cmp package and testing.
func (o Offer) Equal(o2 Offer) bool {
	return o.value == o2.value
}

// MarshalText provides support for logging and any marshal needs.
func (o Offer) MarshalText() ([]byte, error) {
	return []byte(o.value), nil
}

// =============================================================================

// Parse parses the string value and returns a status if one exists.
func Parse(value string) (Offer, error) {
	o, exists := statuses[value]
	if !exists {
		return Offer{}, fmt.Errorf("invalid offer status %q", value)
	}

	return o, nil
}

// MustParse parses the string value and returns a status if one exists. If
// an error occurs the function panics.
func MustParse(value string) Offer {
	o, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return o
}
