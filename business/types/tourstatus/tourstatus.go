// Package tourstatus represents the tour status in the system.
package tourstatus

import "fmt"

// The set of statuses that can be used.
var (
	Scheduled = newTour("SCHEDULED")
	Completed = newTour("COMPLETED")
	Cancelled = newTour("CANCELLED")
	NoShow    = newTour("NO_SHOW")
)

// =============================================================================

// Set of known statuses.
var statuses = make(map[string]Tour)

// Tour represents a tour status.
type Tour struct {
	value string
}

func newTour(status string) Tour {
	t := Tour{status}
	statuses[status] = t
	return t
}

// String returns the name of the status.
func (t Tour) String() string {
	return t.value
}

// Equal provides support for the go-cmp package and testing.
func (t Tour) Equal(t2 Tour) bool {
	return t.value == t2.value
}

// MarshalText provides support for logging and any marshal needs.
func (t Tour) MarshalText() ([]byte, error) {
	return []byte(t.value), nil
}

// =============================================================================

// Parse parses the string value and returns a status if one exists.
func Parse(value string) (Tour, error) {
	t, exists := statuses[value]
	if !exists {
		return Tour{}, fmt.Errorf("invalid tour status %q", value)
	}

	return t, nil
}

// MustParse parses the string value and returns a status if one exists. If
// an error occurs the function panics.
func MustParse(value string) Tour {
	t, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return t
}
