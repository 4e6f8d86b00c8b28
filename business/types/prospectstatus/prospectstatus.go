// Package prospectstatus represents the prospect pipeline stage in the system.
package prospectstatus

import "fmt"

// The set of statuses that can be used.
var (
	Lead          = newProspect("LEAD")
	Contacted     = newProspect("CONTACTED")
	TourScheduled = newProspect("TOUR_SCHEDULED")
	Applied       = newProspect("APPLIED")
	Converted     = newProspect("CONVERTED")
	Lost          = newProspect("LOST")
)

// =============================================================================

// Set of known statuses.
var statuses = make(map[string]Prospect)

// Prospect represents a prospect pipeline stage.
type Prospect struct {
	value string
}

func newProspect(status string) Prospect {
	p := Prospect{status}
	statuses[status] = p
	return p
}

// String returns the name of the status.
func (p Prospect) String() string {
	return p.value
}

// Equal provides support for the go-cmp package and testing.
func (p Prospect) Equal(p2 Prospect) bool {
	return p.value == p2.value
}

// MarshalText provides support for logging and any marshal needs.
func (p Prospect) MarshalText() ([]byte, error) {
	return []byte(p.value), nil
}

// =============================================================================

// Parse parses the string value and returns a status if one exists.
func Parse(value string) (Prospect, error) {
	p, exists := statuses[value]
	if !exists {
		return Prospect{}, fmt.Errorf("invalid prospect status %q", value)
	}

	return p, nil
}

// MustParse parses the string value and returns a status if one exists. If
// an error occurs the function panics.
func MustParse(value string) Prospect {
	p, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return p
}
