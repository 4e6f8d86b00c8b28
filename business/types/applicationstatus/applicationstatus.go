// Package applicationstatus represents the rental application status in the system.
package applicationstatus

import "fmt"

// The set of statuses that can be used.
var (
	Draft       = newApplication("DRAFT")
	Submitted   = newApplication("SUBMITTED")
	UnderReview = newApplication("UNDER_REVIEW")
	Approved    = newApplication("APPROVED")
	Denied      = newApplication("DENIED")
	Withdrawn   = newApplication("WITHDRAWN")
	Expired     = newApplication("EXPIRED")
)

// =============================================================================

// Set of known statuses.
var statuses = make(map[string]Application)

// Application represents a rental application status.
type Application struct {
	value string
}

func newApplication(status string) Application {
	a := Application{status}
	statuses[status] = a
	return a
}

// String returns the name of the status.
func (a Application) String() string {
	return a.value
}

// Equal provides support for the go-cmp package and testing.
func (a Application) Equal(a2 Application) bool {
	return a.value == a2.value
}

// MarshalText provides support for logging and any marshal needs.
func (a Application) MarshalText() ([]byte, error) {
	return []byte(a.value), nil
}

// =============================================================================

// Parse parses the string value and returns a status if one exists.
func Parse(value string) (Application, error) {
	a, exists := statuses[value]
	if !exists {
		return Application{}, fmt.Errorf("invalid application status %q", value)
	}

	return a, nil
}

// MustParse parses the string value and returns a status if one exists. If
// an error occurs the function panics.
func MustParse(value string) Application {
	a, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return a
}
