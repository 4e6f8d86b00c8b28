// Package invoicestatus represents the invoice status in the system.
package invoicestatus

import "fmt"

// The set of statuses that can be used.
var (
	Pending   = newInvoice("PENDING")
	Overdue   = newInvoice("OVERDUE")
	Paid      = newInvoice("PAID")
	Partial   = newInvoice("PARTIAL")
	Cancelled = newInvoice("CANCELLED")
)

// =============================================================================

// Set of known statuses.
var statuses = make(map[string]Invoice)

// Invoice represents a invoice status.
type Invoice struct {
	value string
}

func newInvoice(status string) Invoice {
	i := Invoice{status}
	statuses[status] = i
	return i
}

// String returns the name of the status.
func (i Invoice) String() string {
	return i.value
}

// Equal provides support for the go-cmp package and testing.
func (i Invoice) Equal(i2 Invoice) bool {
	return i.value == i2.value
}

// MarshalText provides support for logging and any marshal needs.
func (i Invoice) MarshalText() ([]byte, error) {
	return []byte(i.value), nil
}

// =============================================================================

// Parse parses the string value and returns a status if one exists.
func Parse(value string) (Invoice, error) {
	i, exists := statuses[value]
	if !exists {
		return Invoice{}, fmt.Errorf("invalid invoice status %q", value)
	}

	return i, nil
}

// MustParse parses the string value and returns a status if one exists. If
// an error occurs the function panics.
func MustParse(value string) Invoice {
	i, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return i
}
