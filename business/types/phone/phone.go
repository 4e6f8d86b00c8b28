// Package phone represents an optional contact phone number.
package phone

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// digitsRegEx accepts an optional leading + followed by 7 to 15 digits once
// separators have been stripped.
var digitsRegEx = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

var separators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// Null is a phone number that may be absent. Numbers are stored without
// separators so "+1 (555) 010-2030" and "+15550102030" compare equal.
type Null struct {
	value string
	valid bool
}

// ParseNull normalizes the value and returns a phone number. An empty value
// yields an absent number.
func ParseNull(value string) (Null, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Null{}, nil
	}

	norm := separators.Replace(value)
	if !digitsRegEx.MatchString(norm) {
		return Null{}, fmt.Errorf("invalid phone %q", value)
	}

	return Null{value: norm, valid: true}, nil
}

// MustParseNull parses the value and panics on error.
func MustParseNull(value string) Null {
	n, err := ParseNull(value)
	if err != nil {
		panic(err)
	}

	return n
}

// Valid reports whether a number is present.
func (n Null) Valid() bool {
	return n.valid
}

// String returns the normalized number or the empty string.
func (n Null) String() string {
	return n.value
}

// Equal provides support for the go-cmp package and testing.
func (n Null) Equal(n2 Null) bool {
	return n.value == n2.value && n.valid == n2.valid
}

// MarshalText provides support for logging and any marshal needs.
func (n Null) MarshalText() ([]byte, error) {
	return []byte(n.value), nil
}

// ToSQLNullString converts a Null value to a sql NullString.
func ToSQLNullString(n Null) sql.NullString {
	return sql.NullString{
		String: n.value,
		Valid:  n.valid,
	}
}
