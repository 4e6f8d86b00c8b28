package unitbus

import (
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/shopspring/decimal"
)

// Kind names the unit record kind and its table.
const Kind = "unit"

// Unit represents a rentable unit.
type Unit struct {
	auditstore.Meta
	Name        string
	Address     string
	Bedrooms    int
	MonthlyRent decimal.Decimal
}

// RecordMeta implements auditstore.Record.
func (u Unit) RecordMeta() auditstore.Meta { return u.Meta }

// WithRecordMeta implements auditstore.Record.
func (u Unit) WithRecordMeta(m auditstore.Meta) Unit {
	u.Meta = m
	return u
}

// NewUnit contains information needed to create a new unit.
type NewUnit struct {
	Name        string `json:"name" validate:"required"`
	Address     string `json:"address" validate:"required"`
	Bedrooms    int    `json:"bedrooms" validate:"gte=0"`
	MonthlyRent decimal.Decimal
	Sample      bool
}

// UpdateUnit contains information needed to update a unit.
type UpdateUnit struct {
	Name        *string
	Address     *string
	Bedrooms    *int
	MonthlyRent *decimal.Decimal
}
