package earningsbus

import (
	"time"

	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/shopspring/decimal"
)

// Kind names the earnings aggregation record kind and its table.
const Kind = "earnings_aggregation"

// Aggregation holds a tenant's earnings for one calendar year and whether
// they have been handed to the dividend calculation.
type Aggregation struct {
	auditstore.Meta
	Year          int
	Earnings      decimal.Decimal
	Distributed   bool
	DistributedAt time.Time
}

// RecordMeta implements auditstore.Record.
func (a Aggregation) RecordMeta() auditstore.Meta { return a.Meta }

// WithRecordMeta implements auditstore.Record.
func (a Aggregation) WithRecordMeta(m auditstore.Meta) Aggregation {
	a.Meta = m
	return a
}

// NewAggregation contains information needed to record a year's earnings.
type NewAggregation struct {
	Year     int `json:"year" validate:"gte=2000,lte=9999"`
	Earnings decimal.Decimal
	Sample   bool
}
