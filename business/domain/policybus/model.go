package policybus

import (
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/shopspring/decimal"
)

// Kind names the tenant policy record kind and its table.
const Kind = "tenant_policy"

// Policy is a tenant's configuration for the recurring workflows. Every
// tenant the scheduler knows about owns exactly one.
type Policy struct {
	auditstore.Meta
	GracePeriodDays  int
	LateFeePercent   decimal.Decimal
	LateFeeCap       decimal.Decimal
	ReminderLeadDays int
	NoShowGraceHours int
	LateFeeAutoApply bool
	RemindersEnabled bool
	DividendsEnabled bool
}

// RecordMeta implements auditstore.Record.
func (p Policy) RecordMeta() auditstore.Meta { return p.Meta }

// WithRecordMeta implements auditstore.Record.
func (p Policy) WithRecordMeta(m auditstore.Meta) Policy {
	p.Meta = m
	return p
}

// NewPolicy contains information needed to create a tenant policy.
type NewPolicy struct {
	GracePeriodDays  int             `json:"gracePeriodDays" validate:"gte=0,lte=90"`
	LateFeePercent   decimal.Decimal `json:"lateFeePercent"`
	LateFeeCap       decimal.Decimal `json:"lateFeeCap"`
	ReminderLeadDays int             `json:"reminderLeadDays" validate:"gte=0,lte=60"`
	NoShowGraceHours int             `json:"noShowGraceHours" validate:"gte=0,lte=168"`
	LateFeeAutoApply bool            `json:"lateFeeAutoApply"`
	RemindersEnabled bool            `json:"remindersEnabled"`
	DividendsEnabled bool            `json:"dividendsEnabled"`
}

// DefaultNewPolicy returns the values a freshly provisioned tenant starts
// with.
func DefaultNewPolicy() NewPolicy {
	return NewPolicy{
		GracePeriodDays:  5,
		LateFeePercent:   decimal.NewFromInt(5),
		LateFeeCap:       decimal.NewFromInt(50),
		ReminderLeadDays: 3,
		NoShowGraceHours: 2,
		LateFeeAutoApply: true,
		RemindersEnabled: true,
		DividendsEnabled: false,
	}
}

// UpdatePolicy contains information needed to update a tenant policy.
type UpdatePolicy struct {
	GracePeriodDays  *int             `json:"gracePeriodDays" validate:"omitempty,gte=0,lte=90"`
	LateFeePercent   *decimal.Decimal `json:"lateFeePercent"`
	LateFeeCap       *decimal.Decimal `json:"lateFeeCap"`
	ReminderLeadDays *int             `json:"reminderLeadDays" validate:"omitempty,gte=0,lte=60"`
	NoShowGraceHours *int             `json:"noShowGraceHours" validate:"omitempty,gte=0,lte=168"`
	LateFeeAutoApply *bool            `json:"lateFeeAutoApply"`
	RemindersEnabled *bool            `json:"remindersEnabled"`
	DividendsEnabled *bool            `json:"dividendsEnabled"`
}
