package invoicebus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/types/invoicestatus"
	"github.com/shopspring/decimal"
)

// Kind names the invoice record kind and its table.
const Kind = "invoice"

// Invoice is an amount billed to a contact. Amount includes an applied late
// fee; LateFee records the fee on its own.
type Invoice struct {
	auditstore.Meta
	UnitID         uuid.UUID
	LeaseID        uuid.UUID
	ContactID      uuid.UUID
	Amount         decimal.Decimal
	AmountPaid     decimal.Decimal
	LateFee        decimal.NullDecimal
	LateFeeApplied bool
	DueDate        time.Time
	Status         invoicestatus.Invoice
	ReminderSent   bool
	ReminderSentAt time.Time
	Notes          []string
}

// RecordMeta implements auditstore.Record.
func (i Invoice) RecordMeta() auditstore.Meta { return i.Meta }

// WithRecordMeta implements auditstore.Record.
func (i Invoice) WithRecordMeta(m auditstore.Meta) Invoice {
	i.Meta = m
	return i
}

// Balance returns what is still owed.
func (i Invoice) Balance() decimal.Decimal {
	return i.Amount.Sub(i.AmountPaid)
}

// NewInvoice contains information needed to create a new invoice.
type NewInvoice struct {
	UnitID    uuid.UUID
	LeaseID   uuid.UUID
	ContactID uuid.UUID
	Amount    decimal.Decimal
	DueDate   time.Time
	Sample    bool
}

// UpdateInvoice contains information needed to update an invoice.
type UpdateInvoice struct {
	DueDate *time.Time
	Amount  *decimal.Decimal
}
