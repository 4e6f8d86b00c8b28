package invoicedb

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/invoicebus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/sqlstore"
	"github.com/jcpaschoal/leasekeeper/business/types/invoicestatus"
	"github.com/shopspring/decimal"
)

type invoiceDB struct {
	sqlstore.MetaDB
	UnitID         uuid.NullUUID       `db:"unit_id"`
	LeaseID        uuid.NullUUID       `db:"lease_id"`
	ContactID      uuid.NullUUID       `db:"contact_id"`
	Amount         decimal.Decimal     `db:"amount"`
	AmountPaid     decimal.Decimal     `db:"amount_paid"`
	LateFee        decimal.NullDecimal `db:"late_fee"`
	LateFeeApplied bool                `db:"late_fee_applied"`
	DueDate        time.Time           `db:"due_date"`
	Status         string              `db:"status"`
	ReminderSent   bool                `db:"reminder_sent"`
	ReminderSentAt *time.Time          `db:"reminder_sent_at"`
	Notes          string              `db:"notes"`
}

func toDBInvoice(bus invoicebus.Invoice) invoiceDB {
	return invoiceDB{
		MetaDB:         sqlstore.ToMetaDB(bus.Meta),
		UnitID:         sqlstore.NullUUID(bus.UnitID),
		LeaseID:        sqlstore.NullUUID(bus.LeaseID),
		ContactID:      sqlstore.NullUUID(bus.ContactID),
		Amount:         bus.Amount,
		AmountPaid:     bus.AmountPaid,
		LateFee:        bus.LateFee,
		LateFeeApplied: bus.LateFeeApplied,
		DueDate:        bus.DueDate.UTC(),
		Status:         bus.Status.String(),
		ReminderSent:   bus.ReminderSent,
		ReminderSentAt: sqlstore.NullTime(bus.ReminderSentAt),
		Notes:          strings.Join(bus.Notes, "\n"),
	}
}

func toBusInvoice(db invoiceDB) (invoicebus.Invoice, error) {
	status, err := invoicestatus.Parse(db.Status)
	if err != nil {
		return invoicebus.Invoice{}, fmt.Errorf("parse status: %w", err)
	}

	var notes []string
	if db.Notes != "" {
		notes = strings.Split(db.Notes, "\n")
	}

	return invoicebus.Invoice{
		Meta:           db.MetaDB.ToMeta(),
		UnitID:         db.UnitID.UUID,
		LeaseID:        db.LeaseID.UUID,
		ContactID:      db.ContactID.UUID,
		Amount:         db.Amount,
		AmountPaid:     db.AmountPaid,
		LateFee:        db.LateFee,
		LateFeeApplied: db.LateFeeApplied,
		DueDate:        db.DueDate.In(time.UTC),
		Status:         status,
		ReminderSent:   db.ReminderSent,
		ReminderSentAt: sqlstore.FromNullTime(db.ReminderSentAt),
		Notes:          notes,
	}, nil
}
