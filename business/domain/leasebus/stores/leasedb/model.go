package leasedb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/leasebus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/sqlstore"
	"github.com/jcpaschoal/leasekeeper/business/types/leasestatus"
	"github.com/jcpaschoal/leasekeeper/business/types/renewalstatus"
)

type leaseDB struct {
	sqlstore.MetaDB
	UnitID                uuid.NullUUID `db:"unit_id"`
	ContactID             uuid.NullUUID `db:"contact_id"`
	StartDate             time.Time     `db:"start_date"`
	EndDate               time.Time     `db:"end_date"`
	Status                string        `db:"status"`
	RenewalStatus         string        `db:"renewal_status"`
	RenewalNoticeSent     bool          `db:"renewal_notice_sent"`
	RenewalNoticeSentAt   *time.Time    `db:"renewal_notice_sent_at"`
	RenewalReminderSent   bool          `db:"renewal_reminder_sent"`
	RenewalReminderSentAt *time.Time    `db:"renewal_reminder_sent_at"`
	FinalReminderSent     bool          `db:"final_reminder_sent"`
	FinalReminderSentAt   *time.Time    `db:"final_reminder_sent_at"`
}

func toDBLease(bus leasebus.Lease) leaseDB {
	return leaseDB{
		MetaDB:                sqlstore.ToMetaDB(bus.Meta),
		UnitID:                sqlstore.NullUUID(bus.UnitID),
		ContactID:             sqlstore.NullUUID(bus.ContactID),
		StartDate:             bus.StartDate.UTC(),
		EndDate:               bus.EndDate.UTC(),
		Status:                bus.Status.String(),
		RenewalStatus:         bus.RenewalStatus.String(),
		RenewalNoticeSent:     bus.RenewalNoticeSent,
		RenewalNoticeSentAt:   sqlstore.NullTime(bus.RenewalNoticeSentAt),
		RenewalReminderSent:   bus.RenewalReminderSent,
		RenewalReminderSentAt: sqlstore.NullTime(bus.RenewalReminderSentAt),
		FinalReminderSent:     bus.FinalReminderSent,
		FinalReminderSentAt:   sqlstore.NullTime(bus.FinalReminderSentAt),
	}
}

func toBusLease(db leaseDB) (leasebus.Lease, error) {
	status, err := leasestatus.Parse(db.Status)
	if err != nil {
		return leasebus.Lease{}, fmt.Errorf("parse status: %w", err)
	}

	renewal, err := renewalstatus.Parse(db.RenewalStatus)
	if err != nil {
		return leasebus.Lease{}, fmt.Errorf("parse renewal status: %w", err)
	}

	return leasebus.Lease{
		Meta:                  db.MetaDB.ToMeta(),
		UnitID:                db.UnitID.UUID,
		ContactID:             db.ContactID.UUID,
		StartDate:             db.StartDate.In(time.UTC),
		EndDate:               db.EndDate.In(time.UTC),
		Status:                status,
		RenewalStatus:         renewal,
		RenewalNoticeSent:     db.RenewalNoticeSent,
		RenewalNoticeSentAt:   sqlstore.FromNullTime(db.RenewalNoticeSentAt),
		RenewalReminderSent:   db.RenewalReminderSent,
		RenewalReminderSentAt: sqlstore.FromNullTime(db.RenewalReminderSentAt),
		FinalReminderSent:     db.FinalReminderSent,
		FinalReminderSentAt:   sqlstore.FromNullTime(db.FinalReminderSentAt),
	}, nil
}
