// Package policydb contains tenant policy related CRUD functionality.
package policydb

import (
	"github.com/jcpaschoal/leasekeeper/business/domain/policybus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/sqlstore"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type policyDB struct {
	sqlstore.MetaDB
	GracePeriodDays  int             `db:"grace_period_days"`
	LateFeePercent   decimal.Decimal `db:"late_fee_percent"`
	LateFeeCap       decimal.Decimal `db:"late_fee_cap"`
	ReminderLeadDays int             `db:"reminder_lead_days"`
	NoShowGraceHours int             `db:"no_show_grace_hours"`
	LateFeeAutoApply bool            `db:"late_fee_auto_apply"`
	RemindersEnabled bool            `db:"reminders_enabled"`
	DividendsEnabled bool            `db:"dividends_enabled"`
}

var columns = []string{
	"grace_period_days", "late_fee_percent", "late_fee_cap", "reminder_lead_days",
	"no_show_grace_hours", "late_fee_auto_apply", "reminders_enabled", "dividends_enabled",
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *sqlstore.Store[policybus.Policy, policyDB] {
	return sqlstore.NewStore(log, db, sqlstore.Table[policybus.Policy, policyDB]{
		Name:    policybus.Kind,
		Columns: columns,
		ToDB:    toDBPolicy,
		ToBus:   toBusPolicy,
	})
}

func toDBPolicy(bus policybus.Policy) policyDB {
	return policyDB{
		MetaDB:           sqlstore.ToMetaDB(bus.Meta),
		GracePeriodDays:  bus.GracePeriodDays,
		LateFeePercent:   bus.LateFeePercent,
		LateFeeCap:       bus.LateFeeCap,
		ReminderLeadDays: bus.ReminderLeadDays,
		NoShowGraceHours: bus.NoShowGraceHours,
		LateFeeAutoApply: bus.LateFeeAutoApply,
		RemindersEnabled: bus.RemindersEnabled,
		DividendsEnabled: bus.DividendsEnabled,
	}
}

func toBusPolicy(db policyDB) (policybus.Policy, error) {
	return policybus.Policy{
		Meta:             db.MetaDB.ToMeta(),
		GracePeriodDays:  db.GracePeriodDays,
		LateFeePercent:   db.LateFeePercent,
		LateFeeCap:       db.LateFeeCap,
		ReminderLeadDays: db.ReminderLeadDays,
		NoShowGraceHours: db.NoShowGraceHours,
		LateFeeAutoApply: db.LateFeeAutoApply,
		RemindersEnabled: db.RemindersEnabled,
		DividendsEnabled: db.DividendsEnabled,
	}, nil
}
