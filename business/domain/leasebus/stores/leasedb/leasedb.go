// Package leasedb contains lease related CRUD functionality.
package leasedb

import (
	"github.com/jcpaschoal/leasekeeper/business/domain/leasebus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/sqlstore"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jmoiron/sqlx"
)

var columns = []string{
	"unit_id", "contact_id", "start_date", "end_date", "status", "renewal_status",
	"renewal_notice_sent", "renewal_notice_sent_at",
	"renewal_reminder_sent", "renewal_reminder_sent_at",
	"final_reminder_sent", "final_reminder_sent_at",
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *sqlstore.Store[leasebus.Lease, leaseDB] {
	return sqlstore.NewStore(log, db, sqlstore.Table[leasebus.Lease, leaseDB]{
		Name:    leasebus.Kind,
		Columns: columns,
		ToDB:    toDBLease,
		ToBus:   toBusLease,
	})
}
