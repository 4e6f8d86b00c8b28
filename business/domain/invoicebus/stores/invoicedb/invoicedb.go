// Package invoicedb contains invoice related CRUD functionality.
package invoicedb

import (
	"github.com/jcpaschoal/leasekeeper/business/domain/invoicebus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/sqlstore"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jmoiron/sqlx"
)

var columns = []string{
	"unit_id", "lease_id", "contact_id", "amount", "amount_paid", "late_fee", "late_fee_applied",
	"due_date", "status", "reminder_sent", "reminder_sent_at", "notes",
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *sqlstore.Store[invoicebus.Invoice, invoiceDB] {
	return sqlstore.NewStore(log, db, sqlstore.Table[invoicebus.Invoice, invoiceDB]{
		Name:    invoicebus.Kind,
		Columns: columns,
		ToDB:    toDBInvoice,
		ToBus:   toBusInvoice,
	})
}
