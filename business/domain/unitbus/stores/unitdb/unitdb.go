// Package unitdb contains unit related CRUD functionality.
package unitdb

import (
	"github.com/jcpaschoal/leasekeeper/business/domain/unitbus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/sqlstore"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *sqlstore.Store[unitbus.Unit, unitDB] {
	return sqlstore.NewStore(log, db, sqlstore.Table[unitbus.Unit, unitDB]{
		Name:    unitbus.Kind,
		Columns: []string{"name", "address", "bedrooms", "monthly_rent"},
		ToDB:    toDBUnit,
		ToBus:   toBusUnit,
	})
}
