// Package prospectdb contains prospect related CRUD functionality.
package prospectdb

import (
	"github.com/jcpaschoal/leasekeeper/business/domain/prospectbus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/sqlstore"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *sqlstore.Store[prospectbus.Prospect, prospectDB] {
	return sqlstore.NewStore(log, db, sqlstore.Table[prospectbus.Prospect, prospectDB]{
		Name:    prospectbus.Kind,
		Columns: []string{"name", "email", "phone", "status", "prior_status"},
		ToDB:    toDBProspect,
		ToBus:   toBusProspect,
	})
}
