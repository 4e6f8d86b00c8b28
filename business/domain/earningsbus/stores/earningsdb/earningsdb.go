// Package earningsdb contains earnings aggregation related CRUD
// functionality.
package earningsdb

import (
	"time"

	"github.com/jcpaschoal/leasekeeper/business/domain/earningsbus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/sqlstore"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type aggregationDB struct {
	sqlstore.MetaDB
	Year          int             `db:"year"`
	Earnings      decimal.Decimal `db:"earnings"`
	Distributed   bool            `db:"distributed"`
	DistributedAt *time.Time      `db:"distributed_at"`
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *sqlstore.Store[earningsbus.Aggregation, aggregationDB] {
	return sqlstore.NewStore(log, db, sqlstore.Table[earningsbus.Aggregation, aggregationDB]{
		Name:    earningsbus.Kind,
		Columns: []string{"year", "earnings", "distributed", "distributed_at"},
		ToDB: func(bus earningsbus.Aggregation) aggregationDB {
			return aggregationDB{
				MetaDB:        sqlstore.ToMetaDB(bus.Meta),
				Year:          bus.Year,
				Earnings:      bus.Earnings,
				Distributed:   bus.Distributed,
				DistributedAt: sqlstore.NullTime(bus.DistributedAt),
			}
		},
		ToBus: func(db aggregationDB) (earningsbus.Aggregation, error) {
			return earningsbus.Aggregation{
				Meta:          db.MetaDB.ToMeta(),
				Year:          db.Year,
				Earnings:      db.Earnings,
				Distributed:   db.Distributed,
				DistributedAt: sqlstore.FromNullTime(db.DistributedAt),
			}, nil
		},
	})
}
