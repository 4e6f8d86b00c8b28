package unitdb

import (
	"github.com/jcpaschoal/leasekeeper/business/domain/unitbus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/sqlstore"
	"github.com/shopspring/decimal"
)

type unitDB struct {
	sqlstore.MetaDB
	Name        string          `db:"name"`
	Address     string          `db:"address"`
	Bedrooms    int             `db:"bedrooms"`
	MonthlyRent decimal.Decimal `db:"monthly_rent"`
}

func toDBUnit(bus unitbus.Unit) unitDB {
	return unitDB{
		MetaDB:      sqlstore.ToMetaDB(bus.Meta),
		Name:        bus.Name,
		Address:     bus.Address,
		Bedrooms:    bus.Bedrooms,
		MonthlyRent: bus.MonthlyRent,
	}
}

func toBusUnit(db unitDB) (unitbus.Unit, error) {
	return unitbus.Unit{
		Meta:        db.MetaDB.ToMeta(),
		Name:        db.Name,
		Address:     db.Address,
		Bedrooms:    db.Bedrooms,
		MonthlyRent: db.MonthlyRent,
	}, nil
}
