package prospectdb

import (
	"database/sql"
	"fmt"
	"net/mail"

	"github.com/jcpaschoal/leasekeeper/business/domain/prospectbus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/sqlstore"
	"github.com/jcpaschoal/leasekeeper/business/types/phone"
	"github.com/jcpaschoal/leasekeeper/business/types/prospectstatus"
)

type prospectDB struct {
	sqlstore.MetaDB
	Name        string         `db:"name"`
	Email       string         `db:"email"`
	Phone       sql.NullString `db:"phone"`
	Status      string         `db:"status"`
	PriorStatus sql.NullString `db:"prior_status"`
}

func toDBProspect(bus prospectbus.Prospect) prospectDB {
	return prospectDB{
		MetaDB:      sqlstore.ToMetaDB(bus.Meta),
		Name:        bus.Name,
		Email:       bus.Email.Address,
		Phone:       phone.ToSQLNullString(bus.Phone),
		Status:      bus.Status.String(),
		PriorStatus: sql.NullString{String: bus.PriorStatus.String(), Valid: bus.PriorStatus.String() != ""},
	}
}

func toBusProspect(db prospectDB) (prospectbus.Prospect, error) {
	status, err := prospectstatus.Parse(db.Status)
	if err != nil {
		return prospectbus.Prospect{}, fmt.Errorf("parse status: %w", err)
	}

	var prior prospectstatus.Prospect
	if db.PriorStatus.Valid {
		prior, err = prospectstatus.Parse(db.PriorStatus.String)
		if err != nil {
			return prospectbus.Prospect{}, fmt.Errorf("parse prior status: %w", err)
		}
	}

	ph, err := phone.ParseNull(db.Phone.String)
	if err != nil {
		return prospectbus.Prospect{}, fmt.Errorf("parse phone: %w", err)
	}

	return prospectbus.Prospect{
		Meta:        db.MetaDB.ToMeta(),
		Name:        db.Name,
		Email:       mail.Address{Name: db.Name, Address: db.Email},
		Phone:       ph,
		Status:      status,
		PriorStatus: prior,
	}, nil
}
