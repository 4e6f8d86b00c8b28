// Package applicationdb contains rental application related CRUD
// functionality.
package applicationdb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/applicationbus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/sqlstore"
	"github.com/jcpaschoal/leasekeeper/business/types/applicationstatus"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jmoiron/sqlx"
)

type applicationDB struct {
	sqlstore.MetaDB
	UnitID    uuid.NullUUID `db:"unit_id"`
	ContactID uuid.NullUUID `db:"contact_id"`
	Status    string        `db:"status"`
	ExpiresAt time.Time     `db:"expires_at"`
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *sqlstore.Store[applicationbus.Application, applicationDB] {
	return sqlstore.NewStore(log, db, sqlstore.Table[applicationbus.Application, applicationDB]{
		Name:    applicationbus.Kind,
		Columns: []string{"unit_id", "contact_id", "status", "expires_at"},
		ToDB:    toDBApplication,
		ToBus:   toBusApplication,
	})
}

func toDBApplication(bus applicationbus.Application) applicationDB {
	return applicationDB{
		MetaDB:    sqlstore.ToMetaDB(bus.Meta),
		UnitID:    sqlstore.NullUUID(bus.UnitID),
		ContactID: sqlstore.NullUUID(bus.ContactID),
		Status:    bus.Status.String(),
		ExpiresAt: bus.ExpiresAt.UTC(),
	}
}

func toBusApplication(db applicationDB) (applicationbus.Application, error) {
	status, err := applicationstatus.Parse(db.Status)
	if err != nil {
		return applicationbus.Application{}, fmt.Errorf("parse status: %w", err)
	}

	return applicationbus.Application{
		Meta:      db.MetaDB.ToMeta(),
		UnitID:    db.UnitID.UUID,
		ContactID: db.ContactID.UUID,
		Status:    status,
		ExpiresAt: db.ExpiresAt.In(time.UTC),
	}, nil
}
