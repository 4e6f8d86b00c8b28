// Package tourdb contains tour related CRUD functionality.
package tourdb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/tourbus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/sqlstore"
	"github.com/jcpaschoal/leasekeeper/business/types/tourstatus"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jmoiron/sqlx"
)

type tourDB struct {
	sqlstore.MetaDB
	UnitID      uuid.NullUUID `db:"unit_id"`
	ContactID   uuid.NullUUID `db:"contact_id"`
	ScheduledAt time.Time     `db:"scheduled_at"`
	Status      string        `db:"status"`
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *sqlstore.Store[tourbus.Tour, tourDB] {
	return sqlstore.NewStore(log, db, sqlstore.Table[tourbus.Tour, tourDB]{
		Name:    tourbus.Kind,
		Columns: []string{"unit_id", "contact_id", "scheduled_at", "status"},
		ToDB:    toDBTour,
		ToBus:   toBusTour,
	})
}

func toDBTour(bus tourbus.Tour) tourDB {
	return tourDB{
		MetaDB:      sqlstore.ToMetaDB(bus.Meta),
		UnitID:      sqlstore.NullUUID(bus.UnitID),
		ContactID:   sqlstore.NullUUID(bus.ContactID),
		ScheduledAt: bus.ScheduledAt.UTC(),
		Status:      bus.Status.String(),
	}
}

func toBusTour(db tourDB) (tourbus.Tour, error) {
	status, err := tourstatus.Parse(db.Status)
	if err != nil {
		return tourbus.Tour{}, fmt.Errorf("parse status: %w", err)
	}

	return tourbus.Tour{
		Meta:        db.MetaDB.ToMeta(),
		UnitID:      db.UnitID.UUID,
		ContactID:   db.ContactID.UUID,
		ScheduledAt: db.ScheduledAt.In(time.UTC),
		Status:      status,
	}, nil
}
