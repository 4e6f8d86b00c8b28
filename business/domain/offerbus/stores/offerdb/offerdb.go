// Package offerdb contains lease offer related CRUD functionality.
package offerdb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/offerbus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/sqlstore"
	"github.com/jcpaschoal/leasekeeper/business/types/offerstatus"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type offerDB struct {
	sqlstore.MetaDB
	ApplicationID uuid.NullUUID   `db:"application_id"`
	UnitID        uuid.NullUUID   `db:"unit_id"`
	ContactID     uuid.NullUUID   `db:"contact_id"`
	Rent          decimal.Decimal `db:"rent"`
	Status        string          `db:"status"`
	ExpiresAt     time.Time       `db:"expires_at"`
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *sqlstore.Store[offerbus.Offer, offerDB] {
	return sqlstore.NewStore(log, db, sqlstore.Table[offerbus.Offer, offerDB]{
		Name:    offerbus.Kind,
		Columns: []string{"application_id", "unit_id", "contact_id", "rent", "status", "expires_at"},
		ToDB:    toDBOffer,
		ToBus:   toBusOffer,
	})
}

func toDBOffer(bus offerbus.Offer) offerDB {
	return offerDB{
		MetaDB:        sqlstore.ToMetaDB(bus.Meta),
		ApplicationID: sqlstore.NullUUID(bus.ApplicationID),
		UnitID:        sqlstore.NullUUID(bus.UnitID),
		ContactID:     sqlstore.NullUUID(bus.ContactID),
		Rent:          bus.Rent,
		Status:        bus.Status.String(),
		ExpiresAt:     bus.ExpiresAt.UTC(),
	}
}

func toBusOffer(db offerDB) (offerbus.Offer, error) {
	status, err := offerstatus.Parse(db.Status)
	if err != nil {
		return offerbus.Offer{}, fmt.Errorf("parse status: %w", err)
	}

	return offerbus.Offer{
		Meta:          db.MetaDB.ToMeta(),
		ApplicationID: db.ApplicationID.UUID,
		UnitID:        db.UnitID.UUID,
		ContactID:     db.ContactID.UUID,
		Rent:          db.Rent,
		Status:        status,
		ExpiresAt:     db.ExpiresAt.In(time.UTC),
	}, nil
}
