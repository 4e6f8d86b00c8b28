package sqlstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
)

// metaColumns are the audit columns every table carries, in insert order.
var metaColumns = []string{"id", "tenant_id", "deleted", "sample", "created_by", "created_at", "updated_by", "updated_at"}

// MetaDB is embedded by every table model to map the audit columns.
type MetaDB struct {
	ID        uuid.UUID `db:"id"`
	TenantID  uuid.UUID `db:"tenant_id"`
	Deleted   bool      `db:"deleted"`
	Sample    bool      `db:"sample"`
	CreatedBy uuid.UUID `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedBy uuid.UUID `db:"updated_by"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ToMetaDB converts the audit fields into their column form.
func ToMetaDB(m auditstore.Meta) MetaDB {
	return MetaDB{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Deleted:   m.Deleted,
		Sample:    m.Sample,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedBy: m.UpdatedBy,
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

// ToMeta converts the column form back into audit fields.
func (db MetaDB) ToMeta() auditstore.Meta {
	return auditstore.Meta{
		ID:        db.ID,
		TenantID:  db.TenantID,
		Deleted:   db.Deleted,
		Sample:    db.Sample,
		CreatedBy: db.CreatedBy,
		CreatedAt: db.CreatedAt.In(time.UTC),
		UpdatedBy: db.UpdatedBy,
		UpdatedAt: db.UpdatedAt.In(time.UTC),
	}
}

// NullUUID maps an optional reference to its column form.
func NullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

// NullTime maps an optional timestamp to a pointer column.
func NullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

// FromNullTime maps a pointer column back to a timestamp.
func FromNullTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.In(time.UTC)
}
