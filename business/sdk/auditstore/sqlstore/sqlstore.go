// Package sqlstore implements the auditstore backend on postgres.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Table describes how records of type T map onto the rows D of one table.
// Columns lists the table's own columns; the audit columns are implied.
type Table[T any, D any] struct {
	Name    string
	Columns []string
	ToDB    func(T) D
	ToBus   func(D) (T, error)
}

// Store manages the set of APIs for one table.
type Store[T auditstore.Record[T], D any] struct {
	log   *logger.Logger
	db    sqlx.ExtContext
	table Table[T, D]
	q     queries
	inTx  bool
}

// NewStore constructs the api for data access.
func NewStore[T auditstore.Record[T], D any](log *logger.Logger, db *sqlx.DB, table Table[T, D]) *Store[T, D] {
	return &Store[T, D]{
		log:   log,
		db:    db,
		table: table,
		q:     buildQueries(table.Name, table.Columns),
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB
// value with a sqlx DB value that is currently inside a transaction.
func (s *Store[T, D]) NewWithTx(tx sqldb.CommitRollbacker) (auditstore.Storer[T], error) {
	ec, err := sqldb.GetExtContext(tx)
	if err != nil {
		return nil, err
	}

	return &Store[T, D]{
		log:   s.log,
		db:    ec,
		table: s.table,
		q:     s.q,
		inTx:  true,
	}, nil
}

// Insert adds a new row.
func (s *Store[T, D]) Insert(ctx context.Context, rec T) error {
	if err := sqldb.NamedExecContext(ctx, s.log, s.db, s.q.insert, s.table.ToDB(rec)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Replace overwrites every column of an existing row.
func (s *Store[T, D]) Replace(ctx context.Context, rec T) error {
	n, err := sqldb.NamedExecContextAffected(ctx, s.log, s.db, s.q.update, s.table.ToDB(rec))
	if err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	if n == 0 {
		return auditstore.ErrNotFound
	}

	return nil
}

// Remove physically deletes a row.
func (s *Store[T, D]) Remove(ctx context.Context, id uuid.UUID) error {
	data := struct {
		ID uuid.UUID `db:"id"`
	}{
		ID: id,
	}

	n, err := sqldb.NamedExecContextAffected(ctx, s.log, s.db, s.q.remove, data)
	if err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	if n == 0 {
		return auditstore.ErrNotFound
	}

	return nil
}

// QueryByID returns the row with the id, deleted or not. Inside a
// transaction the row stays locked until the transaction ends.
func (s *Store[T, D]) QueryByID(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T

	data := struct {
		ID uuid.UUID `db:"id"`
	}{
		ID: id,
	}

	query := s.q.byID
	if s.inTx {
		query = s.q.byIDForUpdate
	}

	var dbRec D
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, query, data, &dbRec); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return zero, auditstore.ErrNotFound
		}
		return zero, fmt.Errorf("namedquerystruct: %w", err)
	}

	return s.table.ToBus(dbRec)
}

// QueryByTenant returns the live rows of a tenant, oldest first.
func (s *Store[T, D]) QueryByTenant(ctx context.Context, tenantID uuid.UUID) ([]T, error) {
	data := struct {
		TenantID uuid.UUID `db:"tenant_id"`
	}{
		TenantID: tenantID,
	}

	var dbRecs []D
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, s.q.byTenant, data, &dbRecs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	recs := make([]T, 0, len(dbRecs))
	for _, dbRec := range dbRecs {
		rec, err := s.table.ToBus(dbRec)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, nil
}

// QueryTenantIDs returns the distinct tenants owning live rows.
func (s *Store[T, D]) QueryTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	type tenantRow struct {
		TenantID uuid.UUID `db:"tenant_id"`
	}

	var rows []tenantRow
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, s.q.tenantIDs, struct{}{}, &rows); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.TenantID
	}

	return ids, nil
}

// =============================================================================

type queries struct {
	insert    string
	update    string
	remove    string
	byID          string
	byIDForUpdate string
	byTenant      string
	tenantIDs     string
}

func buildQueries(table string, columns []string) queries {
	all := append(append([]string{}, metaColumns...), columns...)

	params := make([]string, len(all))
	for i, c := range all {
		params[i] = ":" + c
	}

	var sets []string
	for _, c := range all {
		if c == "id" || c == "tenant_id" || c == "created_by" || c == "created_at" {
			continue
		}
		sets = append(sets, c+" = :"+c)
	}

	cols := strings.Join(all, ", ")

	return queries{
		insert:        fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, cols, strings.Join(params, ", ")),
		update:        fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", table, strings.Join(sets, ", ")),
		remove:        fmt.Sprintf("DELETE FROM %s WHERE id = :id", table),
		byID:          fmt.Sprintf("SELECT %s FROM %s WHERE id = :id", cols, table),
		byIDForUpdate: fmt.Sprintf("SELECT %s FROM %s WHERE id = :id FOR UPDATE", cols, table),
		byTenant:      fmt.Sprintf("SELECT %s FROM %s WHERE tenant_id = :tenant_id AND deleted = FALSE ORDER BY created_at, id", cols, table),
		tenantIDs:     fmt.Sprintf("SELECT DISTINCT tenant_id FROM %s WHERE deleted = FALSE ORDER BY tenant_id", table),
	}
}
