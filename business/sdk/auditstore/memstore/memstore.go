// Package memstore implements the auditstore backend on go-memdb. It backs
// the tests and the in-memory run mode.
package memstore

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
)

type row struct {
	ID       string
	TenantID string
	Deleted  bool
	Value    any
}

// DB is an in-memory database holding one table per record kind.
type DB struct {
	mem *memdb.MemDB
}

// NewDB constructs a database with a table for each kind.
func NewDB(kinds ...string) (*DB, error) {
	schema := memdb.DBSchema{
		Tables: make(map[string]*memdb.TableSchema, len(kinds)),
	}

	for _, kind := range kinds {
		schema.Tables[kind] = &memdb.TableSchema{
			Name: kind,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"tenant": {
					Name:    "tenant",
					Indexer: &memdb.StringFieldIndex{Field: "TenantID"},
				},
			},
		}
	}

	mem, err := memdb.NewMemDB(&schema)
	if err != nil {
		return nil, fmt.Errorf("memdb: %w", err)
	}

	return &DB{mem: mem}, nil
}

// Begin starts a write transaction. Only one write transaction runs at a
// time, so writes through stores not bound to it block until it finishes.
func (db *DB) Begin() (sqldb.CommitRollbacker, error) {
	return &Tx{txn: db.mem.Txn(true)}, nil
}

// Tx is a go-memdb write transaction.
type Tx struct {
	txn  *memdb.Txn
	done bool
}

// Commit makes the transaction's writes visible.
func (tx *Tx) Commit() error {
	if tx.done {
		return sql.ErrTxDone
	}
	tx.done = true
	tx.txn.Commit()
	return nil
}

// Rollback discards the transaction's writes.
func (tx *Tx) Rollback() error {
	if tx.done {
		return sql.ErrTxDone
	}
	tx.done = true
	tx.txn.Abort()
	return nil
}

// =============================================================================

// Store manages the set of APIs for one kind's table.
type Store[T auditstore.Record[T]] struct {
	db    *DB
	table string
	txn   *memdb.Txn
}

// NewStore constructs the api for data access.
func NewStore[T auditstore.Record[T]](db *DB, table string) *Store[T] {
	return &Store[T]{
		db:    db,
		table: table,
	}
}

// NewWithTx constructs a new Store value bound to the transaction.
func (s *Store[T]) NewWithTx(tx sqldb.CommitRollbacker) (auditstore.Storer[T], error) {
	mtx, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("transactor(%T) not of a type *memstore.Tx", tx)
	}

	return &Store[T]{
		db:    s.db,
		table: s.table,
		txn:   mtx.txn,
	}, nil
}

// Insert adds a new record.
func (s *Store[T]) Insert(ctx context.Context, rec T) error {
	return s.write(func(txn *memdb.Txn) error {
		id := rec.RecordMeta().ID.String()

		existing, err := txn.First(s.table, "id", id)
		if err != nil {
			return err
		}
		if existing != nil {
			return sqldb.ErrDBDuplicatedEntry{Column: "id"}
		}

		return txn.Insert(s.table, toRow(rec))
	})
}

// Replace overwrites an existing record.
func (s *Store[T]) Replace(ctx context.Context, rec T) error {
	return s.write(func(txn *memdb.Txn) error {
		existing, err := txn.First(s.table, "id", rec.RecordMeta().ID.String())
		if err != nil {
			return err
		}
		if existing == nil {
			return auditstore.ErrNotFound
		}

		return txn.Insert(s.table, toRow(rec))
	})
}

// Remove physically deletes a record.
func (s *Store[T]) Remove(ctx context.Context, id uuid.UUID) error {
	return s.write(func(txn *memdb.Txn) error {
		existing, err := txn.First(s.table, "id", id.String())
		if err != nil {
			return err
		}
		if existing == nil {
			return auditstore.ErrNotFound
		}

		return txn.Delete(s.table, existing)
	})
}

// QueryByID returns the record with the id, deleted or not.
func (s *Store[T]) QueryByID(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T

	raw, err := s.read().First(s.table, "id", id.String())
	if err != nil {
		return zero, err
	}
	if raw == nil {
		return zero, auditstore.ErrNotFound
	}

	return raw.(row).Value.(T), nil
}

// QueryByTenant returns the live records of a tenant.
func (s *Store[T]) QueryByTenant(ctx context.Context, tenantID uuid.UUID) ([]T, error) {
	it, err := s.read().Get(s.table, "tenant", tenantID.String())
	if err != nil {
		return nil, err
	}

	var recs []T
	for raw := it.Next(); raw != nil; raw = it.Next() {
		r := raw.(row)
		if r.Deleted {
			continue
		}
		recs = append(recs, r.Value.(T))
	}

	slices.SortStableFunc(recs, func(a, b T) int {
		return a.RecordMeta().CreatedAt.Compare(b.RecordMeta().CreatedAt)
	})

	return recs, nil
}

// QueryTenantIDs returns the distinct tenants owning live records.
func (s *Store[T]) QueryTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	it, err := s.read().Get(s.table, "id")
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for raw := it.Next(); raw != nil; raw = it.Next() {
		r := raw.(row)
		if r.Deleted {
			continue
		}

		id, err := uuid.Parse(r.TenantID)
		if err != nil {
			return nil, fmt.Errorf("parse tenant id: %w", err)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})

	return ids, nil
}

func (s *Store[T]) read() *memdb.Txn {
	if s.txn != nil {
		return s.txn
	}
	return s.db.mem.Txn(false)
}

func (s *Store[T]) write(fn func(txn *memdb.Txn) error) error {
	if s.txn != nil {
		return fn(s.txn)
	}

	txn := s.db.mem.Txn(true)
	defer txn.Abort()

	if err := fn(txn); err != nil {
		return err
	}

	txn.Commit()
	return nil
}

func toRow[T auditstore.Record[T]](rec T) row {
	m := rec.RecordMeta()
	return row{
		ID:       m.ID.String(),
		TenantID: m.TenantID.String(),
		Deleted:  m.Deleted,
		Value:    rec,
	}
}
