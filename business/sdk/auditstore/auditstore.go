// Package auditstore provides the tenant scoped, audited persistence layer
// every domain entity is written through.
package auditstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/business/sdk/taint"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Set of error variables for store operations.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("record not found")
)

// Storer is the persistence backend behind a Store. QueryByID is not tenant
// scoped and returns soft deleted records; QueryByTenant excludes them.
type Storer[T any] interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer[T], error)
	Insert(ctx context.Context, rec T) error
	Replace(ctx context.Context, rec T) error
	Remove(ctx context.Context, id uuid.UUID) error
	QueryByID(ctx context.Context, id uuid.UUID) (T, error)
	QueryByTenant(ctx context.Context, tenantID uuid.UUID) ([]T, error)
	QueryTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

type options struct {
	hardDelete bool
	now        func() time.Time
}

// Option configures a Store.
type Option func(*options)

// WithHardDelete makes Delete physically remove records.
func WithHardDelete() Option {
	return func(o *options) {
		o.hardDelete = true
	}
}

// WithClock replaces the clock used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Store manages tenant scoped access to records of type T.
type Store[T Record[T]] struct {
	log      *logger.Logger
	kind     string
	storer   Storer[T]
	resolver *taint.Resolver[T]
	opts     options
}

// New constructs a store for the specified record kind.
func New[T Record[T]](log *logger.Logger, kind string, storer Storer[T], opts ...Option) *Store[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Store[T]{
		log:    log,
		kind:   kind,
		storer: storer,
		opts:   o,
	}
}

// TaintFrom registers the parent links the sample flag is inherited from.
func (s *Store[T]) TaintFrom(links ...taint.Link[T]) error {
	r, err := taint.NewResolver(s.log, s.kind, func(rec T) bool { return rec.RecordMeta().Sample }, links...)
	if err != nil {
		return fmt.Errorf("taint: %w", err)
	}

	s.resolver = r
	return nil
}

// NewWithTx constructs a new Store value replacing the Storer value with a
// Storer value that is currently inside a transaction.
func (s *Store[T]) NewWithTx(tx sqldb.CommitRollbacker) (*Store[T], error) {
	storer, err := s.storer.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newWithTx: %w", err)
	}

	resolver := s.resolver
	if resolver != nil {
		resolver, err = resolver.Rebind(func(p taint.Lookup) (taint.Lookup, error) {
			txp, ok := p.(txLookup)
			if !ok {
				return nil, nil
			}
			return txp.lookupWithTx(tx)
		})
		if err != nil {
			return nil, fmt.Errorf("newWithTx: %w", err)
		}
	}

	return &Store[T]{
		log:      s.log,
		kind:     s.kind,
		storer:   storer,
		resolver: resolver,
		opts:     s.opts,
	}, nil
}

// txLookup is a taint parent that can be bound to the child's transaction,
// so parents written earlier in the same transaction are visible.
type txLookup interface {
	lookupWithTx(tx sqldb.CommitRollbacker) (taint.Lookup, error)
}

func (s *Store[T]) lookupWithTx(tx sqldb.CommitRollbacker) (taint.Lookup, error) {
	store, err := s.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	return store, nil
}

// Kind returns the record kind this store manages.
func (s *Store[T]) Kind() string {
	return s.kind
}

// QueryByID returns the live record with the specified id owned by tenantID.
func (s *Store[T]) QueryByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (T, error) {
	ctx, span := otel.AddSpan(ctx, "business.sdk.auditstore.queryByID", attribute.String("kind", s.kind))
	defer span.End()

	var zero T
	if _, err := authorize(ctx, tenantID); err != nil {
		return zero, err
	}

	rec, err := s.storer.QueryByID(ctx, id)
	if err != nil {
		return zero, fmt.Errorf("query: %s[%s]: %w", s.kind, id, err)
	}

	m := rec.RecordMeta()
	if m.Deleted || m.TenantID != tenantID {
		return zero, fmt.Errorf("query: %s[%s]: %w", s.kind, id, ErrNotFound)
	}

	return rec, nil
}

// Query returns the live records owned by tenantID that satisfy pred. A nil
// predicate matches everything.
func (s *Store[T]) Query(ctx context.Context, tenantID uuid.UUID, pred func(T) bool) ([]T, error) {
	ctx, span := otel.AddSpan(ctx, "business.sdk.auditstore.query", attribute.String("kind", s.kind))
	defer span.End()

	if _, err := authorize(ctx, tenantID); err != nil {
		return nil, err
	}

	recs, err := s.storer.QueryByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query: %s: tenantID[%s]: %w", s.kind, tenantID, err)
	}

	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		m := rec.RecordMeta()
		if m.Deleted || m.TenantID != tenantID {
			continue
		}
		if pred != nil && !pred(rec) {
			continue
		}
		out = append(out, rec)
	}

	return out, nil
}

// QueryTenantIDs returns every tenant that owns at least one live record of
// this kind.
func (s *Store[T]) QueryTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	ctx, span := otel.AddSpan(ctx, "business.sdk.auditstore.queryTenantIDs", attribute.String("kind", s.kind))
	defer span.End()

	if _, err := GetActor(ctx); err != nil {
		return nil, err
	}

	ids, err := s.storer.QueryTenantIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("queryTenantIDs: %s: %w", s.kind, err)
	}

	return ids, nil
}

// Create stamps and persists a new record under tenantID. A nil id is
// replaced by a fresh one and any tenant id carried by rec is overwritten.
func (s *Store[T]) Create(ctx context.Context, tenantID uuid.UUID, rec T) (T, error) {
	ctx, span := otel.AddSpan(ctx, "business.sdk.auditstore.create", attribute.String("kind", s.kind))
	defer span.End()

	var zero T
	actor, err := authorize(ctx, tenantID)
	if err != nil {
		return zero, err
	}

	now := s.opts.now().UTC()
	in := rec.RecordMeta()

	m := Meta{
		ID:        in.ID,
		TenantID:  tenantID,
		Sample:    in.Sample,
		CreatedBy: actor,
		CreatedAt: now,
		UpdatedBy: actor,
		UpdatedAt: now,
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	rec = rec.WithRecordMeta(m)

	if s.resolver != nil && s.resolver.InferSampleFlag(ctx, tenantID, rec) {
		m.Sample = true
		rec = rec.WithRecordMeta(m)
	}

	if err := s.storer.Insert(ctx, rec); err != nil {
		return zero, fmt.Errorf("create: %s[%s]: %w", s.kind, m.ID, err)
	}

	return rec, nil
}

// Update replaces the stored values of rec. The creation stamp, tenant and
// flags of the stored record are kept.
func (s *Store[T]) Update(ctx context.Context, tenantID uuid.UUID, rec T) (T, error) {
	ctx, span := otel.AddSpan(ctx, "business.sdk.auditstore.update", attribute.String("kind", s.kind))
	defer span.End()

	var zero T
	actor, err := authorize(ctx, tenantID)
	if err != nil {
		return zero, err
	}

	id := rec.RecordMeta().ID

	cur, err := s.owned(ctx, tenantID, id)
	if err != nil {
		return zero, fmt.Errorf("update: %w", err)
	}

	m := cur.RecordMeta()
	m.UpdatedBy = actor
	m.UpdatedAt = s.opts.now().UTC()

	rec = rec.WithRecordMeta(m)

	if err := s.storer.Replace(ctx, rec); err != nil {
		return zero, fmt.Errorf("update: %s[%s]: %w", s.kind, id, err)
	}

	return rec, nil
}

// Delete soft deletes the record, or removes it when the store was built
// with WithHardDelete.
func (s *Store[T]) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.sdk.auditstore.delete", attribute.String("kind", s.kind))
	defer span.End()

	actor, err := authorize(ctx, tenantID)
	if err != nil {
		return err
	}

	cur, err := s.owned(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if s.opts.hardDelete {
		if err := s.storer.Remove(ctx, id); err != nil {
			return fmt.Errorf("delete: %s[%s]: %w", s.kind, id, err)
		}
		return nil
	}

	m := cur.RecordMeta()
	m.Deleted = true
	m.UpdatedBy = actor
	m.UpdatedAt = s.opts.now().UTC()

	if err := s.storer.Replace(ctx, cur.WithRecordMeta(m)); err != nil {
		return fmt.Errorf("delete: %s[%s]: %w", s.kind, id, err)
	}

	return nil
}

// SampleFlag reports the sample flag of a live record owned by tenantID. It
// lets a store act as a taint parent.
func (s *Store[T]) SampleFlag(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (bool, error) {
	rec, err := s.QueryByID(ctx, tenantID, id)
	if err != nil {
		return false, err
	}

	return rec.RecordMeta().Sample, nil
}

// owned loads the stored record and checks it is live and belongs to tenantID.
func (s *Store[T]) owned(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (T, error) {
	var zero T

	cur, err := s.storer.QueryByID(ctx, id)
	if err != nil {
		return zero, fmt.Errorf("%s[%s]: %w", s.kind, id, err)
	}

	m := cur.RecordMeta()
	switch {
	case m.Deleted:
		return zero, fmt.Errorf("%s[%s]: %w", s.kind, id, ErrNotFound)
	case m.TenantID != tenantID:
		s.log.Warn(ctx, "auditstore: cross tenant write rejected", "kind", s.kind, "id", id, "tenant_id", tenantID)
		return zero, fmt.Errorf("%s[%s]: %w", s.kind, id, ErrForbidden)
	}

	return cur, nil
}

func authorize(ctx context.Context, tenantID uuid.UUID) (uuid.UUID, error) {
	if tenantID == uuid.Nil {
		return uuid.Nil, ErrUnauthenticated
	}

	return GetActor(ctx)
}
