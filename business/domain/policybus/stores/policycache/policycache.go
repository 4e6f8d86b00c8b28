// Package policycache contains tenant policy related CRUD functionality
// with caching.
package policycache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/policybus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/viccon/sturdyc"
)

// Store manages the set of APIs for policy data and caching. Reads made
// through a transaction bound store skip the cache; writes always evict.
type Store struct {
	log    *logger.Logger
	storer auditstore.Storer[policybus.Policy]
	cache  *sturdyc.Client[[]policybus.Policy]
	inTx   bool
}

// NewStore constructs the api for data and caching access.
func NewStore(log *logger.Logger, storer auditstore.Storer[policybus.Policy], ttl time.Duration) *Store {
	const capacity = 10000
	const numShards = 10
	const evictionPercentage = 10

	return &Store{
		log:    log,
		storer: storer,
		cache:  sturdyc.New[[]policybus.Policy](capacity, numShards, ttl, evictionPercentage),
	}
}

// NewWithTx constructs a new Store value replacing the storer with one bound
// to the transaction. The cache is shared.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (auditstore.Storer[policybus.Policy], error) {
	storer, err := s.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	return &Store{
		log:    s.log,
		storer: storer,
		cache:  s.cache,
		inTx:   true,
	}, nil
}

// Insert adds a new policy and evicts the tenant's cached entry.
func (s *Store) Insert(ctx context.Context, p policybus.Policy) error {
	if err := s.storer.Insert(ctx, p); err != nil {
		return err
	}

	s.evict(p.TenantID)
	return nil
}

// Replace overwrites a policy and evicts the tenant's cached entry.
func (s *Store) Replace(ctx context.Context, p policybus.Policy) error {
	if err := s.storer.Replace(ctx, p); err != nil {
		return err
	}

	s.evict(p.TenantID)
	return nil
}

// Remove deletes a policy and evicts the tenant's cached entry.
func (s *Store) Remove(ctx context.Context, id uuid.UUID) error {
	p, err := s.storer.QueryByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storer.Remove(ctx, id); err != nil {
		return err
	}

	s.evict(p.TenantID)
	return nil
}

// QueryByID goes straight to the storer.
func (s *Store) QueryByID(ctx context.Context, id uuid.UUID) (policybus.Policy, error) {
	return s.storer.QueryByID(ctx, id)
}

// QueryByTenant returns the tenant's policies, from the cache when present.
func (s *Store) QueryByTenant(ctx context.Context, tenantID uuid.UUID) ([]policybus.Policy, error) {
	if s.inTx {
		return s.storer.QueryByTenant(ctx, tenantID)
	}

	if ps, ok := s.cache.Get(tenantID.String()); ok {
		return ps, nil
	}

	ps, err := s.storer.QueryByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(tenantID.String(), ps)
	return ps, nil
}

// QueryTenantIDs goes straight to the storer so new tenants are seen on the
// next pass.
func (s *Store) QueryTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.storer.QueryTenantIDs(ctx)
}

func (s *Store) evict(tenantID uuid.UUID) {
	s.cache.Delete(tenantID.String())
}
