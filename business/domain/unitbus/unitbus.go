// Package unitbus provides business access to rentable units.
package unitbus

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/business/sdk/validate"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
)

// Core manages the set of APIs for unit access.
type Core struct {
	log   *logger.Logger
	store *auditstore.Store[Unit]
}

// NewCore constructs a core for unit api access.
func NewCore(log *logger.Logger, store *auditstore.Store[Unit]) *Core {
	return &Core{
		log:   log,
		store: store,
	}
}

// NewWithTx constructs a new Core value replacing the store with one bound
// to the transaction.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	store, err := c.store.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	return NewCore(c.log, store), nil
}

// Create adds a new unit to the tenant.
func (c *Core) Create(ctx context.Context, tenantID uuid.UUID, nu NewUnit) (Unit, error) {
	ctx, span := otel.AddSpan(ctx, "business.unitbus.create")
	defer span.End()

	if err := validate.Check(nu); err != nil {
		return Unit{}, fmt.Errorf("validate: %w", err)
	}

	u := Unit{
		Name:        nu.Name,
		Address:     nu.Address,
		Bedrooms:    nu.Bedrooms,
		MonthlyRent: nu.MonthlyRent,
	}
	u.Sample = nu.Sample

	u, err := c.store.Create(ctx, tenantID, u)
	if err != nil {
		return Unit{}, fmt.Errorf("create: %w", err)
	}

	return u, nil
}

// Update modifies information about a unit.
func (c *Core) Update(ctx context.Context, tenantID uuid.UUID, u Unit, uu UpdateUnit) (Unit, error) {
	ctx, span := otel.AddSpan(ctx, "business.unitbus.update")
	defer span.End()

	if uu.Name != nil {
		u.Name = *uu.Name
	}
	if uu.Address != nil {
		u.Address = *uu.Address
	}
	if uu.Bedrooms != nil {
		u.Bedrooms = *uu.Bedrooms
	}
	if uu.MonthlyRent != nil {
		u.MonthlyRent = *uu.MonthlyRent
	}

	u, err := c.store.Update(ctx, tenantID, u)
	if err != nil {
		return Unit{}, fmt.Errorf("update: %w", err)
	}

	return u, nil
}

// Delete removes the unit from the tenant.
func (c *Core) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.unitbus.delete")
	defer span.End()

	if err := c.store.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// QueryByID finds the unit by the specified id.
func (c *Core) QueryByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (Unit, error) {
	ctx, span := otel.AddSpan(ctx, "business.unitbus.querybyid")
	defer span.End()

	u, err := c.store.QueryByID(ctx, tenantID, id)
	if err != nil {
		return Unit{}, fmt.Errorf("query: unitID[%s]: %w", id, err)
	}

	return u, nil
}

// Query retrieves the tenant's units matching the filter.
func (c *Core) Query(ctx context.Context, tenantID uuid.UUID, filter QueryFilter) ([]Unit, error) {
	ctx, span := otel.AddSpan(ctx, "business.unitbus.query")
	defer span.End()

	units, err := c.store.Query(ctx, tenantID, filter.match)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return units, nil
}
