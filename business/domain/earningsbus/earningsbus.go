// Package earningsbus provides business access to yearly earnings
// aggregations.
package earningsbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/business/sdk/validate"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
	"github.com/shopspring/decimal"
)

// Set of error variables for aggregation operations.
var (
	ErrNotFound    = errors.New("earnings aggregation not found")
	ErrExists      = errors.New("earnings already recorded for year")
	ErrDistributed = errors.New("earnings already distributed")
)

// Core manages the set of APIs for earnings access.
type Core struct {
	log   *logger.Logger
	store *auditstore.Store[Aggregation]
}

// NewCore constructs a core for earnings api access.
func NewCore(log *logger.Logger, store *auditstore.Store[Aggregation]) *Core {
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

// Create records the earnings for a year.
func (c *Core) Create(ctx context.Context, tenantID uuid.UUID, na NewAggregation) (Aggregation, error) {
	ctx, span := otel.AddSpan(ctx, "business.earningsbus.create")
	defer span.End()

	if err := validate.Check(na); err != nil {
		return Aggregation{}, fmt.Errorf("validate: %w", err)
	}

	_, err := c.QueryByYear(ctx, tenantID, na.Year)
	switch {
	case err == nil:
		return Aggregation{}, fmt.Errorf("create: year[%d]: %w", na.Year, ErrExists)
	case !errors.Is(err, ErrNotFound):
		return Aggregation{}, err
	}

	a := Aggregation{
		Year:     na.Year,
		Earnings: na.Earnings,
	}
	a.Sample = na.Sample

	a, err = c.store.Create(ctx, tenantID, a)
	if err != nil {
		return Aggregation{}, fmt.Errorf("create: %w", err)
	}

	return a, nil
}

// AddEarnings adds to the year's total before it is distributed.
func (c *Core) AddEarnings(ctx context.Context, tenantID uuid.UUID, a Aggregation, amount decimal.Decimal) (Aggregation, error) {
	ctx, span := otel.AddSpan(ctx, "business.earningsbus.addearnings")
	defer span.End()

	if a.Distributed {
		return Aggregation{}, fmt.Errorf("add: year[%d]: %w", a.Year, ErrDistributed)
	}

	a.Earnings = a.Earnings.Add(amount)

	a, err := c.store.Update(ctx, tenantID, a)
	if err != nil {
		return Aggregation{}, fmt.Errorf("update: %w", err)
	}

	return a, nil
}

// QueryByYear returns the aggregation for the year.
func (c *Core) QueryByYear(ctx context.Context, tenantID uuid.UUID, year int) (Aggregation, error) {
	ctx, span := otel.AddSpan(ctx, "business.earningsbus.querybyyear")
	defer span.End()

	as, err := c.store.Query(ctx, tenantID, func(a Aggregation) bool { return a.Year == year })
	if err != nil {
		return Aggregation{}, fmt.Errorf("query: year[%d]: %w", year, err)
	}

	if len(as) == 0 {
		return Aggregation{}, fmt.Errorf("query: year[%d]: %w", year, ErrNotFound)
	}

	return as[0], nil
}

// MarkDistributed records that the year's earnings were handed off.
func (c *Core) MarkDistributed(ctx context.Context, tenantID uuid.UUID, a Aggregation, now time.Time) (Aggregation, error) {
	ctx, span := otel.AddSpan(ctx, "business.earningsbus.markdistributed")
	defer span.End()

	if a.Distributed {
		return Aggregation{}, fmt.Errorf("distribute: year[%d]: %w", a.Year, ErrDistributed)
	}

	a.Distributed = true
	a.DistributedAt = now

	a, err := c.store.Update(ctx, tenantID, a)
	if err != nil {
		return Aggregation{}, fmt.Errorf("update: %w", err)
	}

	return a, nil
}

// Delete removes the aggregation.
func (c *Core) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.earningsbus.delete")
	defer span.End()

	if err := c.store.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}
