// Package policybus provides business access to tenant policies and the
// list of tenants known to the scheduler.
package policybus

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/business/sdk/validate"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
	"github.com/shopspring/decimal"
)

// Set of error variables for policy operations.
var (
	ErrNotFound = errors.New("tenant policy not found")
	ErrExists   = errors.New("tenant already has a policy")
)

var hundred = decimal.NewFromInt(100)

// Core manages the set of APIs for tenant policy access.
type Core struct {
	log   *logger.Logger
	store *auditstore.Store[Policy]
}

// NewCore constructs a core for tenant policy api access.
func NewCore(log *logger.Logger, store *auditstore.Store[Policy]) *Core {
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
		return nil, fmt.Errorf("newWithTx: %w", err)
	}

	return NewCore(c.log, store), nil
}

// Create adds the policy for a tenant. A tenant holds at most one policy.
func (c *Core) Create(ctx context.Context, tenantID uuid.UUID, np NewPolicy) (Policy, error) {
	ctx, span := otel.AddSpan(ctx, "business.policybus.create")
	defer span.End()

	if err := checkNew(np); err != nil {
		return Policy{}, fmt.Errorf("validate: %w", err)
	}

	existing, err := c.store.Query(ctx, tenantID, nil)
	if err != nil {
		return Policy{}, fmt.Errorf("query: tenantID[%s]: %w", tenantID, err)
	}
	if len(existing) > 0 {
		return Policy{}, fmt.Errorf("create: tenantID[%s]: %w", tenantID, ErrExists)
	}

	p := Policy{
		GracePeriodDays:  np.GracePeriodDays,
		LateFeePercent:   np.LateFeePercent,
		LateFeeCap:       np.LateFeeCap,
		ReminderLeadDays: np.ReminderLeadDays,
		NoShowGraceHours: np.NoShowGraceHours,
		LateFeeAutoApply: np.LateFeeAutoApply,
		RemindersEnabled: np.RemindersEnabled,
		DividendsEnabled: np.DividendsEnabled,
	}

	p, err = c.store.Create(ctx, tenantID, p)
	if err != nil {
		return Policy{}, fmt.Errorf("create: %w", err)
	}

	return p, nil
}

// Provision makes sure the tenant has a policy, creating one with the
// default values when it has none.
func (c *Core) Provision(ctx context.Context, tenantID uuid.UUID) (Policy, error) {
	ctx, span := otel.AddSpan(ctx, "business.policybus.provision")
	defer span.End()

	p, err := c.QueryByTenant(ctx, tenantID)
	switch {
	case err == nil:
		return p, nil
	case !errors.Is(err, ErrNotFound):
		return Policy{}, err
	}

	p, err = c.Create(ctx, tenantID, DefaultNewPolicy())
	if err != nil {
		return Policy{}, err
	}

	c.log.Info(ctx, "policybus: tenant provisioned", "tenant_id", tenantID, "policy_id", p.ID)

	return p, nil
}

// Update modifies the tenant's policy.
func (c *Core) Update(ctx context.Context, tenantID uuid.UUID, p Policy, up UpdatePolicy) (Policy, error) {
	ctx, span := otel.AddSpan(ctx, "business.policybus.update")
	defer span.End()

	if err := validate.Check(up); err != nil {
		return Policy{}, fmt.Errorf("validate: %w", err)
	}

	if up.GracePeriodDays != nil {
		p.GracePeriodDays = *up.GracePeriodDays
	}
	if up.LateFeePercent != nil {
		p.LateFeePercent = *up.LateFeePercent
	}
	if up.LateFeeCap != nil {
		p.LateFeeCap = *up.LateFeeCap
	}
	if up.ReminderLeadDays != nil {
		p.ReminderLeadDays = *up.ReminderLeadDays
	}
	if up.NoShowGraceHours != nil {
		p.NoShowGraceHours = *up.NoShowGraceHours
	}
	if up.LateFeeAutoApply != nil {
		p.LateFeeAutoApply = *up.LateFeeAutoApply
	}
	if up.RemindersEnabled != nil {
		p.RemindersEnabled = *up.RemindersEnabled
	}
	if up.DividendsEnabled != nil {
		p.DividendsEnabled = *up.DividendsEnabled
	}

	if err := checkMoney(p.LateFeePercent, p.LateFeeCap); err != nil {
		return Policy{}, fmt.Errorf("validate: %w", err)
	}

	p, err := c.store.Update(ctx, tenantID, p)
	if err != nil {
		return Policy{}, fmt.Errorf("update: %w", err)
	}

	return p, nil
}

// Delete removes the tenant's policy, which hides the tenant from the
// scheduler.
func (c *Core) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.policybus.delete")
	defer span.End()

	if err := c.store.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// QueryByTenant returns the tenant's policy.
func (c *Core) QueryByTenant(ctx context.Context, tenantID uuid.UUID) (Policy, error) {
	ctx, span := otel.AddSpan(ctx, "business.policybus.querybytenant")
	defer span.End()

	ps, err := c.store.Query(ctx, tenantID, nil)
	if err != nil {
		return Policy{}, fmt.Errorf("query: tenantID[%s]: %w", tenantID, err)
	}

	if len(ps) == 0 {
		return Policy{}, fmt.Errorf("query: tenantID[%s]: %w", tenantID, ErrNotFound)
	}

	return ps[0], nil
}

// QueryTenantIDs returns every tenant that owns a policy.
func (c *Core) QueryTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	ctx, span := otel.AddSpan(ctx, "business.policybus.querytenantids")
	defer span.End()

	ids, err := c.store.QueryTenantIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("queryTenantIDs: %w", err)
	}

	return ids, nil
}

// =============================================================================

func checkNew(np NewPolicy) error {
	if err := validate.Check(np); err != nil {
		return err
	}

	return checkMoney(np.LateFeePercent, np.LateFeeCap)
}

func checkMoney(pct decimal.Decimal, limit decimal.Decimal) error {
	var fields validate.FieldErrors

	if pct.IsNegative() || pct.GreaterThan(hundred) {
		fields = append(fields, validate.FieldError{Field: "lateFeePercent", Err: "lateFeePercent must be between 0 and 100"})
	}
	if limit.IsNegative() {
		fields = append(fields, validate.FieldError{Field: "lateFeeCap", Err: "lateFeeCap must not be negative"})
	}

	if len(fields) > 0 {
		return fields
	}

	return nil
}
