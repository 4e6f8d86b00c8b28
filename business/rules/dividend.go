package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/earningsbus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/busdomain"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
	"github.com/shopspring/decimal"
)

// Calculator performs the downstream dividend calculation for a tenant's
// yearly earnings. A calculation whose distribution could not be committed
// is requested again on a later pass, so Calculate must be idempotent for a
// tenant and year.
type Calculator interface {
	Calculate(ctx context.Context, tenantID uuid.UUID, year int, earnings decimal.Decimal) error
}

// LogCalculator is a Calculator that only records the hand-off.
type LogCalculator struct {
	log *logger.Logger
}

// NewLogCalculator constructs a calculator that writes to the log.
func NewLogCalculator(log *logger.Logger) *LogCalculator {
	return &LogCalculator{log: log}
}

// Calculate implements Calculator.
func (c *LogCalculator) Calculate(ctx context.Context, tenantID uuid.UUID, year int, earnings decimal.Decimal) error {
	c.log.Info(ctx, "dividend: calculate", "tenant_id", tenantID, "year", year, "earnings", earnings.StringFixed(2))
	return nil
}

// =============================================================================

// dividendWindowDays is how many days into January the distribution runs.
const dividendWindowDays = 7

// Dividend distributes the previous year's earnings during the first week
// of January.
type Dividend struct {
	cfg Config
}

// NewDividend constructs the dividend module.
func NewDividend(cfg Config) *Dividend {
	return &Dividend{cfg: cfg}
}

// Name implements Module.
func (m *Dividend) Name() string { return NameDividend }

// Run implements Module. Nothing here fails the batch: every problem is
// logged and the tenant is skipped.
func (m *Dividend) Run(ctx context.Context, tenantID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.rules.dividend")
	defer span.End()

	ctx = auditstore.SystemContext(ctx)

	today := m.cfg.today()
	if today.Month() != time.January || today.Day() > dividendWindowDays {
		return nil
	}

	if m.cfg.Calculator == nil {
		m.cfg.Log.Warn(ctx, "rules: dividend: no calculator configured", "tenant_id", tenantID)
		return nil
	}

	p, err := m.cfg.policy(ctx, tenantID)
	if err != nil {
		m.cfg.Log.Error(ctx, "rules: dividend: policy", "tenant_id", tenantID, "err", err)
		return nil
	}

	if !p.DividendsEnabled {
		return nil
	}

	year := today.Year() - 1

	agg, err := m.cfg.Bus.Earnings.QueryByYear(ctx, tenantID, year)
	switch {
	case errors.Is(err, earningsbus.ErrNotFound):
		m.cfg.Log.Info(ctx, "rules: dividend: no earnings recorded", "tenant_id", tenantID, "year", year)
		return nil
	case err != nil:
		m.cfg.Log.Error(ctx, "rules: dividend: earnings", "tenant_id", tenantID, "year", year, "err", err)
		return nil
	case agg.Distributed:
		m.cfg.Log.Debug(ctx, "rules: dividend: already distributed", "tenant_id", tenantID, "year", year)
		return nil
	case !agg.Earnings.IsPositive():
		m.cfg.Log.Info(ctx, "rules: dividend: nothing to distribute", "tenant_id", tenantID, "year", year, "earnings", agg.Earnings.StringFixed(2))
		return nil
	}

	now := m.cfg.now()

	var claimed bool

	// The year is claimed before the hand-off so a failed calculation rolls
	// the claim back. Only a failed commit can repeat a calculation.
	err = m.cfg.withTx(ctx, func(bus busdomain.BusDomain) error {
		cur, err := bus.Earnings.QueryByYear(ctx, tenantID, year)
		if err != nil {
			return fmt.Errorf("earnings: %w", err)
		}

		if cur.Distributed {
			return nil
		}

		if _, err := bus.Earnings.MarkDistributed(ctx, tenantID, cur, now); err != nil {
			return fmt.Errorf("distribute: %w", err)
		}

		if err := m.cfg.Calculator.Calculate(ctx, tenantID, year, cur.Earnings); err != nil {
			return fmt.Errorf("calculate: %w", err)
		}

		claimed = true
		return nil
	})
	if err != nil {
		m.cfg.Log.Error(ctx, "rules: dividend", "tenant_id", tenantID, "year", year, "err", err)
		return nil
	}

	if !claimed {
		m.cfg.Log.Debug(ctx, "rules: dividend: already distributed", "tenant_id", tenantID, "year", year)
		return nil
	}

	m.cfg.Log.Info(ctx, "rules: dividend distributed", "tenant_id", tenantID, "year", year, "earnings", agg.Earnings.StringFixed(2))

	return nil
}
