package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/busdomain"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
)

// ApplicationExpiry closes open applications whose expiry has passed.
type ApplicationExpiry struct {
	cfg Config
}

// NewApplicationExpiry constructs the application expiry module.
func NewApplicationExpiry(cfg Config) *ApplicationExpiry {
	return &ApplicationExpiry{cfg: cfg}
}

// Name implements Module.
func (m *ApplicationExpiry) Name() string { return NameApplicationExpiry }

// Run implements Module.
func (m *ApplicationExpiry) Run(ctx context.Context, tenantID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.rules.applicationexpiry")
	defer span.End()

	ctx = auditstore.SystemContext(ctx)

	now := m.cfg.now()

	var expired int

	err := m.cfg.withTx(ctx, func(bus busdomain.BusDomain) error {
		apps, err := bus.Application.QueryLapsed(ctx, tenantID, now)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}

		for _, app := range apps {
			if _, err := bus.Application.Expire(ctx, tenantID, app); err != nil {
				return fmt.Errorf("expire: %w", err)
			}
			expired++
		}

		return nil
	})
	if err != nil {
		return err
	}

	if expired > 0 {
		m.cfg.Log.Info(ctx, "rules: applications expired", "tenant_id", tenantID, "count", expired)
	}

	return nil
}

// =============================================================================

// ExpiryResult reports an offer expiry pass. A failed offer is recorded in
// Errors and the pass moves on to the next one.
type ExpiryResult struct {
	Success bool
	Expired int
	Errors  []string
}

// Err returns ErrValidationFailed carrying the recorded failures, or nil.
func (r ExpiryResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}

	return fmt.Errorf("%s: %w", strings.Join(r.Errors, "; "), ErrValidationFailed)
}

// OfferExpiry closes open lease offers whose expiry has passed.
type OfferExpiry struct {
	cfg Config
}

// NewOfferExpiry constructs the offer expiry module.
func NewOfferExpiry(cfg Config) *OfferExpiry {
	return &OfferExpiry{cfg: cfg}
}

// Name implements Module.
func (m *OfferExpiry) Name() string { return NameOfferExpiry }

// Run implements Module. Per-offer failures are logged; only a failure to
// list the offers fails the pass.
func (m *OfferExpiry) Run(ctx context.Context, tenantID uuid.UUID) error {
	res, err := m.Expire(ctx, tenantID)
	if err != nil {
		return err
	}

	if err := res.Err(); err != nil {
		m.cfg.Log.Warn(ctx, "rules: offer expiry incomplete", "tenant_id", tenantID, "expired", res.Expired, "failed", len(res.Errors), "err", err)
		return nil
	}

	if res.Expired > 0 {
		m.cfg.Log.Info(ctx, "rules: offers expired", "tenant_id", tenantID, "count", res.Expired)
	}

	return nil
}

// Expire runs one pass and returns its result. Each offer is expired in its
// own transaction.
func (m *OfferExpiry) Expire(ctx context.Context, tenantID uuid.UUID) (ExpiryResult, error) {
	ctx, span := otel.AddSpan(ctx, "business.rules.offerexpiry")
	defer span.End()

	ctx = auditstore.SystemContext(ctx)

	now := m.cfg.now()

	offers, err := m.cfg.Bus.Offer.QueryLapsed(ctx, tenantID, now)
	if err != nil {
		return ExpiryResult{}, fmt.Errorf("query: %w", err)
	}

	var res ExpiryResult

	for _, o := range offers {
		var expired bool

		// The listing ran outside the transaction, so the offer is read again
		// and left alone when it was closed or extended in the meantime.
		err := m.cfg.withTx(ctx, func(bus busdomain.BusDomain) error {
			cur, err := bus.Offer.QueryByID(ctx, tenantID, o.ID)
			if err != nil {
				return err
			}

			if !cur.Open() || !cur.ExpiresAt.Before(now) {
				return nil
			}

			if _, err := bus.Offer.Expire(ctx, tenantID, cur); err != nil {
				return err
			}

			expired = true
			return nil
		})
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("offerID[%s]: %s", o.ID, err))
			continue
		}

		if expired {
			res.Expired++
		}
	}

	res.Success = len(res.Errors) == 0

	return res, nil
}
