package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/busdomain"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
)

// TourNoShow marks scheduled tours the prospect never showed up for and
// returns such prospects to where they were before the tour was booked.
type TourNoShow struct {
	cfg Config
}

// NewTourNoShow constructs the tour no-show module.
func NewTourNoShow(cfg Config) *TourNoShow {
	return &TourNoShow{cfg: cfg}
}

// Name implements Module.
func (m *TourNoShow) Name() string { return NameTourNoShow }

// Run implements Module. A prospect with another tour still scheduled keeps
// its TourScheduled stage.
func (m *TourNoShow) Run(ctx context.Context, tenantID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.rules.tournoshow")
	defer span.End()

	ctx = auditstore.SystemContext(ctx)

	p, err := m.cfg.policy(ctx, tenantID)
	if err != nil {
		return err
	}

	cutoff := m.cfg.now().Add(-time.Duration(p.NoShowGraceHours) * time.Hour)

	var noShows, reverted int

	err = m.cfg.withTx(ctx, func(bus busdomain.BusDomain) error {
		tours, err := bus.Tour.QueryScheduledBefore(ctx, tenantID, cutoff)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}

		for _, t := range tours {
			if _, err := bus.Tour.MarkNoShow(ctx, tenantID, t); err != nil {
				return fmt.Errorf("noshow: %w", err)
			}
			noShows++

			n, err := bus.Tour.CountScheduledForContact(ctx, tenantID, t.ContactID)
			if err != nil {
				return fmt.Errorf("count: %w", err)
			}

			if n > 0 {
				continue
			}

			prospect, err := bus.Prospect.QueryByID(ctx, tenantID, t.ContactID)
			if err != nil {
				if errors.Is(err, auditstore.ErrNotFound) {
					continue
				}
				return fmt.Errorf("prospect: %w", err)
			}

			_, changed, err := bus.Prospect.RevertTourElevation(ctx, tenantID, prospect)
			if err != nil {
				return fmt.Errorf("revert: %w", err)
			}

			if changed {
				reverted++
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if noShows > 0 {
		m.cfg.Log.Info(ctx, "rules: tour no-shows", "tenant_id", tenantID, "tours", noShows, "prospects_reverted", reverted)
	}

	return nil
}
