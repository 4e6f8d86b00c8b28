package rules

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/leasebus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/busdomain"
	"github.com/jcpaschoal/leasekeeper/business/types/leasestatus"
	"github.com/jcpaschoal/leasekeeper/business/types/renewalstatus"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
)

// Renewal ladder thresholds, in days before the lease ends.
const (
	noticeDays   = 90
	reminderDays = 60
	finalDays    = 30
)

// LeaseRenewal walks active leases down the 90/60/30 day renewal ladder.
type LeaseRenewal struct {
	cfg Config
}

// NewLeaseRenewal constructs the lease renewal module.
func NewLeaseRenewal(cfg Config) *LeaseRenewal {
	return &LeaseRenewal{cfg: cfg}
}

// Name implements Module.
func (m *LeaseRenewal) Name() string { return NameLeaseRenewal }

// Run implements Module. A lease takes at most one step per pass, so a lease
// first seen with 20 days left gets its notice today and its reminder on the
// next pass.
func (m *LeaseRenewal) Run(ctx context.Context, tenantID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.rules.leaserenewal")
	defer span.End()

	ctx = auditstore.SystemContext(ctx)

	now := m.cfg.now()
	today := m.cfg.today()

	var out outbox

	err := m.cfg.withTx(ctx, func(bus busdomain.BusDomain) error {
		leases, err := bus.Lease.Query(ctx, tenantID, leasebus.QueryFilter{
			Statuses:     []leasestatus.Lease{leasestatus.Active},
			EndNotBefore: &today,
		})
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}

		for _, l := range leases {
			left := daysBetween(today, l.EndDate)

			var title string

			switch {
			case !l.RenewalNoticeSent && left <= noticeDays:
				if _, err := bus.Lease.SendRenewalNotice(ctx, tenantID, l, now); err != nil {
					return fmt.Errorf("notice: %w", err)
				}
				title = "Lease renewal notice"

			case l.RenewalNoticeSent && !l.RenewalReminderSent && left <= reminderDays:
				if _, err := bus.Lease.SendRenewalReminder(ctx, tenantID, l, now); err != nil {
					return fmt.Errorf("reminder: %w", err)
				}
				title = "Lease renewal reminder"

			case l.RenewalStatus.Equal(renewalstatus.Pending) && !l.FinalReminderSent && left <= finalDays:
				if _, err := bus.Lease.SendFinalReminder(ctx, tenantID, l, now); err != nil {
					return fmt.Errorf("final: %w", err)
				}
				title = "Final lease renewal reminder"

			default:
				continue
			}

			if l.ContactID != uuid.Nil {
				out.add(l.ContactID.String(), title,
					fmt.Sprintf("Your lease ends on %s, %d days from today.", l.EndDate.Format("2006-01-02"), left))
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	out.flush(ctx, m.cfg, m.Name(), tenantID)

	return nil
}

// =============================================================================

// LeaseExpiry moves leases past their end date to Expired.
type LeaseExpiry struct {
	cfg Config
}

// NewLeaseExpiry constructs the lease expiry module.
func NewLeaseExpiry(cfg Config) *LeaseExpiry {
	return &LeaseExpiry{cfg: cfg}
}

// Name implements Module.
func (m *LeaseExpiry) Name() string { return NameLeaseExpiry }

// Run implements Module. Month to month and renewed leases keep running past
// their end date.
func (m *LeaseExpiry) Run(ctx context.Context, tenantID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.rules.leaseexpiry")
	defer span.End()

	ctx = auditstore.SystemContext(ctx)

	today := m.cfg.today()

	var expired int

	err := m.cfg.withTx(ctx, func(bus busdomain.BusDomain) error {
		leases, err := bus.Lease.Query(ctx, tenantID, leasebus.QueryFilter{
			Statuses:  []leasestatus.Lease{leasestatus.Pending, leasestatus.Active, leasestatus.NoticeGiven},
			EndBefore: &today,
		})
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}

		for _, l := range leases {
			if _, err := bus.Lease.Expire(ctx, tenantID, l); err != nil {
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
		m.cfg.Log.Info(ctx, "rules: leases expired", "tenant_id", tenantID, "count", expired)
	}

	return nil
}

// =============================================================================

const upcomingDays = 7

// UpcomingLeases logs leases about to start so staff can prepare the unit.
type UpcomingLeases struct {
	cfg Config
}

// NewUpcomingLeases constructs the upcoming leases module.
func NewUpcomingLeases(cfg Config) *UpcomingLeases {
	return &UpcomingLeases{cfg: cfg}
}

// Name implements Module.
func (m *UpcomingLeases) Name() string { return NameUpcomingLeases }

// Run implements Module.
func (m *UpcomingLeases) Run(ctx context.Context, tenantID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.rules.upcomingleases")
	defer span.End()

	ctx = auditstore.SystemContext(ctx)

	today := m.cfg.today()
	from := today.AddDate(0, 0, -1)
	until := today.AddDate(0, 0, upcomingDays+1)

	leases, err := m.cfg.Bus.Lease.Query(ctx, tenantID, leasebus.QueryFilter{
		Statuses:    []leasestatus.Lease{leasestatus.Pending, leasestatus.Active},
		StartAfter:  &from,
		StartBefore: &until,
	})
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	for _, l := range leases {
		m.cfg.Log.Info(ctx, "rules: lease starting soon",
			"tenant_id", tenantID,
			"lease_id", l.ID,
			"unit_id", l.UnitID,
			"start_date", l.StartDate.Format("2006-01-02"),
			"days", daysBetween(today, l.StartDate))
	}

	return nil
}

