package rules

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/invoicebus"
	"github.com/jcpaschoal/leasekeeper/business/domain/leasebus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/notify"
	"github.com/jcpaschoal/leasekeeper/business/types/invoicestatus"
	"github.com/jcpaschoal/leasekeeper/business/types/leasestatus"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
)

const digestLeaseDays = 30

// DigestCounts is what the nightly digest reports.
type DigestCounts struct {
	OverdueInvoices  int
	LeasesEnding     int
	OpenApplications int
}

// Digest sends tenant staff a nightly summary of what needs attention.
type Digest struct {
	cfg Config
}

// NewDigest constructs the digest module.
func NewDigest(cfg Config) *Digest {
	return &Digest{cfg: cfg}
}

// Name implements Module.
func (m *Digest) Name() string { return NameDigest }

// Run implements Module. An empty digest is not sent.
func (m *Digest) Run(ctx context.Context, tenantID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.rules.digest")
	defer span.End()

	ctx = auditstore.SystemContext(ctx)

	c, err := m.Count(ctx, tenantID)
	if err != nil {
		return err
	}

	if c == (DigestCounts{}) {
		return nil
	}

	var out outbox
	out.add(notify.StaffRecipient, "Daily digest",
		fmt.Sprintf("%d overdue invoices, %d leases ending within %d days, %d open applications.",
			c.OverdueInvoices, c.LeasesEnding, digestLeaseDays, c.OpenApplications))
	out.flush(ctx, m.cfg, m.Name(), tenantID)

	return nil
}

// Count gathers the digest numbers for the tenant.
func (m *Digest) Count(ctx context.Context, tenantID uuid.UUID) (DigestCounts, error) {
	today := m.cfg.today()
	until := today.AddDate(0, 0, digestLeaseDays+1)

	invs, err := m.cfg.Bus.Invoice.Query(ctx, tenantID, invoicebus.QueryFilter{
		Statuses: []invoicestatus.Invoice{invoicestatus.Overdue},
	})
	if err != nil {
		return DigestCounts{}, fmt.Errorf("invoices: %w", err)
	}

	leases, err := m.cfg.Bus.Lease.Query(ctx, tenantID, leasebus.QueryFilter{
		Statuses:     []leasestatus.Lease{leasestatus.Active},
		EndNotBefore: &today,
		EndBefore:    &until,
	})
	if err != nil {
		return DigestCounts{}, fmt.Errorf("leases: %w", err)
	}

	apps, err := m.cfg.Bus.Application.QueryOpen(ctx, tenantID)
	if err != nil {
		return DigestCounts{}, fmt.Errorf("applications: %w", err)
	}

	return DigestCounts{
		OverdueInvoices:  len(invs),
		LeasesEnding:     len(leases),
		OpenApplications: len(apps),
	}, nil
}
