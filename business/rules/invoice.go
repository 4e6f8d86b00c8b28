package rules

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/invoicebus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/busdomain"
	"github.com/jcpaschoal/leasekeeper/business/types/invoicestatus"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
)

// InvoiceAging charges late fees past the grace period and moves pending
// invoices past their due date to Overdue.
type InvoiceAging struct {
	cfg Config
}

// NewInvoiceAging constructs the invoice aging module.
func NewInvoiceAging(cfg Config) *InvoiceAging {
	return &InvoiceAging{cfg: cfg}
}

// Name implements Module.
func (m *InvoiceAging) Name() string { return NameInvoiceAging }

// Run implements Module. A fee is charged once per invoice; an invoice
// already forced to Overdue inside its grace period still gets its fee once
// the grace period ends.
func (m *InvoiceAging) Run(ctx context.Context, tenantID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.rules.invoiceaging")
	defer span.End()

	ctx = auditstore.SystemContext(ctx)

	p, err := m.cfg.policy(ctx, tenantID)
	if err != nil {
		return err
	}

	now := m.cfg.now()
	today := m.cfg.today()
	cutoff := today.AddDate(0, 0, -p.GracePeriodDays)

	var fees, overdue int

	err = m.cfg.withTx(ctx, func(bus busdomain.BusDomain) error {
		if p.LateFeeAutoApply {
			notApplied := false
			invs, err := bus.Invoice.Query(ctx, tenantID, invoicebus.QueryFilter{
				Statuses:       []invoicestatus.Invoice{invoicestatus.Pending, invoicestatus.Overdue},
				DueBefore:      &cutoff,
				LateFeeApplied: &notApplied,
			})
			if err != nil {
				return fmt.Errorf("query late: %w", err)
			}

			for _, inv := range invs {
				fee := invoicebus.CalculateLateFee(inv.Amount, p.LateFeePercent, p.LateFeeCap)
				if !fee.IsPositive() {
					continue
				}

				if _, err := bus.Invoice.ApplyLateFee(ctx, tenantID, inv, fee, now); err != nil {
					return fmt.Errorf("late fee: %w", err)
				}
				fees++
			}
		}

		invs, err := bus.Invoice.Query(ctx, tenantID, invoicebus.QueryFilter{
			Statuses:  []invoicestatus.Invoice{invoicestatus.Pending},
			DueBefore: &today,
		})
		if err != nil {
			return fmt.Errorf("query past due: %w", err)
		}

		for _, inv := range invs {
			if _, err := bus.Invoice.MarkOverdue(ctx, tenantID, inv); err != nil {
				return fmt.Errorf("overdue: %w", err)
			}
			overdue++
		}

		return nil
	})
	if err != nil {
		return err
	}

	if fees > 0 || overdue > 0 {
		m.cfg.Log.Info(ctx, "rules: invoice aging", "tenant_id", tenantID, "late_fees", fees, "overdue", overdue)
	}

	return nil
}

// =============================================================================

// PaymentReminder flags pending invoices coming due within the lead time and
// reminds their contacts.
type PaymentReminder struct {
	cfg Config
}

// NewPaymentReminder constructs the payment reminder module.
func NewPaymentReminder(cfg Config) *PaymentReminder {
	return &PaymentReminder{cfg: cfg}
}

// Name implements Module.
func (m *PaymentReminder) Name() string { return NamePaymentReminder }

// Run implements Module.
func (m *PaymentReminder) Run(ctx context.Context, tenantID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.rules.paymentreminder")
	defer span.End()

	ctx = auditstore.SystemContext(ctx)

	p, err := m.cfg.policy(ctx, tenantID)
	if err != nil {
		return err
	}

	if !p.RemindersEnabled {
		m.cfg.Log.Debug(ctx, "rules: reminders disabled", "tenant_id", tenantID)
		return nil
	}

	now := m.cfg.now()
	today := m.cfg.today()
	until := today.AddDate(0, 0, p.ReminderLeadDays)

	var out outbox

	err = m.cfg.withTx(ctx, func(bus busdomain.BusDomain) error {
		notSent := false
		invs, err := bus.Invoice.Query(ctx, tenantID, invoicebus.QueryFilter{
			Statuses:     []invoicestatus.Invoice{invoicestatus.Pending},
			DueFrom:      &today,
			DueTo:        &until,
			ReminderSent: &notSent,
		})
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}

		for _, inv := range invs {
			if _, err := bus.Invoice.MarkReminderSent(ctx, tenantID, inv, now); err != nil {
				return fmt.Errorf("reminder: %w", err)
			}

			if inv.ContactID != uuid.Nil {
				out.add(inv.ContactID.String(), "Payment reminder",
					fmt.Sprintf("Invoice %s for %s is due on %s.", inv.ID, inv.Balance().StringFixed(2), inv.DueDate.Format("2006-01-02")))
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
