// Package invoicebus provides business access to invoices, late fees and
// payments.
package invoicebus

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/business/types/civil"
	"github.com/jcpaschoal/leasekeeper/business/types/invoicestatus"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
	"github.com/shopspring/decimal"
)

// Set of error variables for invoice operations.
var (
	ErrCancelled      = errors.New("invoice is cancelled")
	ErrLateFeeApplied = errors.New("late fee already applied")
	ErrNotPending     = errors.New("invoice is not pending")
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrOverpayment    = errors.New("payment exceeds balance")
)

var hundred = decimal.NewFromInt(100)

// Core manages the set of APIs for invoice access.
type Core struct {
	log   *logger.Logger
	store *auditstore.Store[Invoice]
}

// NewCore constructs a core for invoice api access.
func NewCore(log *logger.Logger, store *auditstore.Store[Invoice]) *Core {
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

// Create adds a new pending invoice.
func (c *Core) Create(ctx context.Context, tenantID uuid.UUID, ni NewInvoice) (Invoice, error) {
	ctx, span := otel.AddSpan(ctx, "business.invoicebus.create")
	defer span.End()

	if !ni.Amount.IsPositive() {
		return Invoice{}, ErrInvalidAmount
	}

	inv := Invoice{
		UnitID:     ni.UnitID,
		LeaseID:    ni.LeaseID,
		ContactID:  ni.ContactID,
		Amount:     ni.Amount,
		AmountPaid: decimal.Zero,
		DueDate:    civil.Date(ni.DueDate),
		Status:     invoicestatus.Pending,
	}
	inv.Sample = ni.Sample

	inv, err := c.store.Create(ctx, tenantID, inv)
	if err != nil {
		return Invoice{}, fmt.Errorf("create: %w", err)
	}

	return inv, nil
}

// Update modifies the amount or due date of an open invoice.
func (c *Core) Update(ctx context.Context, tenantID uuid.UUID, inv Invoice, ui UpdateInvoice) (Invoice, error) {
	ctx, span := otel.AddSpan(ctx, "business.invoicebus.update")
	defer span.End()

	if inv.Status.Equal(invoicestatus.Cancelled) {
		return Invoice{}, fmt.Errorf("update: invoiceID[%s]: %w", inv.ID, ErrCancelled)
	}

	if ui.DueDate != nil {
		inv.DueDate = civil.Date(*ui.DueDate)
	}
	if ui.Amount != nil {
		if !ui.Amount.IsPositive() || ui.Amount.LessThan(inv.AmountPaid) {
			return Invoice{}, fmt.Errorf("update: invoiceID[%s]: %w", inv.ID, ErrInvalidAmount)
		}
		inv.Amount = *ui.Amount
	}

	return c.save(ctx, tenantID, inv)
}

// Delete removes the invoice.
func (c *Core) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.invoicebus.delete")
	defer span.End()

	if err := c.store.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// QueryByID finds the invoice by the specified id.
func (c *Core) QueryByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (Invoice, error) {
	ctx, span := otel.AddSpan(ctx, "business.invoicebus.querybyid")
	defer span.End()

	inv, err := c.store.QueryByID(ctx, tenantID, id)
	if err != nil {
		return Invoice{}, fmt.Errorf("query: invoiceID[%s]: %w", id, err)
	}

	return inv, nil
}

// Query retrieves the tenant's invoices matching the filter.
func (c *Core) Query(ctx context.Context, tenantID uuid.UUID, filter QueryFilter) ([]Invoice, error) {
	ctx, span := otel.AddSpan(ctx, "business.invoicebus.query")
	defer span.End()

	invs, err := c.store.Query(ctx, tenantID, filter.match)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return invs, nil
}

// =============================================================================

// CalculateLateFee returns pct percent of amount, capped and rounded to
// cents.
func CalculateLateFee(amount decimal.Decimal, pct decimal.Decimal, limit decimal.Decimal) decimal.Decimal {
	fee := amount.Mul(pct).Div(hundred)
	if fee.GreaterThan(limit) {
		fee = limit
	}
	return fee.Round(2)
}

// DeriveStatus computes the status implied by the amounts and the due date.
// Cancelled never changes.
func DeriveStatus(inv Invoice, today time.Time) invoicestatus.Invoice {
	switch {
	case inv.Status.Equal(invoicestatus.Cancelled):
		return invoicestatus.Cancelled
	case inv.AmountPaid.GreaterThanOrEqual(inv.Amount):
		return invoicestatus.Paid
	case inv.AmountPaid.IsPositive():
		return invoicestatus.Partial
	case inv.DueDate.Before(today):
		return invoicestatus.Overdue
	}
	return invoicestatus.Pending
}

// ApplyLateFee adds fee to the invoice once, marks it overdue and notes the
// charge.
func (c *Core) ApplyLateFee(ctx context.Context, tenantID uuid.UUID, inv Invoice, fee decimal.Decimal, now time.Time) (Invoice, error) {
	ctx, span := otel.AddSpan(ctx, "business.invoicebus.applylatefee")
	defer span.End()

	switch {
	case inv.Status.Equal(invoicestatus.Cancelled):
		return Invoice{}, fmt.Errorf("latefee: invoiceID[%s]: %w", inv.ID, ErrCancelled)
	case inv.LateFeeApplied:
		return Invoice{}, fmt.Errorf("latefee: invoiceID[%s]: %w", inv.ID, ErrLateFeeApplied)
	}

	inv.Amount = inv.Amount.Add(fee)
	inv.LateFee = decimal.NewNullDecimal(fee)
	inv.LateFeeApplied = true
	inv.Status = invoicestatus.Overdue
	inv.Notes = append(slices.Clip(inv.Notes), fmt.Sprintf("%s late fee of %s applied", now.UTC().Format(time.DateOnly), fee.StringFixed(2)))

	return c.save(ctx, tenantID, inv)
}

// MarkOverdue moves a pending invoice to Overdue.
func (c *Core) MarkOverdue(ctx context.Context, tenantID uuid.UUID, inv Invoice) (Invoice, error) {
	ctx, span := otel.AddSpan(ctx, "business.invoicebus.markoverdue")
	defer span.End()

	switch {
	case inv.Status.Equal(invoicestatus.Cancelled):
		return Invoice{}, fmt.Errorf("overdue: invoiceID[%s]: %w", inv.ID, ErrCancelled)
	case !inv.Status.Equal(invoicestatus.Pending):
		return Invoice{}, fmt.Errorf("overdue: invoiceID[%s] status[%s]: %w", inv.ID, inv.Status, ErrNotPending)
	}

	inv.Status = invoicestatus.Overdue

	return c.save(ctx, tenantID, inv)
}

// MarkReminderSent records that the payment reminder went out.
func (c *Core) MarkReminderSent(ctx context.Context, tenantID uuid.UUID, inv Invoice, now time.Time) (Invoice, error) {
	ctx, span := otel.AddSpan(ctx, "business.invoicebus.markremindersent")
	defer span.End()

	if inv.Status.Equal(invoicestatus.Cancelled) {
		return Invoice{}, fmt.Errorf("reminder: invoiceID[%s]: %w", inv.ID, ErrCancelled)
	}

	inv.ReminderSent = true
	inv.ReminderSentAt = now

	return c.save(ctx, tenantID, inv)
}

// ApplyPayment records a payment and recomputes the status.
func (c *Core) ApplyPayment(ctx context.Context, tenantID uuid.UUID, inv Invoice, amount decimal.Decimal, today time.Time) (Invoice, error) {
	ctx, span := otel.AddSpan(ctx, "business.invoicebus.applypayment")
	defer span.End()

	switch {
	case inv.Status.Equal(invoicestatus.Cancelled):
		return Invoice{}, fmt.Errorf("payment: invoiceID[%s]: %w", inv.ID, ErrCancelled)
	case !amount.IsPositive():
		return Invoice{}, fmt.Errorf("payment: invoiceID[%s]: %w", inv.ID, ErrInvalidAmount)
	case amount.GreaterThan(inv.Balance()):
		return Invoice{}, fmt.Errorf("payment: invoiceID[%s] balance[%s]: %w", inv.ID, inv.Balance(), ErrOverpayment)
	}

	inv.AmountPaid = inv.AmountPaid.Add(amount)
	inv.Status = DeriveStatus(inv, today)

	return c.save(ctx, tenantID, inv)
}

// Cancel moves the invoice to Cancelled for good.
func (c *Core) Cancel(ctx context.Context, tenantID uuid.UUID, inv Invoice, reason string) (Invoice, error) {
	ctx, span := otel.AddSpan(ctx, "business.invoicebus.cancel")
	defer span.End()

	if inv.Status.Equal(invoicestatus.Cancelled) {
		return inv, nil
	}

	inv.Status = invoicestatus.Cancelled
	if reason != "" {
		inv.Notes = append(slices.Clip(inv.Notes), "cancelled: "+reason)
	}

	return c.save(ctx, tenantID, inv)
}

func (c *Core) save(ctx context.Context, tenantID uuid.UUID, inv Invoice) (Invoice, error) {
	inv, err := c.store.Update(ctx, tenantID, inv)
	if err != nil {
		return Invoice{}, fmt.Errorf("update: %w", err)
	}

	return inv, nil
}
