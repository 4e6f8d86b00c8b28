package rules_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/applicationbus"
	"github.com/jcpaschoal/leasekeeper/business/domain/earningsbus"
	"github.com/jcpaschoal/leasekeeper/business/domain/invoicebus"
	"github.com/jcpaschoal/leasekeeper/business/domain/leasebus"
	"github.com/jcpaschoal/leasekeeper/business/domain/offerbus"
	"github.com/jcpaschoal/leasekeeper/business/domain/policybus"
	"github.com/jcpaschoal/leasekeeper/business/domain/prospectbus"
	"github.com/jcpaschoal/leasekeeper/business/domain/tourbus"
	"github.com/jcpaschoal/leasekeeper/business/rules"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/dbtest"
	"github.com/jcpaschoal/leasekeeper/business/sdk/notify"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/business/types/applicationstatus"
	"github.com/jcpaschoal/leasekeeper/business/types/invoicestatus"
	"github.com/jcpaschoal/leasekeeper/business/types/leasestatus"
	"github.com/jcpaschoal/leasekeeper/business/types/offerstatus"
	"github.com/jcpaschoal/leasekeeper/business/types/prospectstatus"
	"github.com/jcpaschoal/leasekeeper/business/types/renewalstatus"
	"github.com/jcpaschoal/leasekeeper/business/types/tourstatus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db       *dbtest.Database
	sent     *notify.Recorder
	calc     *calcRecorder
	cfg      rules.Config
	ctx      context.Context
	tenantID uuid.UUID
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	db := dbtest.New(t, now)
	sent := &notify.Recorder{}
	calc := &calcRecorder{}

	f := fixture{
		db:   db,
		sent: sent,
		calc: calc,
		cfg: rules.Config{
			Log:        db.Log,
			Bus:        db.BusDomain,
			Beginner:   db.DB,
			Sender:     sent,
			Calculator: calc,
			Now:        db.Clock.Now,
		},
		ctx:      auditstore.SystemContext(context.Background()),
		tenantID: uuid.New(),
	}

	_, err := db.BusDomain.Policy.Provision(f.ctx, f.tenantID)
	require.NoError(t, err)

	return &f
}

func (f *fixture) today() time.Time {
	y, m, d := f.db.Clock.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) updatePolicy(t *testing.T, up policybus.UpdatePolicy) {
	t.Helper()

	p, err := f.db.BusDomain.Policy.QueryByTenant(f.ctx, f.tenantID)
	require.NoError(t, err)

	_, err = f.db.BusDomain.Policy.Update(f.ctx, f.tenantID, p, up)
	require.NoError(t, err)
}

func (f *fixture) invoice(t *testing.T, amount int64, dueInDays int) invoicebus.Invoice {
	t.Helper()

	inv, err := f.db.BusDomain.Invoice.Create(f.ctx, f.tenantID, invoicebus.NewInvoice{
		ContactID: uuid.New(),
		Amount:    decimal.NewFromInt(amount),
		DueDate:   f.today().AddDate(0, 0, dueInDays),
	})
	require.NoError(t, err)

	return inv
}

func (f *fixture) reloadInvoice(t *testing.T, id uuid.UUID) invoicebus.Invoice {
	t.Helper()

	inv, err := f.db.BusDomain.Invoice.QueryByID(f.ctx, f.tenantID, id)
	require.NoError(t, err)

	return inv
}

func (f *fixture) lease(t *testing.T, status leasestatus.Lease, endInDays int) leasebus.Lease {
	t.Helper()

	l, err := f.db.BusDomain.Lease.Create(f.ctx, f.tenantID, leasebus.NewLease{
		UnitID:    uuid.New(),
		ContactID: uuid.New(),
		StartDate: f.today().AddDate(-1, 0, 0),
		EndDate:   f.today().AddDate(0, 0, endInDays),
		Status:    status,
	})
	require.NoError(t, err)

	return l
}

func (f *fixture) reloadLease(t *testing.T, id uuid.UUID) leasebus.Lease {
	t.Helper()

	l, err := f.db.BusDomain.Lease.QueryByID(f.ctx, f.tenantID, id)
	require.NoError(t, err)

	return l
}

func ptr[T any](v T) *T { return &v }

type calcRecorder struct {
	mu    sync.Mutex
	calls []int
	err   error
}

func (c *calcRecorder) Calculate(ctx context.Context, tenantID uuid.UUID, year int, earnings decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, year)
	return c.err
}

func (c *calcRecorder) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.calls)
}

type failBeginner struct{}

func (failBeginner) Begin() (sqldb.CommitRollbacker, error) {
	return nil, errors.New("database is unavailable")
}

// hookBeginner runs before once, ahead of the first transaction it opens.
type hookBeginner struct {
	sqldb.Beginner
	once   sync.Once
	before func()
}

func (b *hookBeginner) Begin() (sqldb.CommitRollbacker, error) {
	b.once.Do(b.before)
	return b.Beginner.Begin()
}

// =============================================================================

func Test_InvoiceAging_CappedFee(t *testing.T) {
	f := newFixture(t, start)
	f.updatePolicy(t, policybus.UpdatePolicy{GracePeriodDays: ptr(3)})

	inv := f.invoice(t, 1000, -10)

	aging := rules.NewInvoiceAging(f.cfg)
	require.NoError(t, aging.Run(context.Background(), f.tenantID))

	got := f.reloadInvoice(t, inv.ID)
	assert.True(t, got.LateFeeApplied)
	assert.True(t, got.LateFee.Valid)
	assert.Equal(t, "50.00", got.LateFee.Decimal.StringFixed(2))
	assert.Equal(t, "1050.00", got.Amount.StringFixed(2))
	assert.Equal(t, invoicestatus.Overdue, got.Status)
	assert.Len(t, got.Notes, 1)
	assert.Equal(t, auditstore.SystemActor, got.UpdatedBy)

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, aging.Run(context.Background(), f.tenantID))

		again := f.reloadInvoice(t, inv.ID)
		assert.Equal(t, "1050.00", again.Amount.StringFixed(2))
		assert.Len(t, again.Notes, 1)
	})
}

func Test_InvoiceAging_GracePeriod(t *testing.T) {
	f := newFixture(t, start)

	inv := f.invoice(t, 200, -2)

	aging := rules.NewInvoiceAging(f.cfg)
	require.NoError(t, aging.Run(context.Background(), f.tenantID))

	got := f.reloadInvoice(t, inv.ID)
	assert.Equal(t, invoicestatus.Overdue, got.Status)
	assert.False(t, got.LateFeeApplied)
	assert.Equal(t, "200.00", got.Amount.StringFixed(2))

	f.db.Clock.Advance(4 * 24 * time.Hour)
	require.NoError(t, aging.Run(context.Background(), f.tenantID))

	got = f.reloadInvoice(t, inv.ID)
	assert.True(t, got.LateFeeApplied)
	assert.Equal(t, "10.00", got.LateFee.Decimal.StringFixed(2))
	assert.Equal(t, "210.00", got.Amount.StringFixed(2))
}

func Test_InvoiceAging_AutoApplyOff(t *testing.T) {
	f := newFixture(t, start)
	f.updatePolicy(t, policybus.UpdatePolicy{LateFeeAutoApply: ptr(false)})

	inv := f.invoice(t, 1000, -30)

	require.NoError(t, rules.NewInvoiceAging(f.cfg).Run(context.Background(), f.tenantID))

	got := f.reloadInvoice(t, inv.ID)
	assert.Equal(t, invoicestatus.Overdue, got.Status)
	assert.False(t, got.LateFeeApplied)
	assert.False(t, got.LateFee.Valid)
}

func Test_Cancelled_Sticky(t *testing.T) {
	f := newFixture(t, start)

	late := f.invoice(t, 1000, -30)
	late, err := f.db.BusDomain.Invoice.Cancel(f.ctx, f.tenantID, late, "written off")
	require.NoError(t, err)

	soon := f.invoice(t, 100, 1)
	soon, err = f.db.BusDomain.Invoice.Cancel(f.ctx, f.tenantID, soon, "duplicate")
	require.NoError(t, err)

	for _, m := range rules.DailyModules(f.cfg) {
		require.NoError(t, m.Run(context.Background(), f.tenantID), m.Name())
	}

	got := f.reloadInvoice(t, late.ID)
	assert.Equal(t, invoicestatus.Cancelled, got.Status)
	assert.False(t, got.LateFeeApplied)

	got = f.reloadInvoice(t, soon.ID)
	assert.Equal(t, invoicestatus.Cancelled, got.Status)
	assert.False(t, got.ReminderSent)

	assert.Empty(t, f.sent.Messages())
}

func Test_Rules_TenantIsolation(t *testing.T) {
	f := newFixture(t, start)

	other := uuid.New()
	_, err := f.db.BusDomain.Policy.Provision(f.ctx, other)
	require.NoError(t, err)

	foreign, err := f.db.BusDomain.Invoice.Create(f.ctx, other, invoicebus.NewInvoice{
		Amount:  decimal.NewFromInt(500),
		DueDate: f.today().AddDate(0, 0, -20),
	})
	require.NoError(t, err)

	require.NoError(t, rules.NewInvoiceAging(f.cfg).Run(context.Background(), f.tenantID))

	got, err := f.db.BusDomain.Invoice.QueryByID(f.ctx, other, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicestatus.Pending, got.Status)
	assert.False(t, got.LateFeeApplied)
}

func Test_PaymentReminder(t *testing.T) {
	f := newFixture(t, start)

	due := f.invoice(t, 300, 2)
	later := f.invoice(t, 300, 10)

	reminder := rules.NewPaymentReminder(f.cfg)
	require.NoError(t, reminder.Run(context.Background(), f.tenantID))

	got := f.reloadInvoice(t, due.ID)
	assert.True(t, got.ReminderSent)
	assert.Equal(t, start, got.ReminderSentAt)

	assert.False(t, f.reloadInvoice(t, later.ID).ReminderSent)

	msgs := f.sent.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{due.ContactID.String()}, msgs[0].Recipients)
	assert.Equal(t, f.tenantID, msgs[0].TenantID)

	require.NoError(t, reminder.Run(context.Background(), f.tenantID))
	assert.Len(t, f.sent.Messages(), 1)
}

func Test_PaymentReminder_LastDayOfWindow(t *testing.T) {
	f := newFixture(t, start)

	inv, err := f.db.BusDomain.Invoice.Create(f.ctx, f.tenantID, invoicebus.NewInvoice{
		ContactID: uuid.New(),
		Amount:    decimal.NewFromInt(300),
		DueDate:   f.today().AddDate(0, 0, 3).Add(18 * time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, rules.NewPaymentReminder(f.cfg).Run(context.Background(), f.tenantID))

	assert.True(t, f.reloadInvoice(t, inv.ID).ReminderSent)
}

func Test_PaymentReminder_Disabled(t *testing.T) {
	f := newFixture(t, start)
	f.updatePolicy(t, policybus.UpdatePolicy{RemindersEnabled: ptr(false)})

	inv := f.invoice(t, 300, 1)

	require.NoError(t, rules.NewPaymentReminder(f.cfg).Run(context.Background(), f.tenantID))

	assert.False(t, f.reloadInvoice(t, inv.ID).ReminderSent)
	assert.Empty(t, f.sent.Messages())
}

func Test_PaymentReminder_SendFailureKeepsFlag(t *testing.T) {
	f := newFixture(t, start)
	f.sent.Err = errors.New("smtp down")

	inv := f.invoice(t, 300, 1)

	require.NoError(t, rules.NewPaymentReminder(f.cfg).Run(context.Background(), f.tenantID))

	assert.True(t, f.reloadInvoice(t, inv.ID).ReminderSent)
}

func Test_LeaseRenewal_Ladder(t *testing.T) {
	f := newFixture(t, start)

	l := f.lease(t, leasestatus.Active, 85)
	renewal := rules.NewLeaseRenewal(f.cfg)

	require.NoError(t, renewal.Run(context.Background(), f.tenantID))

	got := f.reloadLease(t, l.ID)
	assert.True(t, got.RenewalNoticeSent)
	assert.False(t, got.RenewalReminderSent)
	assert.Equal(t, renewalstatus.Pending, got.RenewalStatus)

	require.NoError(t, renewal.Run(context.Background(), f.tenantID))
	assert.False(t, f.reloadLease(t, l.ID).RenewalReminderSent)
	assert.Len(t, f.sent.Messages(), 1)

	f.db.Clock.Advance(30 * 24 * time.Hour)
	require.NoError(t, renewal.Run(context.Background(), f.tenantID))

	got = f.reloadLease(t, l.ID)
	assert.True(t, got.RenewalReminderSent)
	assert.False(t, got.FinalReminderSent)

	f.db.Clock.Advance(30 * 24 * time.Hour)
	require.NoError(t, renewal.Run(context.Background(), f.tenantID))

	got = f.reloadLease(t, l.ID)
	assert.True(t, got.FinalReminderSent)
	assert.Len(t, f.sent.Messages(), 3)
}

func Test_LeaseRenewal_OneStepPerPass(t *testing.T) {
	f := newFixture(t, start)

	l := f.lease(t, leasestatus.Active, 20)
	renewal := rules.NewLeaseRenewal(f.cfg)

	require.NoError(t, renewal.Run(context.Background(), f.tenantID))
	got := f.reloadLease(t, l.ID)
	assert.True(t, got.RenewalNoticeSent)
	assert.False(t, got.RenewalReminderSent)
	assert.False(t, got.FinalReminderSent)

	require.NoError(t, renewal.Run(context.Background(), f.tenantID))
	got = f.reloadLease(t, l.ID)
	assert.True(t, got.RenewalReminderSent)
	assert.False(t, got.FinalReminderSent)

	require.NoError(t, renewal.Run(context.Background(), f.tenantID))
	got = f.reloadLease(t, l.ID)
	assert.True(t, got.FinalReminderSent)

	assert.False(t, got.RenewalReminderSentAt.Before(got.RenewalNoticeSentAt))
	assert.False(t, got.FinalReminderSentAt.Before(got.RenewalReminderSentAt))
}

func Test_LeaseRenewal_FinalNeedsOpenRenewal(t *testing.T) {
	f := newFixture(t, start)

	l := f.lease(t, leasestatus.Active, 20)
	renewal := rules.NewLeaseRenewal(f.cfg)

	require.NoError(t, renewal.Run(context.Background(), f.tenantID))
	require.NoError(t, renewal.Run(context.Background(), f.tenantID))

	l = f.reloadLease(t, l.ID)
	_, err := f.db.BusDomain.Lease.Update(f.ctx, f.tenantID, l, leasebus.UpdateLease{RenewalStatus: ptr(renewalstatus.Declined)})
	require.NoError(t, err)

	require.NoError(t, renewal.Run(context.Background(), f.tenantID))
	assert.False(t, f.reloadLease(t, l.ID).FinalReminderSent)
}

func Test_LeaseRenewal_SkipsOtherStatuses(t *testing.T) {
	f := newFixture(t, start)

	l := f.lease(t, leasestatus.MonthToMonth, 40)

	require.NoError(t, rules.NewLeaseRenewal(f.cfg).Run(context.Background(), f.tenantID))
	assert.False(t, f.reloadLease(t, l.ID).RenewalNoticeSent)
}

func Test_LeaseExpiry(t *testing.T) {
	f := newFixture(t, start)

	lapsed := f.lease(t, leasestatus.Active, -1)
	notice := f.lease(t, leasestatus.NoticeGiven, -3)
	rolling := f.lease(t, leasestatus.MonthToMonth, -40)
	endsToday := f.lease(t, leasestatus.Active, 0)
	neverStarted := f.lease(t, leasestatus.Pending, -2)

	require.NoError(t, rules.NewLeaseExpiry(f.cfg).Run(context.Background(), f.tenantID))

	assert.Equal(t, leasestatus.Expired, f.reloadLease(t, neverStarted.ID).Status)

	assert.Equal(t, leasestatus.Expired, f.reloadLease(t, lapsed.ID).Status)
	assert.Equal(t, leasestatus.Expired, f.reloadLease(t, notice.ID).Status)
	assert.Equal(t, leasestatus.MonthToMonth, f.reloadLease(t, rolling.ID).Status)
	assert.Equal(t, leasestatus.Active, f.reloadLease(t, endsToday.ID).Status)
	assert.Equal(t, auditstore.SystemActor, f.reloadLease(t, lapsed.ID).UpdatedBy)
}

func Test_ApplicationExpiry(t *testing.T) {
	f := newFixture(t, start)

	bus := f.db.BusDomain.Application

	lapsed, err := bus.Create(f.ctx, f.tenantID, applicationbus.NewApplication{
		Status:    applicationstatus.Submitted,
		ExpiresAt: start.Add(-time.Hour),
	})
	require.NoError(t, err)

	current, err := bus.Create(f.ctx, f.tenantID, applicationbus.NewApplication{
		ExpiresAt: start.Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, rules.NewApplicationExpiry(f.cfg).Run(context.Background(), f.tenantID))

	got, err := bus.QueryByID(f.ctx, f.tenantID, lapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, applicationstatus.Expired, got.Status)

	got, err = bus.QueryByID(f.ctx, f.tenantID, current.ID)
	require.NoError(t, err)
	assert.Equal(t, applicationstatus.Draft, got.Status)
}

func Test_OfferExpiry(t *testing.T) {
	f := newFixture(t, start)

	bus := f.db.BusDomain.Offer

	var lapsed []offerbus.Offer
	for range 2 {
		o, err := bus.Create(f.ctx, f.tenantID, offerbus.NewOffer{
			Rent:      decimal.NewFromInt(1500),
			ExpiresAt: start.Add(-24 * time.Hour),
		})
		require.NoError(t, err)
		lapsed = append(lapsed, o)
	}

	open, err := bus.Create(f.ctx, f.tenantID, offerbus.NewOffer{
		Rent:      decimal.NewFromInt(1500),
		ExpiresAt: start.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	res, err := rules.NewOfferExpiry(f.cfg).Expire(context.Background(), f.tenantID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Expired)
	assert.Empty(t, res.Errors)
	assert.NoError(t, res.Err())

	for _, o := range lapsed {
		got, err := bus.QueryByID(f.ctx, f.tenantID, o.ID)
		require.NoError(t, err)
		assert.Equal(t, offerstatus.Expired, got.Status)
	}

	got, err := bus.QueryByID(f.ctx, f.tenantID, open.ID)
	require.NoError(t, err)
	assert.Equal(t, offerstatus.Pending, got.Status)
}

func Test_OfferExpiry_PartialFailure(t *testing.T) {
	f := newFixture(t, start)

	_, err := f.db.BusDomain.Offer.Create(f.ctx, f.tenantID, offerbus.NewOffer{
		Rent:      decimal.NewFromInt(900),
		ExpiresAt: start.Add(-time.Hour),
	})
	require.NoError(t, err)

	cfg := f.cfg
	cfg.Beginner = failBeginner{}

	m := rules.NewOfferExpiry(cfg)

	res, err := m.Expire(context.Background(), f.tenantID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.Expired)
	assert.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Err(), rules.ErrValidationFailed)

	assert.NoError(t, m.Run(context.Background(), f.tenantID))
}

func Test_OfferExpiry_AcceptedBeforeTx(t *testing.T) {
	f := newFixture(t, start)

	bus := f.db.BusDomain.Offer

	o, err := bus.Create(f.ctx, f.tenantID, offerbus.NewOffer{
		Rent:      decimal.NewFromInt(1200),
		ExpiresAt: start.Add(-time.Hour),
	})
	require.NoError(t, err)

	cfg := f.cfg
	cfg.Beginner = &hookBeginner{
		Beginner: f.db.DB,
		before: func() {
			_, err := bus.Update(f.ctx, f.tenantID, o, offerbus.UpdateOffer{Status: ptr(offerstatus.Accepted)})
			require.NoError(t, err)
		},
	}

	res, err := rules.NewOfferExpiry(cfg).Expire(context.Background(), f.tenantID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.Expired)

	got, err := bus.QueryByID(f.ctx, f.tenantID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, offerstatus.Accepted, got.Status)
}

func Test_TourNoShow_Cascade(t *testing.T) {
	scheduledAt := start.Add(24 * time.Hour)

	tests := []struct {
		name       string
		secondTour bool
		want       prospectstatus.Prospect
	}{
		{name: "only-tour", secondTour: false, want: prospectstatus.Lead},
		{name: "second-tour", secondTour: true, want: prospectstatus.TourScheduled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, start)
			f.updatePolicy(t, policybus.UpdatePolicy{NoShowGraceHours: ptr(4)})

			bus := f.db.BusDomain

			p, err := bus.Prospect.Create(f.ctx, f.tenantID, prospectbus.NewProspect{Name: "Ana Souza"})
			require.NoError(t, err)

			tour, err := bus.Tour.Create(f.ctx, f.tenantID, tourbus.NewTour{ContactID: p.ID, ScheduledAt: scheduledAt})
			require.NoError(t, err)

			var second tourbus.Tour
			if tt.secondTour {
				second, err = bus.Tour.Create(f.ctx, f.tenantID, tourbus.NewTour{ContactID: p.ID, ScheduledAt: scheduledAt.Add(72 * time.Hour)})
				require.NoError(t, err)
			}

			elevated, err := bus.Prospect.QueryByID(f.ctx, f.tenantID, p.ID)
			require.NoError(t, err)
			require.Equal(t, prospectstatus.TourScheduled, elevated.Status)

			f.db.Clock.Set(scheduledAt.Add(5 * time.Hour))
			require.NoError(t, rules.NewTourNoShow(f.cfg).Run(context.Background(), f.tenantID))

			got, err := bus.Tour.QueryByID(f.ctx, f.tenantID, tour.ID)
			require.NoError(t, err)
			assert.Equal(t, tourstatus.NoShow, got.Status)

			if tt.secondTour {
				got, err = bus.Tour.QueryByID(f.ctx, f.tenantID, second.ID)
				require.NoError(t, err)
				assert.Equal(t, tourstatus.Scheduled, got.Status)
			}

			prospect, err := bus.Prospect.QueryByID(f.ctx, f.tenantID, p.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, prospect.Status)
		})
	}
}

func Test_TourNoShow_WithinGrace(t *testing.T) {
	f := newFixture(t, start)
	f.updatePolicy(t, policybus.UpdatePolicy{NoShowGraceHours: ptr(4)})

	tour, err := f.db.BusDomain.Tour.Create(f.ctx, f.tenantID, tourbus.NewTour{ScheduledAt: start.Add(-3 * time.Hour)})
	require.NoError(t, err)

	require.NoError(t, rules.NewTourNoShow(f.cfg).Run(context.Background(), f.tenantID))

	got, err := f.db.BusDomain.Tour.QueryByID(f.ctx, f.tenantID, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, tourstatus.Scheduled, got.Status)
}

func Test_TourNoShow_ContactNotProspect(t *testing.T) {
	f := newFixture(t, start)

	tour, err := f.db.BusDomain.Tour.Create(f.ctx, f.tenantID, tourbus.NewTour{ContactID: uuid.New(), ScheduledAt: start.Add(-48 * time.Hour)})
	require.NoError(t, err)

	require.NoError(t, rules.NewTourNoShow(f.cfg).Run(context.Background(), f.tenantID))

	got, err := f.db.BusDomain.Tour.QueryByID(f.ctx, f.tenantID, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, tourstatus.NoShow, got.Status)
}

func Test_Dividend(t *testing.T) {
	jan3 := time.Date(2027, time.January, 3, 1, 0, 0, 0, time.UTC)

	setup := func(t *testing.T, now time.Time, enabled bool, earnings int64) (*fixture, earningsbus.Aggregation) {
		f := newFixture(t, now)
		f.updatePolicy(t, policybus.UpdatePolicy{DividendsEnabled: ptr(enabled)})

		agg, err := f.db.BusDomain.Earnings.Create(f.ctx, f.tenantID, earningsbus.NewAggregation{
			Year:     2026,
			Earnings: decimal.NewFromInt(earnings),
		})
		require.NoError(t, err)

		return f, agg
	}

	t.Run("distributes-once", func(t *testing.T) {
		f, agg := setup(t, jan3, true, 12000)
		m := rules.NewDividend(f.cfg)

		require.NoError(t, m.Run(context.Background(), f.tenantID))
		require.NoError(t, m.Run(context.Background(), f.tenantID))

		assert.Equal(t, 1, f.calc.count())

		got, err := f.db.BusDomain.Earnings.QueryByYear(f.ctx, f.tenantID, 2026)
		require.NoError(t, err)
		assert.Equal(t, agg.ID, got.ID)
		assert.True(t, got.Distributed)
		assert.Equal(t, jan3, got.DistributedAt)
	})

	t.Run("outside-window", func(t *testing.T) {
		f, _ := setup(t, time.Date(2027, time.January, 8, 1, 0, 0, 0, time.UTC), true, 12000)

		require.NoError(t, rules.NewDividend(f.cfg).Run(context.Background(), f.tenantID))
		assert.Equal(t, 0, f.calc.count())
	})

	t.Run("disabled", func(t *testing.T) {
		f, _ := setup(t, jan3, false, 12000)

		require.NoError(t, rules.NewDividend(f.cfg).Run(context.Background(), f.tenantID))
		assert.Equal(t, 0, f.calc.count())
	})

	t.Run("no-earnings", func(t *testing.T) {
		f, _ := setup(t, jan3, true, 0)

		require.NoError(t, rules.NewDividend(f.cfg).Run(context.Background(), f.tenantID))
		assert.Equal(t, 0, f.calc.count())
	})

	t.Run("calculator-fails", func(t *testing.T) {
		f, _ := setup(t, jan3, true, 12000)
		f.calc.err = errors.New("ledger offline")

		m := rules.NewDividend(f.cfg)
		require.NoError(t, m.Run(context.Background(), f.tenantID))

		got, err := f.db.BusDomain.Earnings.QueryByYear(f.ctx, f.tenantID, 2026)
		require.NoError(t, err)
		assert.False(t, got.Distributed)

		f.calc.err = nil
		require.NoError(t, m.Run(context.Background(), f.tenantID))
		assert.Equal(t, 2, f.calc.count())

		got, err = f.db.BusDomain.Earnings.QueryByYear(f.ctx, f.tenantID, 2026)
		require.NoError(t, err)
		assert.True(t, got.Distributed)
	})

	t.Run("distributed-before-tx", func(t *testing.T) {
		f, agg := setup(t, jan3, true, 12000)

		cfg := f.cfg
		cfg.Beginner = &hookBeginner{
			Beginner: f.db.DB,
			before: func() {
				_, err := f.db.BusDomain.Earnings.MarkDistributed(f.ctx, f.tenantID, agg, jan3)
				require.NoError(t, err)
			},
		}

		require.NoError(t, rules.NewDividend(cfg).Run(context.Background(), f.tenantID))
		assert.Equal(t, 0, f.calc.count())
	})
}

func Test_Digest(t *testing.T) {
	f := newFixture(t, start)

	f.invoice(t, 100, -3)
	f.lease(t, leasestatus.Active, 10)
	f.lease(t, leasestatus.Active, 200)

	_, err := f.db.BusDomain.Application.Create(f.ctx, f.tenantID, applicationbus.NewApplication{ExpiresAt: start.Add(48 * time.Hour)})
	require.NoError(t, err)

	require.NoError(t, rules.NewInvoiceAging(f.cfg).Run(context.Background(), f.tenantID))

	d := rules.NewDigest(f.cfg)

	counts, err := d.Count(f.ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, rules.DigestCounts{OverdueInvoices: 1, LeasesEnding: 1, OpenApplications: 1}, counts)

	require.NoError(t, d.Run(context.Background(), f.tenantID))

	msgs := f.sent.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{notify.StaffRecipient}, msgs[0].Recipients)
}

func Test_Digest_Empty(t *testing.T) {
	f := newFixture(t, start)

	require.NoError(t, rules.NewDigest(f.cfg).Run(context.Background(), f.tenantID))
	assert.Empty(t, f.sent.Messages())
}

func Test_UpcomingLeases(t *testing.T) {
	f := newFixture(t, start)

	_, err := f.db.BusDomain.Lease.Create(f.ctx, f.tenantID, leasebus.NewLease{
		UnitID:    uuid.New(),
		StartDate: f.today().AddDate(0, 0, 3),
		EndDate:   f.today().AddDate(1, 0, 3),
	})
	require.NoError(t, err)

	require.NoError(t, rules.NewUpcomingLeases(f.cfg).Run(context.Background(), f.tenantID))
}

func Test_Pipelines(t *testing.T) {
	names := func(ms []rules.Module) []string {
		var out []string
		for _, m := range ms {
			out = append(out, m.Name())
		}
		return out
	}

	var cfg rules.Config

	assert.Equal(t, []string{rules.NameInvoiceAging, rules.NamePaymentReminder, rules.NameLeaseRenewal, rules.NameLeaseExpiry}, names(rules.DailyModules(cfg)))
	assert.Equal(t, []string{rules.NameDigest, rules.NameApplicationExpiry, rules.NameOfferExpiry, rules.NameDividend}, names(rules.NightlyModules(cfg)))
	assert.Equal(t, []string{rules.NameTourNoShow, rules.NameUpcomingLeases}, names(rules.HourlyModules(cfg)))
}
