// Package leasebus provides business access to leases and their renewal
// ladder.
package leasebus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/business/types/civil"
	"github.com/jcpaschoal/leasekeeper/business/types/leasestatus"
	"github.com/jcpaschoal/leasekeeper/business/types/renewalstatus"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
)

// Set of error variables for lease operations.
var (
	ErrOverlap      = errors.New("unit already has an active or pending lease for these dates")
	ErrInvalidDates = errors.New("lease must end after it starts")
	ErrLadderOrder  = errors.New("renewal step out of order")
	ErrAlreadySent  = errors.New("renewal step already sent")
	ErrTerminal     = errors.New("lease is in a terminal status")
)

// Core manages the set of APIs for lease access.
type Core struct {
	log   *logger.Logger
	store *auditstore.Store[Lease]
}

// NewCore constructs a core for lease api access.
func NewCore(log *logger.Logger, store *auditstore.Store[Lease]) *Core {
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

// Create adds a new lease. A lease with no status starts as Pending.
func (c *Core) Create(ctx context.Context, tenantID uuid.UUID, nl NewLease) (Lease, error) {
	ctx, span := otel.AddSpan(ctx, "business.leasebus.create")
	defer span.End()

	status := nl.Status
	if status.String() == "" {
		status = leasestatus.Pending
	}

	l := Lease{
		UnitID:        nl.UnitID,
		ContactID:     nl.ContactID,
		StartDate:     civil.Date(nl.StartDate),
		EndDate:       civil.Date(nl.EndDate),
		Status:        status,
		RenewalStatus: renewalstatus.None,
	}
	l.Sample = nl.Sample

	if err := c.checkOccupancy(ctx, tenantID, l); err != nil {
		return Lease{}, fmt.Errorf("create: %w", err)
	}

	l, err := c.store.Create(ctx, tenantID, l)
	if err != nil {
		return Lease{}, fmt.Errorf("create: %w", err)
	}

	return l, nil
}

// Update modifies information about a lease.
func (c *Core) Update(ctx context.Context, tenantID uuid.UUID, l Lease, ul UpdateLease) (Lease, error) {
	ctx, span := otel.AddSpan(ctx, "business.leasebus.update")
	defer span.End()

	if ul.StartDate != nil {
		l.StartDate = civil.Date(*ul.StartDate)
	}
	if ul.EndDate != nil {
		l.EndDate = civil.Date(*ul.EndDate)
	}
	if ul.Status != nil {
		l.Status = *ul.Status
	}
	if ul.RenewalStatus != nil {
		l.RenewalStatus = *ul.RenewalStatus
	}

	if err := c.checkOccupancy(ctx, tenantID, l); err != nil {
		return Lease{}, fmt.Errorf("update: %w", err)
	}

	l, err := c.store.Update(ctx, tenantID, l)
	if err != nil {
		return Lease{}, fmt.Errorf("update: %w", err)
	}

	return l, nil
}

// Delete removes the lease.
func (c *Core) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.leasebus.delete")
	defer span.End()

	if err := c.store.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// QueryByID finds the lease by the specified id.
func (c *Core) QueryByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (Lease, error) {
	ctx, span := otel.AddSpan(ctx, "business.leasebus.querybyid")
	defer span.End()

	l, err := c.store.QueryByID(ctx, tenantID, id)
	if err != nil {
		return Lease{}, fmt.Errorf("query: leaseID[%s]: %w", id, err)
	}

	return l, nil
}

// Query retrieves the tenant's leases matching the filter.
func (c *Core) Query(ctx context.Context, tenantID uuid.UUID, filter QueryFilter) ([]Lease, error) {
	ctx, span := otel.AddSpan(ctx, "business.leasebus.query")
	defer span.End()

	leases, err := c.store.Query(ctx, tenantID, filter.match)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return leases, nil
}

// =============================================================================
// Renewal ladder

// SendRenewalNotice records the first renewal notice and opens the renewal.
func (c *Core) SendRenewalNotice(ctx context.Context, tenantID uuid.UUID, l Lease, now time.Time) (Lease, error) {
	ctx, span := otel.AddSpan(ctx, "business.leasebus.sendrenewalnotice")
	defer span.End()

	if l.RenewalNoticeSent {
		return Lease{}, fmt.Errorf("notice: leaseID[%s]: %w", l.ID, ErrAlreadySent)
	}

	l.RenewalNoticeSent = true
	l.RenewalNoticeSentAt = now
	l.RenewalStatus = renewalstatus.Pending

	return c.save(ctx, tenantID, l)
}

// SendRenewalReminder records the second renewal step. The first notice must
// already have gone out.
func (c *Core) SendRenewalReminder(ctx context.Context, tenantID uuid.UUID, l Lease, now time.Time) (Lease, error) {
	ctx, span := otel.AddSpan(ctx, "business.leasebus.sendrenewalreminder")
	defer span.End()

	switch {
	case !l.RenewalNoticeSent:
		return Lease{}, fmt.Errorf("reminder: leaseID[%s]: %w", l.ID, ErrLadderOrder)
	case l.RenewalReminderSent:
		return Lease{}, fmt.Errorf("reminder: leaseID[%s]: %w", l.ID, ErrAlreadySent)
	}

	l.RenewalReminderSent = true
	l.RenewalReminderSentAt = now

	return c.save(ctx, tenantID, l)
}

// SendFinalReminder records the last renewal step. It requires an open
// renewal.
func (c *Core) SendFinalReminder(ctx context.Context, tenantID uuid.UUID, l Lease, now time.Time) (Lease, error) {
	ctx, span := otel.AddSpan(ctx, "business.leasebus.sendfinalreminder")
	defer span.End()

	switch {
	case !l.RenewalStatus.Equal(renewalstatus.Pending):
		return Lease{}, fmt.Errorf("final: leaseID[%s]: %w", l.ID, ErrLadderOrder)
	case l.FinalReminderSent:
		return Lease{}, fmt.Errorf("final: leaseID[%s]: %w", l.ID, ErrAlreadySent)
	}

	l.FinalReminderSent = true
	l.FinalReminderSentAt = now

	return c.save(ctx, tenantID, l)
}

// Expirable reports whether the lease can still lapse into Expired. A
// pending lease that never started lapses too.
func Expirable(l Lease) bool {
	return l.Status.Equal(leasestatus.Pending) || l.Status.Equal(leasestatus.Active) || l.Status.Equal(leasestatus.NoticeGiven)
}

// Expire moves a lapsed lease to Expired.
func (c *Core) Expire(ctx context.Context, tenantID uuid.UUID, l Lease) (Lease, error) {
	ctx, span := otel.AddSpan(ctx, "business.leasebus.expire")
	defer span.End()

	if !Expirable(l) {
		return Lease{}, fmt.Errorf("expire: leaseID[%s] status[%s]: %w", l.ID, l.Status, ErrTerminal)
	}

	l.Status = leasestatus.Expired

	return c.save(ctx, tenantID, l)
}

// =============================================================================

func (c *Core) save(ctx context.Context, tenantID uuid.UUID, l Lease) (Lease, error) {
	l, err := c.store.Update(ctx, tenantID, l)
	if err != nil {
		return Lease{}, fmt.Errorf("update: %w", err)
	}

	return l, nil
}

// checkOccupancy rejects a lease that would hold a unit another occupying
// lease already holds for an overlapping range.
func (c *Core) checkOccupancy(ctx context.Context, tenantID uuid.UUID, l Lease) error {
	if !l.EndDate.After(l.StartDate) {
		return ErrInvalidDates
	}

	if !l.Occupies() || l.UnitID == uuid.Nil {
		return nil
	}

	clash, err := c.store.Query(ctx, tenantID, func(o Lease) bool {
		return o.ID != l.ID && o.UnitID == l.UnitID && o.Occupies() && o.Overlaps(l)
	})
	if err != nil {
		return fmt.Errorf("occupancy: %w", err)
	}

	if len(clash) > 0 {
		return fmt.Errorf("unitID[%s] leaseID[%s]: %w", l.UnitID, clash[0].ID, ErrOverlap)
	}

	return nil
}
