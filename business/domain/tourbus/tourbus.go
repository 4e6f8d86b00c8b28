// Package tourbus provides business access to tours.
package tourbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/prospectbus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/business/types/tourstatus"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
)

// ErrNotScheduled is returned when a tour that is no longer scheduled is
// moved again.
var ErrNotScheduled = errors.New("tour is not scheduled")

// Core manages the set of APIs for tour access.
type Core struct {
	log         *logger.Logger
	store       *auditstore.Store[Tour]
	prospectBus *prospectbus.Core
}

// NewCore constructs a core for tour api access.
func NewCore(log *logger.Logger, store *auditstore.Store[Tour], prospectBus *prospectbus.Core) *Core {
	return &Core{
		log:         log,
		store:       store,
		prospectBus: prospectBus,
	}
}

// NewWithTx constructs a new Core value with its store and the prospect core
// bound to the transaction.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	store, err := c.store.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	prospectBus, err := c.prospectBus.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	return NewCore(c.log, store, prospectBus), nil
}

// Create schedules a tour and elevates a lead stage prospect to
// TourScheduled.
func (c *Core) Create(ctx context.Context, tenantID uuid.UUID, nt NewTour) (Tour, error) {
	ctx, span := otel.AddSpan(ctx, "business.tourbus.create")
	defer span.End()

	t := Tour{
		UnitID:      nt.UnitID,
		ContactID:   nt.ContactID,
		ScheduledAt: nt.ScheduledAt,
		Status:      tourstatus.Scheduled,
	}
	t.Sample = nt.Sample

	t, err := c.store.Create(ctx, tenantID, t)
	if err != nil {
		return Tour{}, fmt.Errorf("create: %w", err)
	}

	if t.ContactID != uuid.Nil {
		_, err := c.prospectBus.ElevateForTour(ctx, tenantID, t.ContactID)
		switch {
		case errors.Is(err, auditstore.ErrNotFound):
			c.log.Warn(ctx, "tourbus: contact is not a known prospect", "tour_id", t.ID, "contact_id", t.ContactID)
		case err != nil:
			return Tour{}, fmt.Errorf("elevate: %w", err)
		}
	}

	return t, nil
}

// Update modifies a tour.
func (c *Core) Update(ctx context.Context, tenantID uuid.UUID, t Tour, ut UpdateTour) (Tour, error) {
	ctx, span := otel.AddSpan(ctx, "business.tourbus.update")
	defer span.End()

	if ut.ScheduledAt != nil {
		t.ScheduledAt = *ut.ScheduledAt
	}
	if ut.Status != nil {
		t.Status = *ut.Status
	}

	t, err := c.store.Update(ctx, tenantID, t)
	if err != nil {
		return Tour{}, fmt.Errorf("update: %w", err)
	}

	return t, nil
}

// Delete removes the tour.
func (c *Core) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.tourbus.delete")
	defer span.End()

	if err := c.store.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// QueryByID finds the tour by the specified id.
func (c *Core) QueryByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (Tour, error) {
	ctx, span := otel.AddSpan(ctx, "business.tourbus.querybyid")
	defer span.End()

	t, err := c.store.QueryByID(ctx, tenantID, id)
	if err != nil {
		return Tour{}, fmt.Errorf("query: tourID[%s]: %w", id, err)
	}

	return t, nil
}

// QueryScheduledBefore retrieves scheduled tours whose time is before cutoff.
func (c *Core) QueryScheduledBefore(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]Tour, error) {
	ctx, span := otel.AddSpan(ctx, "business.tourbus.queryscheduledbefore")
	defer span.End()

	tours, err := c.store.Query(ctx, tenantID, func(t Tour) bool {
		return t.Status.Equal(tourstatus.Scheduled) && t.ScheduledAt.Before(cutoff)
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return tours, nil
}

// CountScheduledForContact counts the contact's scheduled tours.
func (c *Core) CountScheduledForContact(ctx context.Context, tenantID uuid.UUID, contactID uuid.UUID) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.tourbus.countscheduledforcontact")
	defer span.End()

	tours, err := c.store.Query(ctx, tenantID, func(t Tour) bool {
		return t.ContactID == contactID && t.Status.Equal(tourstatus.Scheduled)
	})
	if err != nil {
		return 0, fmt.Errorf("query: %w", err)
	}

	return len(tours), nil
}

// MarkNoShow moves a scheduled tour to NoShow.
func (c *Core) MarkNoShow(ctx context.Context, tenantID uuid.UUID, t Tour) (Tour, error) {
	ctx, span := otel.AddSpan(ctx, "business.tourbus.marknoshow")
	defer span.End()

	if !t.Status.Equal(tourstatus.Scheduled) {
		return Tour{}, fmt.Errorf("noshow: tourID[%s] status[%s]: %w", t.ID, t.Status, ErrNotScheduled)
	}

	t.Status = tourstatus.NoShow

	t, err := c.store.Update(ctx, tenantID, t)
	if err != nil {
		return Tour{}, fmt.Errorf("update: %w", err)
	}

	return t, nil
}
