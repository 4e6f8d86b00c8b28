// Package offerbus provides business access to lease offers.
package offerbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/business/types/offerstatus"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
)

// ErrTerminal is returned when an answered offer is changed.
var ErrTerminal = errors.New("offer is in a terminal status")

// Core manages the set of APIs for offer access.
type Core struct {
	log   *logger.Logger
	store *auditstore.Store[Offer]
}

// NewCore constructs a core for offer api access.
func NewCore(log *logger.Logger, store *auditstore.Store[Offer]) *Core {
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

// Create adds a new pending offer.
func (c *Core) Create(ctx context.Context, tenantID uuid.UUID, no NewOffer) (Offer, error) {
	ctx, span := otel.AddSpan(ctx, "business.offerbus.create")
	defer span.End()

	o := Offer{
		ApplicationID: no.ApplicationID,
		UnitID:        no.UnitID,
		ContactID:     no.ContactID,
		Rent:          no.Rent,
		Status:        offerstatus.Pending,
		ExpiresAt:     no.ExpiresAt,
	}
	o.Sample = no.Sample

	o, err := c.store.Create(ctx, tenantID, o)
	if err != nil {
		return Offer{}, fmt.Errorf("create: %w", err)
	}

	return o, nil
}

// Update modifies an open offer.
func (c *Core) Update(ctx context.Context, tenantID uuid.UUID, o Offer, uo UpdateOffer) (Offer, error) {
	ctx, span := otel.AddSpan(ctx, "business.offerbus.update")
	defer span.End()

	if !o.Open() {
		return Offer{}, fmt.Errorf("update: offerID[%s] status[%s]: %w", o.ID, o.Status, ErrTerminal)
	}

	if uo.Rent != nil {
		o.Rent = *uo.Rent
	}
	if uo.Status != nil {
		o.Status = *uo.Status
	}
	if uo.ExpiresAt != nil {
		o.ExpiresAt = *uo.ExpiresAt
	}

	o, err := c.store.Update(ctx, tenantID, o)
	if err != nil {
		return Offer{}, fmt.Errorf("update: %w", err)
	}

	return o, nil
}

// Delete removes the offer.
func (c *Core) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.offerbus.delete")
	defer span.End()

	if err := c.store.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// QueryByID finds the offer by the specified id.
func (c *Core) QueryByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (Offer, error) {
	ctx, span := otel.AddSpan(ctx, "business.offerbus.querybyid")
	defer span.End()

	o, err := c.store.QueryByID(ctx, tenantID, id)
	if err != nil {
		return Offer{}, fmt.Errorf("query: offerID[%s]: %w", id, err)
	}

	return o, nil
}

// QueryLapsed retrieves the open offers whose expiry is before now.
func (c *Core) QueryLapsed(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]Offer, error) {
	ctx, span := otel.AddSpan(ctx, "business.offerbus.querylapsed")
	defer span.End()

	offers, err := c.store.Query(ctx, tenantID, func(o Offer) bool {
		return o.Open() && o.ExpiresAt.Before(now)
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return offers, nil
}

// Expire closes an open offer as Expired.
func (c *Core) Expire(ctx context.Context, tenantID uuid.UUID, o Offer) (Offer, error) {
	ctx, span := otel.AddSpan(ctx, "business.offerbus.expire")
	defer span.End()

	if !o.Open() {
		return Offer{}, fmt.Errorf("expire: offerID[%s] status[%s]: %w", o.ID, o.Status, ErrTerminal)
	}

	o.Status = offerstatus.Expired

	o, err := c.store.Update(ctx, tenantID, o)
	if err != nil {
		return Offer{}, fmt.Errorf("update: %w", err)
	}

	return o, nil
}
