// Package applicationbus provides business access to rental applications.
package applicationbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/business/types/applicationstatus"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
)

// ErrTerminal is returned when a closed application is changed.
var ErrTerminal = errors.New("application is in a terminal status")

// Core manages the set of APIs for application access.
type Core struct {
	log   *logger.Logger
	store *auditstore.Store[Application]
}

// NewCore constructs a core for application api access.
func NewCore(log *logger.Logger, store *auditstore.Store[Application]) *Core {
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

// Create adds a new application. An application with no status starts as a
// draft.
func (c *Core) Create(ctx context.Context, tenantID uuid.UUID, na NewApplication) (Application, error) {
	ctx, span := otel.AddSpan(ctx, "business.applicationbus.create")
	defer span.End()

	status := na.Status
	if status.String() == "" {
		status = applicationstatus.Draft
	}

	app := Application{
		UnitID:    na.UnitID,
		ContactID: na.ContactID,
		Status:    status,
		ExpiresAt: na.ExpiresAt,
	}
	app.Sample = na.Sample

	app, err := c.store.Create(ctx, tenantID, app)
	if err != nil {
		return Application{}, fmt.Errorf("create: %w", err)
	}

	return app, nil
}

// Update modifies an open application.
func (c *Core) Update(ctx context.Context, tenantID uuid.UUID, app Application, ua UpdateApplication) (Application, error) {
	ctx, span := otel.AddSpan(ctx, "business.applicationbus.update")
	defer span.End()

	if !app.Open() {
		return Application{}, fmt.Errorf("update: applicationID[%s] status[%s]: %w", app.ID, app.Status, ErrTerminal)
	}

	if ua.Status != nil {
		app.Status = *ua.Status
	}
	if ua.ExpiresAt != nil {
		app.ExpiresAt = *ua.ExpiresAt
	}

	app, err := c.store.Update(ctx, tenantID, app)
	if err != nil {
		return Application{}, fmt.Errorf("update: %w", err)
	}

	return app, nil
}

// Delete removes the application.
func (c *Core) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.applicationbus.delete")
	defer span.End()

	if err := c.store.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// QueryByID finds the application by the specified id.
func (c *Core) QueryByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (Application, error) {
	ctx, span := otel.AddSpan(ctx, "business.applicationbus.querybyid")
	defer span.End()

	app, err := c.store.QueryByID(ctx, tenantID, id)
	if err != nil {
		return Application{}, fmt.Errorf("query: applicationID[%s]: %w", id, err)
	}

	return app, nil
}

// QueryOpen retrieves the tenant's open applications.
func (c *Core) QueryOpen(ctx context.Context, tenantID uuid.UUID) ([]Application, error) {
	ctx, span := otel.AddSpan(ctx, "business.applicationbus.queryopen")
	defer span.End()

	apps, err := c.store.Query(ctx, tenantID, Application.Open)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return apps, nil
}

// QueryLapsed retrieves the open applications whose expiry is before now.
func (c *Core) QueryLapsed(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]Application, error) {
	ctx, span := otel.AddSpan(ctx, "business.applicationbus.querylapsed")
	defer span.End()

	apps, err := c.store.Query(ctx, tenantID, func(a Application) bool {
		return a.Open() && a.ExpiresAt.Before(now)
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return apps, nil
}

// Expire closes an open application as Expired.
func (c *Core) Expire(ctx context.Context, tenantID uuid.UUID, app Application) (Application, error) {
	ctx, span := otel.AddSpan(ctx, "business.applicationbus.expire")
	defer span.End()

	if !app.Open() {
		return Application{}, fmt.Errorf("expire: applicationID[%s] status[%s]: %w", app.ID, app.Status, ErrTerminal)
	}

	app.Status = applicationstatus.Expired

	app, err := c.store.Update(ctx, tenantID, app)
	if err != nil {
		return Application{}, fmt.Errorf("update: %w", err)
	}

	return app, nil
}
