// Package prospectbus provides business access to prospects.
package prospectbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/business/types/prospectstatus"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
)

// ErrMissingName is returned when a prospect is created without a name.
var ErrMissingName = errors.New("prospect name is required")

// Core manages the set of APIs for prospect access.
type Core struct {
	log   *logger.Logger
	store *auditstore.Store[Prospect]
}

// NewCore constructs a core for prospect api access.
func NewCore(log *logger.Logger, store *auditstore.Store[Prospect]) *Core {
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

// Create adds a new prospect. A prospect with no status starts as a lead.
func (c *Core) Create(ctx context.Context, tenantID uuid.UUID, np NewProspect) (Prospect, error) {
	ctx, span := otel.AddSpan(ctx, "business.prospectbus.create")
	defer span.End()

	if np.Name == "" {
		return Prospect{}, ErrMissingName
	}

	status := np.Status
	if status.String() == "" {
		status = prospectstatus.Lead
	}

	p := Prospect{
		Name:   np.Name,
		Email:  np.Email,
		Phone:  np.Phone,
		Status: status,
	}
	p.Sample = np.Sample

	p, err := c.store.Create(ctx, tenantID, p)
	if err != nil {
		return Prospect{}, fmt.Errorf("create: %w", err)
	}

	return p, nil
}

// Update modifies information about a prospect. Setting the status by hand
// clears any tour elevation.
func (c *Core) Update(ctx context.Context, tenantID uuid.UUID, p Prospect, up UpdateProspect) (Prospect, error) {
	ctx, span := otel.AddSpan(ctx, "business.prospectbus.update")
	defer span.End()

	if up.Name != nil {
		p.Name = *up.Name
	}
	if up.Email != nil {
		p.Email = *up.Email
	}
	if up.Phone != nil {
		p.Phone = *up.Phone
	}
	if up.Status != nil {
		p.Status = *up.Status
		p.PriorStatus = prospectstatus.Prospect{}
	}

	p, err := c.store.Update(ctx, tenantID, p)
	if err != nil {
		return Prospect{}, fmt.Errorf("update: %w", err)
	}

	return p, nil
}

// Delete removes the prospect.
func (c *Core) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.prospectbus.delete")
	defer span.End()

	if err := c.store.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// QueryByID finds the prospect by the specified id.
func (c *Core) QueryByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (Prospect, error) {
	ctx, span := otel.AddSpan(ctx, "business.prospectbus.querybyid")
	defer span.End()

	p, err := c.store.QueryByID(ctx, tenantID, id)
	if err != nil {
		return Prospect{}, fmt.Errorf("query: prospectID[%s]: %w", id, err)
	}

	return p, nil
}

// Query retrieves the tenant's prospects matching the filter.
func (c *Core) Query(ctx context.Context, tenantID uuid.UUID, filter QueryFilter) ([]Prospect, error) {
	ctx, span := otel.AddSpan(ctx, "business.prospectbus.query")
	defer span.End()

	ps, err := c.store.Query(ctx, tenantID, filter.match)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return ps, nil
}

// ElevateForTour moves a lead stage prospect to TourScheduled and remembers
// the stage it came from. Prospects past the lead stages are left alone.
func (c *Core) ElevateForTour(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (Prospect, error) {
	ctx, span := otel.AddSpan(ctx, "business.prospectbus.elevatefortour")
	defer span.End()

	p, err := c.store.QueryByID(ctx, tenantID, id)
	if err != nil {
		return Prospect{}, fmt.Errorf("query: prospectID[%s]: %w", id, err)
	}

	if !isLeadStage(p.Status) {
		return p, nil
	}

	p.PriorStatus = p.Status
	p.Status = prospectstatus.TourScheduled

	p, err = c.store.Update(ctx, tenantID, p)
	if err != nil {
		return Prospect{}, fmt.Errorf("update: %w", err)
	}

	return p, nil
}

// RevertTourElevation returns a prospect that a tour elevated to its prior
// stage. It reports whether anything changed.
func (c *Core) RevertTourElevation(ctx context.Context, tenantID uuid.UUID, p Prospect) (Prospect, bool, error) {
	ctx, span := otel.AddSpan(ctx, "business.prospectbus.reverttourelevation")
	defer span.End()

	if !p.Status.Equal(prospectstatus.TourScheduled) || !isLeadStage(p.PriorStatus) {
		return p, false, nil
	}

	p.Status = p.PriorStatus
	p.PriorStatus = prospectstatus.Prospect{}

	p, err := c.store.Update(ctx, tenantID, p)
	if err != nil {
		return Prospect{}, false, fmt.Errorf("update: %w", err)
	}

	return p, true, nil
}

func isLeadStage(s prospectstatus.Prospect) bool {
	return s.Equal(prospectstatus.Lead) || s.Equal(prospectstatus.Contacted)
}
