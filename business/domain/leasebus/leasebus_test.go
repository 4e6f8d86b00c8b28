package leasebus_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/leasebus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/dbtest"
	"github.com/jcpaschoal/leasekeeper/business/types/leasestatus"
	"github.com/jcpaschoal/leasekeeper/business/types/renewalstatus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan1 = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func Test_Lease_Occupancy(t *testing.T) {
	db := dbtest.New(t, jan1)
	bus := db.BusDomain.Lease
	ctx := auditstore.SystemContext(context.Background())
	tenantID := uuid.New()
	unitID := uuid.New()

	first, err := bus.Create(ctx, tenantID, leasebus.NewLease{
		UnitID:    unitID,
		StartDate: jan1,
		EndDate:   jan1.AddDate(1, 0, -1),
		Status:    leasestatus.Active,
	})
	require.NoError(t, err)
	assert.Equal(t, renewalstatus.None, first.RenewalStatus)

	_, err = bus.Create(ctx, tenantID, leasebus.NewLease{
		UnitID:    unitID,
		StartDate: jan1.AddDate(0, 6, 0),
		EndDate:   jan1.AddDate(1, 6, 0),
	})
	require.ErrorIs(t, err, leasebus.ErrOverlap)

	next, err := bus.Create(ctx, tenantID, leasebus.NewLease{
		UnitID:    unitID,
		StartDate: jan1.AddDate(1, 0, 0),
		EndDate:   jan1.AddDate(2, 0, -1),
	})
	require.NoError(t, err)
	assert.Equal(t, leasestatus.Pending, next.Status)

	_, err = bus.Create(ctx, tenantID, leasebus.NewLease{
		UnitID:    unitID,
		StartDate: jan1.AddDate(0, 3, 0),
		EndDate:   jan1.AddDate(0, 9, 0),
		Status:    leasestatus.Terminated,
	})
	require.NoError(t, err, "a lease that does not occupy the unit never clashes")

	_, err = bus.Create(ctx, tenantID, leasebus.NewLease{
		UnitID:    uuid.New(),
		StartDate: jan1,
		EndDate:   jan1,
	})
	require.ErrorIs(t, err, leasebus.ErrInvalidDates)

	end := jan1.AddDate(1, 2, 0)
	_, err = bus.Update(ctx, tenantID, first, leasebus.UpdateLease{EndDate: &end})
	require.ErrorIs(t, err, leasebus.ErrOverlap)
}

func Test_Lease_LadderGuards(t *testing.T) {
	db := dbtest.New(t, jan1)
	bus := db.BusDomain.Lease
	ctx := auditstore.SystemContext(context.Background())
	tenantID := uuid.New()
	now := db.Clock.Now()

	l, err := bus.Create(ctx, tenantID, leasebus.NewLease{
		UnitID:    uuid.New(),
		StartDate: jan1.AddDate(-1, 0, 0),
		EndDate:   jan1.AddDate(0, 2, 0),
		Status:    leasestatus.Active,
	})
	require.NoError(t, err)

	_, err = bus.SendRenewalReminder(ctx, tenantID, l, now)
	require.ErrorIs(t, err, leasebus.ErrLadderOrder)

	_, err = bus.SendFinalReminder(ctx, tenantID, l, now)
	require.ErrorIs(t, err, leasebus.ErrLadderOrder)

	l, err = bus.SendRenewalNotice(ctx, tenantID, l, now)
	require.NoError(t, err)
	assert.Equal(t, renewalstatus.Pending, l.RenewalStatus)
	assert.Equal(t, now, l.RenewalNoticeSentAt)

	_, err = bus.SendRenewalNotice(ctx, tenantID, l, now)
	require.ErrorIs(t, err, leasebus.ErrAlreadySent)

	l, err = bus.SendRenewalReminder(ctx, tenantID, l, now)
	require.NoError(t, err)

	l, err = bus.SendFinalReminder(ctx, tenantID, l, now)
	require.NoError(t, err)

	_, err = bus.SendFinalReminder(ctx, tenantID, l, now)
	require.ErrorIs(t, err, leasebus.ErrAlreadySent)
}

func Test_Lease_Expire(t *testing.T) {
	db := dbtest.New(t, jan1)
	bus := db.BusDomain.Lease
	ctx := auditstore.SystemContext(context.Background())
	tenantID := uuid.New()

	l, err := bus.Create(ctx, tenantID, leasebus.NewLease{
		UnitID:    uuid.New(),
		StartDate: jan1.AddDate(-1, 0, 0),
		EndDate:   jan1.AddDate(0, 0, -1),
		Status:    leasestatus.Renewed,
	})
	require.NoError(t, err)
	assert.False(t, leasebus.Expirable(l))

	_, err = bus.Expire(ctx, tenantID, l)
	require.ErrorIs(t, err, leasebus.ErrTerminal)

	status := leasestatus.NoticeGiven
	l, err = bus.Update(ctx, tenantID, l, leasebus.UpdateLease{Status: &status})
	require.NoError(t, err)

	l, err = bus.Expire(ctx, tenantID, l)
	require.NoError(t, err)
	assert.Equal(t, leasestatus.Expired, l.Status)
}

func Test_Lease_DatesAreCalendarDates(t *testing.T) {
	db := dbtest.New(t, jan1)
	bus := db.BusDomain.Lease
	ctx := auditstore.SystemContext(context.Background())
	tenantID := uuid.New()

	l, err := bus.Create(ctx, tenantID, leasebus.NewLease{
		UnitID:    uuid.New(),
		StartDate: jan1.Add(15 * time.Hour),
		EndDate:   jan1.AddDate(1, 0, -1).Add(23 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, jan1, l.StartDate)
	assert.Equal(t, time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC), l.EndDate)

	end := time.Date(2027, time.March, 31, 18, 0, 0, 0, time.UTC)
	l, err = bus.Update(ctx, tenantID, l, leasebus.UpdateLease{EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2027, time.March, 31, 0, 0, 0, 0, time.UTC), l.EndDate)
}

func Test_Lease_ExpiredPendingFreesUnit(t *testing.T) {
	db := dbtest.New(t, jan1)
	bus := db.BusDomain.Lease
	ctx := auditstore.SystemContext(context.Background())
	tenantID := uuid.New()
	unitID := uuid.New()

	stale, err := bus.Create(ctx, tenantID, leasebus.NewLease{
		UnitID:    unitID,
		StartDate: jan1.AddDate(0, -6, 0),
		EndDate:   jan1.AddDate(0, 0, 10),
	})
	require.NoError(t, err)
	assert.True(t, leasebus.Expirable(stale))

	next := leasebus.NewLease{
		UnitID:    unitID,
		StartDate: jan1,
		EndDate:   jan1.AddDate(1, 0, 0),
	}

	_, err = bus.Create(ctx, tenantID, next)
	require.ErrorIs(t, err, leasebus.ErrOverlap)

	_, err = bus.Expire(ctx, tenantID, stale)
	require.NoError(t, err)

	_, err = bus.Create(ctx, tenantID, next)
	require.NoError(t, err)
}
