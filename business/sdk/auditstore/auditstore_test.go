package auditstore_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/memstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/taint"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unit struct {
	auditstore.Meta
	Name string
}

func (u unit) RecordMeta() auditstore.Meta { return u.Meta }

func (u unit) WithRecordMeta(m auditstore.Meta) unit {
	u.Meta = m
	return u
}

type tour struct {
	auditstore.Meta
	UnitID uuid.UUID
	Status string
}

func (t tour) RecordMeta() auditstore.Meta { return t.Meta }

func (t tour) WithRecordMeta(m auditstore.Meta) tour {
	t.Meta = m
	return t
}

type fixture struct {
	db    *memstore.DB
	units *auditstore.Store[unit]
	tours *auditstore.Store[tour]
	now   time.Time
}

func newFixture(t *testing.T, opts ...auditstore.Option) fixture {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", func(context.Context) string { return "" })

	db, err := memstore.NewDB("unit", "tour")
	require.NoError(t, err)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	opts = append(opts, auditstore.WithClock(func() time.Time { return now }))

	units := auditstore.New(log, "unit", memstore.NewStore[unit](db, "unit"), opts...)
	tours := auditstore.New(log, "tour", memstore.NewStore[tour](db, "tour"), opts...)

	err = tours.TaintFrom(taint.Link[tour]{
		Field:  taint.FieldUnit,
		Ref:    func(t tour) uuid.UUID { return t.UnitID },
		Parent: units,
	})
	require.NoError(t, err)

	return fixture{db: db, units: units, tours: tours, now: now}
}

func Test_Store_MissingIdentityIsUnauthenticated(t *testing.T) {
	f := newFixture(t)
	tenant := uuid.New()

	_, err := f.units.Create(context.Background(), tenant, unit{Name: "A"})
	assert.ErrorIs(t, err, auditstore.ErrUnauthenticated)

	ctx := auditstore.WithActor(context.Background(), uuid.New())
	_, err = f.units.Create(ctx, uuid.Nil, unit{Name: "A"})
	assert.ErrorIs(t, err, auditstore.ErrUnauthenticated)

	_, err = f.units.Query(ctx, uuid.Nil, nil)
	assert.ErrorIs(t, err, auditstore.ErrUnauthenticated)
}

func Test_Store_CreateStampsAudit(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()
	ctx := auditstore.WithActor(context.Background(), actor)
	tenant := uuid.New()

	in := unit{Name: "A"}
	in.TenantID = uuid.New()
	in.CreatedBy = uuid.New()

	got, err := f.units.Create(ctx, tenant, in)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, tenant, got.TenantID)
	assert.Equal(t, actor, got.CreatedBy)
	assert.Equal(t, actor, got.UpdatedBy)
	assert.Equal(t, f.now, got.CreatedAt)
	assert.False(t, got.Deleted)

	read, err := f.units.QueryByID(ctx, tenant, got.ID)
	require.NoError(t, err)
	assert.Equal(t, got, read)
}

func Test_Store_TenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := auditstore.SystemContext(context.Background())
	t1, t2 := uuid.New(), uuid.New()

	a, err := f.units.Create(ctx, t1, unit{Name: "A"})
	require.NoError(t, err)

	_, err = f.units.QueryByID(ctx, t2, a.ID)
	assert.ErrorIs(t, err, auditstore.ErrNotFound)

	list, err := f.units.Query(ctx, t2, nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	hijack := a
	hijack.Name = "B"
	_, err = f.units.Update(ctx, t2, hijack)
	assert.ErrorIs(t, err, auditstore.ErrForbidden)

	err = f.units.Delete(ctx, t2, a.ID)
	assert.ErrorIs(t, err, auditstore.ErrForbidden)

	stored, err := f.units.QueryByID(ctx, t1, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", stored.Name)
	assert.False(t, stored.Deleted)
}

func Test_Store_UpdateKeepsCreationStamp(t *testing.T) {
	f := newFixture(t)
	creator := uuid.New()
	tenant := uuid.New()

	a, err := f.units.Create(auditstore.WithActor(context.Background(), creator), tenant, unit{Name: "A"})
	require.NoError(t, err)

	changed := a
	changed.Name = "B"
	changed.CreatedBy = uuid.New()
	changed.Sample = true

	got, err := f.units.Update(auditstore.SystemContext(context.Background()), tenant, changed)
	require.NoError(t, err)

	assert.Equal(t, "B", got.Name)
	assert.Equal(t, creator, got.CreatedBy)
	assert.Equal(t, auditstore.SystemActor, got.UpdatedBy)
	assert.False(t, got.Sample)
}

func Test_Store_UpdateMissingIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := auditstore.SystemContext(context.Background())

	u := unit{Name: "ghost"}
	u.ID = uuid.New()

	_, err := f.units.Update(ctx, uuid.New(), u)
	assert.ErrorIs(t, err, auditstore.ErrNotFound)
}

func Test_Store_SoftDelete(t *testing.T) {
	f := newFixture(t)
	ctx := auditstore.SystemContext(context.Background())
	tenant := uuid.New()

	a, err := f.units.Create(ctx, tenant, unit{Name: "A"})
	require.NoError(t, err)

	require.NoError(t, f.units.Delete(ctx, tenant, a.ID))

	_, err = f.units.QueryByID(ctx, tenant, a.ID)
	assert.ErrorIs(t, err, auditstore.ErrNotFound)

	_, err = f.units.Update(ctx, tenant, a)
	assert.ErrorIs(t, err, auditstore.ErrNotFound)

	err = f.units.Delete(ctx, tenant, a.ID)
	assert.ErrorIs(t, err, auditstore.ErrNotFound)

	raw, err := memstore.NewStore[unit](f.db, "unit").QueryByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, raw.Deleted)
}

func Test_Store_HardDelete(t *testing.T) {
	f := newFixture(t, auditstore.WithHardDelete())
	ctx := auditstore.SystemContext(context.Background())
	tenant := uuid.New()

	a, err := f.units.Create(ctx, tenant, unit{Name: "A"})
	require.NoError(t, err)

	require.NoError(t, f.units.Delete(ctx, tenant, a.ID))

	_, err = memstore.NewStore[unit](f.db, "unit").QueryByID(ctx, a.ID)
	assert.True(t, errors.Is(err, auditstore.ErrNotFound))
}

func Test_Store_QueryPredicateAndTenants(t *testing.T) {
	f := newFixture(t)
	ctx := auditstore.SystemContext(context.Background())
	t1, t2 := uuid.New(), uuid.New()

	for _, name := range []string{"A", "B", "C"} {
		_, err := f.units.Create(ctx, t1, unit{Name: name})
		require.NoError(t, err)
	}
	_, err := f.units.Create(ctx, t2, unit{Name: "Z"})
	require.NoError(t, err)

	list, err := f.units.Query(ctx, t1, func(u unit) bool { return u.Name != "B" })
	require.NoError(t, err)
	assert.Len(t, list, 2)

	ids, err := f.units.QueryTenantIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{t1, t2}, ids)
}

func Test_Taint_Propagation(t *testing.T) {
	f := newFixture(t)
	ctx := auditstore.SystemContext(context.Background())
	tenant := uuid.New()

	sampleUnit := unit{Name: "demo"}
	sampleUnit.Sample = true
	sampleUnit, err := f.units.Create(ctx, tenant, sampleUnit)
	require.NoError(t, err)

	realUnit, err := f.units.Create(ctx, tenant, unit{Name: "real"})
	require.NoError(t, err)

	child, err := f.tours.Create(ctx, tenant, tour{UnitID: sampleUnit.ID})
	require.NoError(t, err)
	assert.True(t, child.Sample)

	clean, err := f.tours.Create(ctx, tenant, tour{UnitID: realUnit.ID})
	require.NoError(t, err)
	assert.False(t, clean.Sample)
}

func Test_Taint_IgnoresOtherTenantsRecords(t *testing.T) {
	f := newFixture(t)
	ctx := auditstore.SystemContext(context.Background())
	t1, t2 := uuid.New(), uuid.New()

	foreign := unit{Name: "demo"}
	foreign.Sample = true
	foreign, err := f.units.Create(ctx, t2, foreign)
	require.NoError(t, err)

	child, err := f.tours.Create(ctx, t1, tour{UnitID: foreign.ID})
	require.NoError(t, err)
	assert.False(t, child.Sample)
}

func Test_Store_TransactionRollback(t *testing.T) {
	f := newFixture(t)
	ctx := auditstore.SystemContext(context.Background())
	tenant := uuid.New()

	tx, err := f.db.Begin()
	require.NoError(t, err)

	txUnits, err := f.units.NewWithTx(tx)
	require.NoError(t, err)

	_, err = txUnits.Create(ctx, tenant, unit{Name: "A"})
	require.NoError(t, err)

	inTx, err := txUnits.Query(ctx, tenant, nil)
	require.NoError(t, err)
	assert.Len(t, inTx, 1)

	require.NoError(t, tx.Rollback())

	after, err := f.units.Query(ctx, tenant, nil)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func Test_Taint_ParentInSameTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := auditstore.SystemContext(context.Background())
	tenant := uuid.New()

	tx, err := f.db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	txUnits, err := f.units.NewWithTx(tx)
	require.NoError(t, err)

	txTours, err := f.tours.NewWithTx(tx)
	require.NoError(t, err)

	demo := unit{Name: "demo"}
	demo.Sample = true
	demo, err = txUnits.Create(ctx, tenant, demo)
	require.NoError(t, err)

	child, err := txTours.Create(ctx, tenant, tour{UnitID: demo.ID})
	require.NoError(t, err)
	assert.True(t, child.Sample)

	require.NoError(t, tx.Commit())

	got, err := f.tours.QueryByID(ctx, tenant, child.ID)
	require.NoError(t, err)
	assert.True(t, got.Sample)
}
