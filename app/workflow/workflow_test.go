package workflow_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/app/workflow"
	"github.com/jcpaschoal/leasekeeper/business/rules"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type call struct {
	module   string
	tenantID uuid.UUID
}

type journal struct {
	mu    sync.Mutex
	calls []call
}

func (j *journal) add(module string, tenantID uuid.UUID) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, call{module: module, tenantID: tenantID})
}

func (j *journal) list() []call {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]call(nil), j.calls...)
}

type fakeModule struct {
	name string
	j    *journal
	run  func(ctx context.Context, tenantID uuid.UUID) error
}

func (m fakeModule) Name() string { return m.name }

func (m fakeModule) Run(ctx context.Context, tenantID uuid.UUID) error {
	m.j.add(m.name, tenantID)
	if m.run == nil {
		return nil
	}
	return m.run(ctx, tenantID)
}

func setup(t *testing.T, tenants int) (*dbtest.Database, []uuid.UUID) {
	t.Helper()

	db := dbtest.New(t, time.Date(2026, time.July, 1, 2, 0, 0, 0, time.UTC))
	ctx := auditstore.SystemContext(context.Background())

	var ids []uuid.UUID
	for range tenants {
		id := uuid.New()
		_, err := db.BusDomain.Policy.Provision(ctx, id)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})

	return db, ids
}

func newScheduler(t *testing.T, db *dbtest.Database, daily []rules.Module, hourly []rules.Module) *workflow.Scheduler {
	t.Helper()

	s, err := workflow.New(workflow.Config{
		Log: db.Log,
		Rules: rules.Config{
			Log:      db.Log,
			Bus:      db.BusDomain,
			Beginner: db.DB,
			Now:      db.Clock.Now,
		},
		Daily:   daily,
		Nightly: []rules.Module{},
		Hourly:  hourly,
	})
	require.NoError(t, err)

	return s
}

func Test_Trigger_FailureIsolation(t *testing.T) {
	db, tenants := setup(t, 2)
	j := &journal{}

	daily := []rules.Module{
		fakeModule{name: "first", j: j, run: func(ctx context.Context, tenantID uuid.UUID) error {
			if tenantID == tenants[0] {
				panic("boom")
			}
			return nil
		}},
		fakeModule{name: "second", j: j, run: func(ctx context.Context, tenantID uuid.UUID) error {
			return errors.New("store unavailable")
		}},
		fakeModule{name: "third", j: j},
	}

	s := newScheduler(t, db, daily, []rules.Module{})

	require.NoError(t, s.Trigger(workflow.TriggerDaily))

	calls := j.list()
	require.Len(t, calls, 6)
	for i, tenantID := range tenants {
		assert.Equal(t, []call{{"first", tenantID}, {"second", tenantID}, {"third", tenantID}}, calls[i*3:i*3+3])
	}

	rpt, ok := s.LastReport(workflow.TriggerDaily)
	require.True(t, ok)
	assert.Equal(t, 2, rpt.Tenants)
	assert.Equal(t, 6, rpt.Runs)
	require.Len(t, rpt.Failures, 3)
	assert.Equal(t, "first", rpt.Failures[0].Module)
	assert.Contains(t, rpt.Failures[0].Err, "boom")
}

func Test_Trigger_SkipIfStillRunning(t *testing.T) {
	db, _ := setup(t, 1)
	j := &journal{}

	started := make(chan struct{})
	release := make(chan struct{})

	var once sync.Once
	daily := []rules.Module{
		fakeModule{name: "slow", j: j, run: func(ctx context.Context, tenantID uuid.UUID) error {
			once.Do(func() { close(started) })
			<-release
			return nil
		}},
	}
	hourly := []rules.Module{fakeModule{name: "quick", j: j}}

	s := newScheduler(t, db, daily, hourly)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Trigger(workflow.TriggerDaily)
	}()

	<-started

	require.NoError(t, s.Trigger(workflow.TriggerDaily))
	require.NoError(t, s.Trigger(workflow.TriggerStartup))
	require.NoError(t, s.Trigger(workflow.TriggerHourly))

	close(release)
	<-done

	var slow, quick int
	for _, c := range j.list() {
		switch c.module {
		case "slow":
			slow++
		case "quick":
			quick++
		}
	}

	assert.Equal(t, 1, slow, "overlapping daily and startup passes are skipped")
	assert.Equal(t, 1, quick, "other triggers keep running")

	require.NoError(t, s.Trigger(workflow.TriggerDaily))
	assert.Len(t, j.list(), 3)
}

func Test_Trigger_Unknown(t *testing.T) {
	db, _ := setup(t, 0)
	s := newScheduler(t, db, []rules.Module{}, []rules.Module{})

	err := s.Trigger("weekly")
	require.ErrorIs(t, err, workflow.ErrUnknownTrigger)

	_, err = s.RunTenant(context.Background(), "weekly", uuid.New())
	require.ErrorIs(t, err, workflow.ErrUnknownTrigger)
}

func Test_RunTenant(t *testing.T) {
	db, tenants := setup(t, 2)
	j := &journal{}

	s := newScheduler(t, db, []rules.Module{fakeModule{name: "only", j: j}}, []rules.Module{})

	rpt, err := s.RunTenant(context.Background(), workflow.TriggerStartup, tenants[1])
	require.NoError(t, err)
	assert.Equal(t, 1, rpt.Runs)
	assert.Empty(t, rpt.Failures)
	assert.Equal(t, []call{{"only", tenants[1]}}, j.list())
}

func Test_StartStop(t *testing.T) {
	db, _ := setup(t, 1)
	j := &journal{}

	s, err := workflow.New(workflow.Config{
		Log: db.Log,
		Rules: rules.Config{
			Log:      db.Log,
			Bus:      db.BusDomain,
			Beginner: db.DB,
			Now:      db.Clock.Now,
		},
		RunOnStartup: true,
		Daily:        []rules.Module{fakeModule{name: "daily", j: j}},
		Nightly:      []rules.Module{},
		Hourly:       []rules.Module{fakeModule{name: "hourly", j: j}},
	})
	require.NoError(t, err)

	s.Start()
	assert.Len(t, s.Entries(), 3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Stop(ctx))

	var names []string
	for _, c := range j.list() {
		names = append(names, c.module)
	}
	assert.Equal(t, []string{"daily", "hourly"}, names)
}

func Test_Trigger_AfterStop(t *testing.T) {
	db, _ := setup(t, 1)
	j := &journal{}

	s := newScheduler(t, db, []rules.Module{fakeModule{name: "daily", j: j}}, []rules.Module{})
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Stop(ctx))

	err := s.Trigger(workflow.TriggerDaily)
	require.ErrorIs(t, err, workflow.ErrStopped)
	assert.Empty(t, j.list())
}

func Test_New_BadSpec(t *testing.T) {
	db, _ := setup(t, 0)

	_, err := workflow.New(workflow.Config{
		Log:       db.Log,
		Rules:     rules.Config{Log: db.Log, Bus: db.BusDomain, Beginner: db.DB},
		DailySpec: "every day at two",
	})
	require.Error(t, err)
}

func Test_DefaultPipelines(t *testing.T) {
	db, tenants := setup(t, 1)

	s, err := workflow.New(workflow.Config{
		Log: db.Log,
		Rules: rules.Config{
			Log:      db.Log,
			Bus:      db.BusDomain,
			Beginner: db.DB,
			Now:      db.Clock.Now,
		},
	})
	require.NoError(t, err)

	for _, trigger := range []string{workflow.TriggerStartup, workflow.TriggerNightly, workflow.TriggerHourly} {
		require.NoError(t, s.Trigger(trigger))
	}

	rpt, ok := s.LastReport(workflow.TriggerNightly)
	require.True(t, ok)
	assert.Equal(t, 1, rpt.Tenants)
	assert.Equal(t, 4, rpt.Runs)
	assert.Empty(t, rpt.Failures)

	rpt, err = s.RunTenant(context.Background(), workflow.TriggerDaily, tenants[0])
	require.NoError(t, err)
	assert.Equal(t, 4, rpt.Runs)
	assert.Empty(t, rpt.Failures)
}

func Test_Trigger_Span(t *testing.T) {
	db, _ := setup(t, 1)

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	s, err := workflow.New(workflow.Config{
		Log:    db.Log,
		Tracer: tp.Tracer("workflow_test"),
		Rules: rules.Config{
			Log:      db.Log,
			Bus:      db.BusDomain,
			Beginner: db.DB,
			Now:      db.Clock.Now,
		},
		Daily:   []rules.Module{},
		Nightly: []rules.Module{},
		Hourly:  []rules.Module{},
	})
	require.NoError(t, err)

	require.NoError(t, s.Trigger(workflow.TriggerNightly))

	var names []string
	for _, span := range sr.Ended() {
		names = append(names, span.Name())
	}
	assert.Contains(t, names, "app.workflow.nightly")
}
