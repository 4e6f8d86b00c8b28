// Package workflow runs the rule pipelines on their wall clock schedules.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/rules"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/trace"
)

// Trigger names.
const (
	TriggerStartup = "startup"
	TriggerDaily   = "daily"
	TriggerNightly = "nightly"
	TriggerHourly  = "hourly"
)

// Default schedules, read in the scheduler's location.
const (
	DefaultDailySpec   = "0 2 * * *"
	DefaultNightlySpec = "0 0 * * *"
	DefaultHourlySpec  = "@hourly"
)

// Set of error variables for the scheduler.
var (
	ErrUnknownTrigger = errors.New("unknown trigger")
	ErrStopped        = errors.New("scheduler stopped")
)

// Config holds what the scheduler needs. Empty specs take the defaults and
// nil pipelines are built from Rules.
type Config struct {
	Log          *logger.Logger
	Tracer       trace.Tracer
	Rules        rules.Config
	Location     *time.Location
	DailySpec    string
	NightlySpec  string
	HourlySpec   string
	RunOnStartup bool
	Daily        []rules.Module
	Nightly      []rules.Module
	Hourly       []rules.Module
}

// Failure is one tenant and module pair that did not complete.
type Failure struct {
	TenantID uuid.UUID `json:"tenantID"`
	Module   string    `json:"module"`
	Err      string    `json:"error"`
}

// Report describes the last completed pass of a trigger.
type Report struct {
	Trigger  string    `json:"trigger"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Tenants  int       `json:"tenants"`
	Runs     int       `json:"runs"`
	Failures []Failure `json:"failures"`
}

// Scheduler owns the cron timers and the per trigger run gates.
type Scheduler struct {
	log      *logger.Logger
	cfg      Config
	cron     *cron.Cron
	jobs     map[string]cron.Job
	pipeline map[string][]rules.Module
	wg       sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	reports map[string]Report
}

// New constructs a scheduler and registers its triggers. Nothing runs until
// Start is called.
func New(cfg Config) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	if cfg.Rules.Location == nil {
		cfg.Rules.Location = loc
	}
	if cfg.Rules.Log == nil {
		cfg.Rules.Log = cfg.Log
	}

	if cfg.Daily == nil {
		cfg.Daily = rules.DailyModules(cfg.Rules)
	}
	if cfg.Nightly == nil {
		cfg.Nightly = rules.NightlyModules(cfg.Rules)
	}
	if cfg.Hourly == nil {
		cfg.Hourly = rules.HourlyModules(cfg.Rules)
	}

	cl := cronLogger{log: cfg.Log}

	s := Scheduler{
		log:  cfg.Log,
		cfg:  cfg,
		cron: cron.New(cron.WithLocation(loc), cron.WithLogger(cl)),
		jobs: make(map[string]cron.Job),
		pipeline: map[string][]rules.Module{
			TriggerDaily:   cfg.Daily,
			TriggerNightly: cfg.Nightly,
			TriggerHourly:  cfg.Hourly,
		},
		reports: make(map[string]Report),
	}

	specs := map[string]string{
		TriggerDaily:   withDefault(cfg.DailySpec, DefaultDailySpec),
		TriggerNightly: withDefault(cfg.NightlySpec, DefaultNightlySpec),
		TriggerHourly:  withDefault(cfg.HourlySpec, DefaultHourlySpec),
	}

	for _, trigger := range []string{TriggerDaily, TriggerNightly, TriggerHourly} {
		job := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(s.passJob(trigger))
		s.jobs[trigger] = job

		if _, err := s.cron.AddJob(specs[trigger], job); err != nil {
			return nil, fmt.Errorf("schedule: trigger[%s] spec[%s]: %w", trigger, specs[trigger], err)
		}
	}

	// The startup run goes through the daily gate.
	s.jobs[TriggerStartup] = s.jobs[TriggerDaily]

	return &s, nil
}

// Start starts the timers. With RunOnStartup set, the daily and hourly
// pipelines also run once right away.
func (s *Scheduler) Start() {
	s.cron.Start()

	s.log.Info(context.Background(), "workflow: scheduler started", "run_on_startup", s.cfg.RunOnStartup)

	if !s.cfg.RunOnStartup {
		return
	}

	if !s.enter() {
		return
	}

	go func() {
		defer s.wg.Done()
		s.jobs[TriggerStartup].Run()
		s.jobs[TriggerHourly].Run()
	}()
}

// Stop stops the timers and waits for running passes to finish or for ctx
// to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info(ctx, "workflow: scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop: %w", ctx.Err())
	}
}

// Trigger runs one pass of the named trigger in the caller's goroutine. A
// pass still running for the same trigger makes this call a no-op. Once Stop
// was called it returns ErrStopped.
func (s *Scheduler) Trigger(name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("trigger[%s]: %w", name, ErrUnknownTrigger)
	}

	if !s.enter() {
		return fmt.Errorf("trigger[%s]: %w", name, ErrStopped)
	}
	defer s.wg.Done()

	job.Run()

	return nil
}

// RunTenant runs one pass of the named trigger for a single tenant. It does
// not go through the trigger's gate.
func (s *Scheduler) RunTenant(ctx context.Context, name string, tenantID uuid.UUID) (Report, error) {
	modules, ok := s.modules(name)
	if !ok {
		return Report{}, fmt.Errorf("trigger[%s]: %w", name, ErrUnknownTrigger)
	}

	rpt := Report{Trigger: name, Started: time.Now().UTC(), Tenants: 1}
	s.runTenant(ctx, &rpt, modules, tenantID)
	rpt.Finished = time.Now().UTC()

	return rpt, nil
}

// LastReport returns the report of the trigger's last completed pass.
func (s *Scheduler) LastReport(name string) (Report, bool) {
	if name == TriggerStartup {
		name = TriggerDaily
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[name]
	return r, ok
}

// Entries returns the next firing time of each scheduled trigger.
func (s *Scheduler) Entries() []time.Time {
	var next []time.Time
	for _, e := range s.cron.Entries() {
		next = append(next, e.Next)
	}
	return next
}

// =============================================================================

// enter registers a pass with the wait group unless the scheduler is
// stopping. The caller must call wg.Done when enter returns true.
func (s *Scheduler) enter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}

	s.wg.Add(1)
	return true
}

func (s *Scheduler) modules(name string) ([]rules.Module, bool) {
	if name == TriggerStartup {
		name = TriggerDaily
	}

	m, ok := s.pipeline[name]
	return m, ok
}

func (s *Scheduler) passJob(trigger string) cron.Job {
	return cron.FuncJob(func() {
		s.pass(context.Background(), trigger)
	})
}

// pass runs every module of the trigger's pipeline for every tenant, one
// tenant at a time.
func (s *Scheduler) pass(ctx context.Context, trigger string) {
	if s.cfg.Tracer != nil {
		ctx = otel.InjectTracing(ctx, s.cfg.Tracer)
	}

	ctx, span := otel.AddSpan(ctx, "app.workflow."+trigger)
	defer span.End()

	ctx = auditstore.SystemContext(ctx)

	rpt := Report{Trigger: trigger, Started: time.Now().UTC()}

	defer func() {
		rpt.Finished = time.Now().UTC()

		s.mu.Lock()
		s.reports[trigger] = rpt
		s.mu.Unlock()

		s.log.Info(ctx, "workflow: pass complete",
			"trigger", trigger,
			"tenants", rpt.Tenants,
			"runs", rpt.Runs,
			"failures", len(rpt.Failures),
			"took", rpt.Finished.Sub(rpt.Started).String())
	}()

	tenants, err := s.cfg.Rules.Bus.Policy.QueryTenantIDs(ctx)
	if err != nil {
		s.log.Error(ctx, "workflow: list tenants", "trigger", trigger, "err", err)
		return
	}

	rpt.Tenants = len(tenants)

	for _, tenantID := range tenants {
		s.runTenant(ctx, &rpt, s.pipeline[trigger], tenantID)
	}
}

func (s *Scheduler) runTenant(ctx context.Context, rpt *Report, modules []rules.Module, tenantID uuid.UUID) {
	for _, m := range modules {
		rpt.Runs++

		if err := s.runModule(ctx, m, tenantID); err != nil {
			s.log.Error(ctx, "workflow: module failed", "trigger", rpt.Trigger, "module", m.Name(), "tenant_id", tenantID, "err", err)
			rpt.Failures = append(rpt.Failures, Failure{TenantID: tenantID, Module: m.Name(), Err: err.Error()})
		}
	}
}

// runModule is the failure boundary of one tenant and module pair.
func (s *Scheduler) runModule(ctx context.Context, m rules.Module, tenantID uuid.UUID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return m.Run(ctx, tenantID)
}

func withDefault(v string, def string) string {
	if v == "" {
		return def
	}
	return v
}

// =============================================================================

// cronLogger sends the cron library's logging through the service logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	ctx := context.Background()

	if msg == "skip" {
		l.log.Warn(ctx, "workflow: pass skipped, previous pass still running")
		return
	}

	l.log.Debug(ctx, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(context.Background(), "cron: "+msg, append(keysAndValues, "err", err)...)
}
