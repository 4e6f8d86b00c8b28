package main

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/app/sdk/mux"
	"github.com/jcpaschoal/leasekeeper/app/workflow"
	"github.com/jcpaschoal/leasekeeper/business/rules"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/memstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/busdomain"
	"github.com/jcpaschoal/leasekeeper/business/sdk/migrate"
	"github.com/jcpaschoal/leasekeeper/business/sdk/notify"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"
)

var build = "develop"

type Config struct {
	Version struct {
		Build string `json:"build"`
		Desc  string `json:"desc"`
	} `json:"version"`

	Web struct {
		ShutdownTimeout time.Duration `envconfig:"WEB_SHUTDOWN_TIMEOUT" default:"20s"`
		DebugHost       string        `envconfig:"WEB_DEBUG_HOST" default:"0.0.0.0:3010"`
	}
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"leasekeeper"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
		Migrate      bool   `envconfig:"DB_MIGRATE" default:"false"`
	}
	Tempo struct {
		Host        string  `envconfig:"TEMPO_HOST" default:""`
		ServiceName string  `envconfig:"TEMPO_SERVICE_NAME" default:"LEASEKEEPER"`
		Probability float64 `envconfig:"TEMPO_PROBABILITY" default:"0.05"`
	}
	Store struct {
		Memory     bool `envconfig:"STORE_MEMORY" default:"false"`
		HardDelete bool `envconfig:"STORE_HARD_DELETE" default:"false"`
	}
	Cache struct {
		PolicyTTL time.Duration `envconfig:"CACHE_POLICY_TTL" default:"5m"`
	}
	Scheduler struct {
		Location     string      `envconfig:"SCHEDULER_LOCATION" default:"UTC"`
		Daily        string      `envconfig:"SCHEDULER_DAILY" default:"0 2 * * *"`
		Nightly      string      `envconfig:"SCHEDULER_NIGHTLY" default:"0 0 * * *"`
		Hourly       string      `envconfig:"SCHEDULER_HOURLY" default:"@hourly"`
		RunOnStartup bool        `envconfig:"SCHEDULER_RUN_ON_STARTUP" default:"true"`
		Tenants      []uuid.UUID `envconfig:"SCHEDULER_TENANTS"`
	}
}

func main() {
	var log *logger.Logger

	events := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			log.Info(ctx, "******* SEND ALERT *******")
		},
	}

	log = logger.NewWithEvents(os.Stdout, logger.LevelInfo, "LEASEKEEPER", otel.GetTraceID, events)

	// -------------------------------------------------------------------------

	ctx := context.Background()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {

	// -------------------------------------------------------------------------
	// GOMAXPROCS

	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	// -------------------------------------------------------------------------
	// Configuration

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config

	cfg.Version.Build = build
	cfg.Version.Desc = "LEASEKEEPER"

	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("processing config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Scheduler.Location)
	if err != nil {
		return fmt.Errorf("scheduler location: %w", err)
	}

	// -------------------------------------------------------------------------
	// App Info & Config Logging

	log.Info(ctx, "startup", "version", cfg.Version)
	log.Info(ctx, "startup", "config", sanitizeConfig(cfg))

	log.Info(ctx, "starting service", "version", cfg.Version.Build)
	defer log.Info(ctx, "shutdown complete")

	log.BuildInfo(ctx)

	expvar.NewString("build").Set(cfg.Version.Build)

	// -------------------------------------------------------------------------
	// Start Tracing Support

	log.Info(ctx, "startup", "status", "initializing tracing support")

	traceProvider, teardown, err := otel.InitTracing(log, otel.Config{
		ServiceName: cfg.Tempo.ServiceName,
		Host:        cfg.Tempo.Host,
		Probability: cfg.Tempo.Probability,
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}

	defer teardown(context.Background())

	// -------------------------------------------------------------------------
	// Storage Support

	var (
		storers   busdomain.Storers
		beginner  sqldb.Beginner
		readiness func(ctx context.Context) error
	)

	switch cfg.Store.Memory {
	case true:
		log.Info(ctx, "startup", "status", "initializing in-memory storage")

		memDB, err := memstore.NewDB(busdomain.Kinds...)
		if err != nil {
			return fmt.Errorf("memory store: %w", err)
		}

		storers = busdomain.MemoryStorers(memDB)
		beginner = memDB

	default:
		log.Info(ctx, "startup", "status", "initializing database support", "hostport", cfg.DB.Host)

		db, err := sqldb.Open(sqldb.Config{
			User:         cfg.DB.User,
			Password:     cfg.DB.Password,
			Host:         cfg.DB.Host,
			Name:         cfg.DB.Name,
			MaxIdleConns: cfg.DB.MaxIdleConns,
			MaxOpenConns: cfg.DB.MaxOpenConns,
			DisableTLS:   cfg.DB.DisableTLS,
		})
		if err != nil {
			return fmt.Errorf("connecting to db: %w", err)
		}

		defer db.Close()

		if cfg.DB.Migrate {
			if err := migrate.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrating db: %w", err)
			}
		}

		storers = busdomain.SQLStorers(log, db)
		beginner = sqldb.NewBeginner(db)
		readiness = func(ctx context.Context) error {
			return sqldb.StatusCheck(ctx, db)
		}
	}

	bus, err := busdomain.New(log, storers, busdomain.Config{
		HardDelete:     cfg.Store.HardDelete,
		PolicyCacheTTL: cfg.Cache.PolicyTTL,
	})
	if err != nil {
		return fmt.Errorf("business domain: %w", err)
	}

	sysCtx := auditstore.SystemContext(ctx)
	for _, tenantID := range cfg.Scheduler.Tenants {
		if _, err := bus.Policy.Provision(sysCtx, tenantID); err != nil {
			return fmt.Errorf("provision: tenantID[%s]: %w", tenantID, err)
		}
	}

	// -------------------------------------------------------------------------
	// Scheduler

	log.Info(ctx, "startup", "status", "initializing scheduler", "location", loc.String())

	sched, err := workflow.New(workflow.Config{
		Log:    log,
		Tracer: traceProvider.Tracer(cfg.Tempo.ServiceName),
		Rules: rules.Config{
			Log:        log,
			Bus:        bus,
			Beginner:   beginner,
			Sender:     notify.NewLogSender(log),
			Calculator: rules.NewLogCalculator(log),
			Location:   loc,
		},
		Location:     loc,
		DailySpec:    cfg.Scheduler.Daily,
		NightlySpec:  cfg.Scheduler.Nightly,
		HourlySpec:   cfg.Scheduler.Hourly,
		RunOnStartup: cfg.Scheduler.RunOnStartup,
	})
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	// -------------------------------------------------------------------------
	// Start Debug Service

	debug := http.Server{
		Addr: cfg.Web.DebugHost,
		Handler: mux.DebugMux(mux.Config{
			Build:     build,
			Log:       log,
			Reporter:  sched,
			Readiness: readiness,
		}),
		ErrorLog: logger.NewStdLogger(log, logger.LevelError),
	}

	// -------------------------------------------------------------------------
	// Run until a signal or a failure

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(ctx, "startup", "status", "debug router started", "host", debug.Addr)

		if err := debug.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("debug server: %w", err)
		}
		return nil
	})

	sched.Start()

	g.Go(func() error {
		<-ctx.Done()

		log.Info(ctx, "shutdown", "status", "shutdown started")
		defer log.Info(ctx, "shutdown", "status", "shutdown complete")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		schedErr := sched.Stop(shutdownCtx)

		if err := debug.Shutdown(shutdownCtx); err != nil {
			debug.Close()
			return errors.Join(schedErr, fmt.Errorf("could not stop debug server gracefully: %w", err))
		}

		return schedErr
	})

	return g.Wait()
}

func sanitizeConfig(cfg Config) string {
	cfg.DB.Password = "[MASKED]"

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Sprintf("%+v", cfg)
	}
	return string(data)
}
