// This program performs administrative tasks for the leasekeeper service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/app/workflow"
	"github.com/jcpaschoal/leasekeeper/business/rules"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/busdomain"
	"github.com/jcpaschoal/leasekeeper/business/sdk/migrate"
	"github.com/jcpaschoal/leasekeeper/business/sdk/notify"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jcpaschoal/leasekeeper/foundation/otel"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
)

// Config replicates necessary DB config structure
type Config struct {
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"leasekeeper"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
	}
	Scheduler struct {
		Location string `envconfig:"SCHEDULER_LOCATION" default:"UTC"`
	}
}

func main() {
	log := logger.New(os.Stdout, logger.LevelInfo, "ADMIN", otel.GetTraceID)

	if err := rootCmd(log).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd(log *logger.Logger) *cobra.Command {
	root := cobra.Command{
		Use:          "admin",
		Short:        "Administrative tasks for the leasekeeper service",
		SilenceUsage: true,
	}

	root.AddCommand(migrateCmd(log), provisionCmd(log), runCmd(log))

	return &root
}

func migrateCmd(log *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, db, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrate.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			log.Info(ctx, "migrations complete")
			return nil
		},
	}
}

func provisionCmd(log *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "provision-tenant <tenant-id>",
		Short: "Give a tenant the default policy so the scheduler picks it up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := auditstore.SystemContext(cmd.Context())

			tenantID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("tenant id: %w", err)
			}

			_, db, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			bus, err := busdomain.New(log, busdomain.SQLStorers(log, db), busdomain.Config{})
			if err != nil {
				return fmt.Errorf("business domain: %w", err)
			}

			p, err := bus.Policy.Provision(ctx, tenantID)
			if err != nil {
				return fmt.Errorf("provision: %w", err)
			}

			return printJSON(cmd, p)
		},
	}
}

func runCmd(log *logger.Logger) *cobra.Command {
	var tenant string

	cmd := cobra.Command{
		Use:       "run <startup|daily|nightly|hourly>",
		Short:     "Run one pass of a trigger's pipeline now",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{workflow.TriggerStartup, workflow.TriggerDaily, workflow.TriggerNightly, workflow.TriggerHourly},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			trigger := args[0]

			cfg, db, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			loc, err := time.LoadLocation(cfg.Scheduler.Location)
			if err != nil {
				return fmt.Errorf("scheduler location: %w", err)
			}

			bus, err := busdomain.New(log, busdomain.SQLStorers(log, db), busdomain.Config{})
			if err != nil {
				return fmt.Errorf("business domain: %w", err)
			}

			sched, err := workflow.New(workflow.Config{
				Log: log,
				Rules: rules.Config{
					Log:        log,
					Bus:        bus,
					Beginner:   sqldb.NewBeginner(db),
					Sender:     notify.NewLogSender(log),
					Calculator: rules.NewLogCalculator(log),
					Location:   loc,
				},
				Location: loc,
			})
			if err != nil {
				return fmt.Errorf("scheduler: %w", err)
			}

			if tenant != "" {
				tenantID, err := uuid.Parse(tenant)
				if err != nil {
					return fmt.Errorf("tenant id: %w", err)
				}

				rpt, err := sched.RunTenant(ctx, trigger, tenantID)
				if err != nil {
					return err
				}

				return printJSON(cmd, rpt)
			}

			if err := sched.Trigger(trigger); err != nil {
				return err
			}

			rpt, _ := sched.LastReport(trigger)

			return printJSON(cmd, rpt)
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "run for this tenant only")

	return &cmd
}

// =============================================================================

func open() (Config, *sqlx.DB, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, nil, fmt.Errorf("processing config: %w", err)
	}

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
		return Config{}, nil, fmt.Errorf("connecting to db: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqldb.StatusCheck(ctx, db); err != nil {
		db.Close()
		return Config{}, nil, fmt.Errorf("status check: %w", err)
	}

	return cfg, db, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
