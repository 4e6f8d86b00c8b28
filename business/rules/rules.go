// Package rules holds the recurring, idempotent state transitions the
// scheduler runs for every tenant.
package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/policybus"
	"github.com/jcpaschoal/leasekeeper/business/sdk/busdomain"
	"github.com/jcpaschoal/leasekeeper/business/sdk/notify"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/business/types/civil"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
)

// ErrValidationFailed marks a pass that finished with recorded per-record
// failures instead of aborting.
var ErrValidationFailed = errors.New("validation failed")

// Module is one rule run against a single tenant.
type Module interface {
	Name() string
	Run(ctx context.Context, tenantID uuid.UUID) error
}

// Config carries what every module needs.
type Config struct {
	Log        *logger.Logger
	Bus        busdomain.BusDomain
	Beginner   sqldb.Beginner
	Sender     notify.Sender
	Calculator Calculator
	Now        func() time.Time
	Location   *time.Location
}

func (cfg Config) now() time.Time {
	if cfg.Now == nil {
		return time.Now().UTC()
	}
	return cfg.Now().UTC()
}

func (cfg Config) location() *time.Location {
	if cfg.Location == nil {
		return time.UTC
	}
	return cfg.Location
}

// today returns the current calendar date in the configured location as
// midnight UTC, the form dates are stored in.
func (cfg Config) today() time.Time {
	return civil.DateIn(cfg.now(), cfg.location())
}

func daysBetween(from time.Time, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func (cfg Config) policy(ctx context.Context, tenantID uuid.UUID) (policybus.Policy, error) {
	p, err := cfg.Bus.Policy.QueryByTenant(ctx, tenantID)
	if err != nil {
		return policybus.Policy{}, fmt.Errorf("policy: %w", err)
	}
	return p, nil
}

// withTx runs fn against cores bound to one transaction and commits when fn
// succeeds.
func (cfg Config) withTx(ctx context.Context, fn func(bus busdomain.BusDomain) error) error {
	tx, err := cfg.Beginner.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			cfg.Log.Error(ctx, "rules: rollback failed", "err", err)
		}
	}()

	bus, err := cfg.Bus.NewWithTx(tx)
	if err != nil {
		return fmt.Errorf("bind: %w", err)
	}

	if err := fn(bus); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// =============================================================================

type message struct {
	recipients []string
	title      string
	body       string
}

// outbox holds the notifications of one pass until its transaction commits.
type outbox struct {
	msgs []message
}

func (o *outbox) add(recipient string, title string, body string) {
	o.msgs = append(o.msgs, message{recipients: []string{recipient}, title: title, body: body})
}

// flush sends everything queued. Delivery failures are logged and dropped.
func (o *outbox) flush(ctx context.Context, cfg Config, module string, tenantID uuid.UUID) {
	if cfg.Sender == nil {
		return
	}

	for _, m := range o.msgs {
		if err := cfg.Sender.Notify(ctx, tenantID, m.recipients, m.title, m.body); err != nil {
			cfg.Log.Warn(ctx, "rules: notification failed", "module", module, "tenant_id", tenantID, "title", m.title, "err", err)
		}
	}
}

// =============================================================================

// Module names.
const (
	NameInvoiceAging      = "invoice_aging"
	NamePaymentReminder   = "payment_reminder"
	NameLeaseRenewal      = "lease_renewal"
	NameLeaseExpiry       = "lease_expiry"
	NameDigest            = "digest"
	NameApplicationExpiry = "application_expiry"
	NameOfferExpiry       = "offer_expiry"
	NameDividend          = "dividend"
	NameTourNoShow        = "tour_no_show"
	NameUpcomingLeases    = "upcoming_leases"
)

// DailyModules is the early morning pipeline, in run order.
func DailyModules(cfg Config) []Module {
	return []Module{
		NewInvoiceAging(cfg),
		NewPaymentReminder(cfg),
		NewLeaseRenewal(cfg),
		NewLeaseExpiry(cfg),
	}
}

// NightlyModules is the midnight pipeline, in run order.
func NightlyModules(cfg Config) []Module {
	return []Module{
		NewDigest(cfg),
		NewApplicationExpiry(cfg),
		NewOfferExpiry(cfg),
		NewDividend(cfg),
	}
}

// HourlyModules is the hourly pipeline, in run order.
func HourlyModules(cfg Config) []Module {
	return []Module{
		NewTourNoShow(cfg),
		NewUpcomingLeases(cfg),
	}
}
