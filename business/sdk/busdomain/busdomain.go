// Package busdomain assembles every domain core over one storage backend
// and wires the sample flag links between them.
package busdomain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/domain/applicationbus"
	"github.com/jcpaschoal/leasekeeper/business/domain/applicationbus/stores/applicationdb"
	"github.com/jcpaschoal/leasekeeper/business/domain/earningsbus"
	"github.com/jcpaschoal/leasekeeper/business/domain/earningsbus/stores/earningsdb"
	"github.com/jcpaschoal/leasekeeper/business/domain/invoicebus"
	"github.com/jcpaschoal/leasekeeper/business/domain/invoicebus/stores/invoicedb"
	"github.com/jcpaschoal/leasekeeper/business/domain/leasebus"
	"github.com/jcpaschoal/leasekeeper/business/domain/leasebus/stores/leasedb"
	"github.com/jcpaschoal/leasekeeper/business/domain/offerbus"
	"github.com/jcpaschoal/leasekeeper/business/domain/offerbus/stores/offerdb"
	"github.com/jcpaschoal/leasekeeper/business/domain/policybus"
	"github.com/jcpaschoal/leasekeeper/business/domain/policybus/stores/policycache"
	"github.com/jcpaschoal/leasekeeper/business/domain/policybus/stores/policydb"
	"github.com/jcpaschoal/leasekeeper/business/domain/prospectbus"
	"github.com/jcpaschoal/leasekeeper/business/domain/prospectbus/stores/prospectdb"
	"github.com/jcpaschoal/leasekeeper/business/domain/tourbus"
	"github.com/jcpaschoal/leasekeeper/business/domain/tourbus/stores/tourdb"
	"github.com/jcpaschoal/leasekeeper/business/domain/unitbus"
	"github.com/jcpaschoal/leasekeeper/business/domain/unitbus/stores/unitdb"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore/memstore"
	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jcpaschoal/leasekeeper/business/sdk/taint"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Kinds lists every record kind, which is also every table name.
var Kinds = []string{
	unitbus.Kind,
	prospectbus.Kind,
	leasebus.Kind,
	invoicebus.Kind,
	applicationbus.Kind,
	offerbus.Kind,
	tourbus.Kind,
	policybus.Kind,
	earningsbus.Kind,
}

// Storers holds one backend per record kind.
type Storers struct {
	Unit        auditstore.Storer[unitbus.Unit]
	Prospect    auditstore.Storer[prospectbus.Prospect]
	Lease       auditstore.Storer[leasebus.Lease]
	Invoice     auditstore.Storer[invoicebus.Invoice]
	Application auditstore.Storer[applicationbus.Application]
	Offer       auditstore.Storer[offerbus.Offer]
	Tour        auditstore.Storer[tourbus.Tour]
	Policy      auditstore.Storer[policybus.Policy]
	Earnings    auditstore.Storer[earningsbus.Aggregation]
}

// SQLStorers builds postgres backed storers.
func SQLStorers(log *logger.Logger, db *sqlx.DB) Storers {
	return Storers{
		Unit:        unitdb.NewStore(log, db),
		Prospect:    prospectdb.NewStore(log, db),
		Lease:       leasedb.NewStore(log, db),
		Invoice:     invoicedb.NewStore(log, db),
		Application: applicationdb.NewStore(log, db),
		Offer:       offerdb.NewStore(log, db),
		Tour:        tourdb.NewStore(log, db),
		Policy:      policydb.NewStore(log, db),
		Earnings:    earningsdb.NewStore(log, db),
	}
}

// MemoryStorers builds storers over an in-memory database created with
// Kinds.
func MemoryStorers(db *memstore.DB) Storers {
	return Storers{
		Unit:        memstore.NewStore[unitbus.Unit](db, unitbus.Kind),
		Prospect:    memstore.NewStore[prospectbus.Prospect](db, prospectbus.Kind),
		Lease:       memstore.NewStore[leasebus.Lease](db, leasebus.Kind),
		Invoice:     memstore.NewStore[invoicebus.Invoice](db, invoicebus.Kind),
		Application: memstore.NewStore[applicationbus.Application](db, applicationbus.Kind),
		Offer:       memstore.NewStore[offerbus.Offer](db, offerbus.Kind),
		Tour:        memstore.NewStore[tourbus.Tour](db, tourbus.Kind),
		Policy:      memstore.NewStore[policybus.Policy](db, policybus.Kind),
		Earnings:    memstore.NewStore[earningsbus.Aggregation](db, earningsbus.Kind),
	}
}

// Config tunes how the stores behave.
type Config struct {
	HardDelete     bool
	PolicyCacheTTL time.Duration
	Clock          func() time.Time
}

// BusDomain represents all the business domain apis.
type BusDomain struct {
	Unit        *unitbus.Core
	Prospect    *prospectbus.Core
	Lease       *leasebus.Core
	Invoice     *invoicebus.Core
	Application *applicationbus.Core
	Offer       *offerbus.Core
	Tour        *tourbus.Core
	Policy      *policybus.Core
	Earnings    *earningsbus.Core
}

// New constructs the cores over the storers. Child stores inherit the
// sample flag from their parents through the links set up here.
func New(log *logger.Logger, s Storers, cfg Config) (BusDomain, error) {
	var opts []auditstore.Option
	if cfg.HardDelete {
		opts = append(opts, auditstore.WithHardDelete())
	}
	if cfg.Clock != nil {
		opts = append(opts, auditstore.WithClock(cfg.Clock))
	}

	policyStorer := s.Policy
	if cfg.PolicyCacheTTL > 0 {
		policyStorer = policycache.NewStore(log, s.Policy, cfg.PolicyCacheTTL)
	}

	units := auditstore.New(log, unitbus.Kind, s.Unit, opts...)
	prospects := auditstore.New(log, prospectbus.Kind, s.Prospect, opts...)
	leases := auditstore.New(log, leasebus.Kind, s.Lease, opts...)
	invoices := auditstore.New(log, invoicebus.Kind, s.Invoice, opts...)
	apps := auditstore.New(log, applicationbus.Kind, s.Application, opts...)
	offers := auditstore.New(log, offerbus.Kind, s.Offer, opts...)
	tours := auditstore.New(log, tourbus.Kind, s.Tour, opts...)
	policies := auditstore.New(log, policybus.Kind, policyStorer, opts...)
	earnings := auditstore.New(log, earningsbus.Kind, s.Earnings, opts...)

	err := leases.TaintFrom(
		taint.Link[leasebus.Lease]{Field: taint.FieldUnit, Ref: func(l leasebus.Lease) uuid.UUID { return l.UnitID }, Parent: units},
		taint.Link[leasebus.Lease]{Field: taint.FieldContact, Ref: func(l leasebus.Lease) uuid.UUID { return l.ContactID }, Parent: prospects},
	)
	if err != nil {
		return BusDomain{}, fmt.Errorf("lease links: %w", err)
	}

	err = invoices.TaintFrom(
		taint.Link[invoicebus.Invoice]{Field: taint.FieldUnit, Ref: func(i invoicebus.Invoice) uuid.UUID { return i.UnitID }, Parent: units},
		taint.Link[invoicebus.Invoice]{Field: taint.FieldLease, Ref: func(i invoicebus.Invoice) uuid.UUID { return i.LeaseID }, Parent: leases},
		taint.Link[invoicebus.Invoice]{Field: taint.FieldContact, Ref: func(i invoicebus.Invoice) uuid.UUID { return i.ContactID }, Parent: prospects},
	)
	if err != nil {
		return BusDomain{}, fmt.Errorf("invoice links: %w", err)
	}

	err = apps.TaintFrom(
		taint.Link[applicationbus.Application]{Field: taint.FieldUnit, Ref: func(a applicationbus.Application) uuid.UUID { return a.UnitID }, Parent: units},
		taint.Link[applicationbus.Application]{Field: taint.FieldContact, Ref: func(a applicationbus.Application) uuid.UUID { return a.ContactID }, Parent: prospects},
	)
	if err != nil {
		return BusDomain{}, fmt.Errorf("application links: %w", err)
	}

	err = offers.TaintFrom(
		taint.Link[offerbus.Offer]{Field: taint.FieldUnit, Ref: func(o offerbus.Offer) uuid.UUID { return o.UnitID }, Parent: units},
		taint.Link[offerbus.Offer]{Field: taint.FieldContact, Ref: func(o offerbus.Offer) uuid.UUID { return o.ContactID }, Parent: prospects},
		taint.Link[offerbus.Offer]{Field: taint.FieldApplication, Ref: func(o offerbus.Offer) uuid.UUID { return o.ApplicationID }, Parent: apps},
	)
	if err != nil {
		return BusDomain{}, fmt.Errorf("offer links: %w", err)
	}

	err = tours.TaintFrom(
		taint.Link[tourbus.Tour]{Field: taint.FieldUnit, Ref: func(t tourbus.Tour) uuid.UUID { return t.UnitID }, Parent: units},
		taint.Link[tourbus.Tour]{Field: taint.FieldContact, Ref: func(t tourbus.Tour) uuid.UUID { return t.ContactID }, Parent: prospects},
	)
	if err != nil {
		return BusDomain{}, fmt.Errorf("tour links: %w", err)
	}

	prospectBus := prospectbus.NewCore(log, prospects)

	return BusDomain{
		Unit:        unitbus.NewCore(log, units),
		Prospect:    prospectBus,
		Lease:       leasebus.NewCore(log, leases),
		Invoice:     invoicebus.NewCore(log, invoices),
		Application: applicationbus.NewCore(log, apps),
		Offer:       offerbus.NewCore(log, offers),
		Tour:        tourbus.NewCore(log, tours, prospectBus),
		Policy:      policybus.NewCore(log, policies),
		Earnings:    earningsbus.NewCore(log, earnings),
	}, nil
}

// NewWithTx returns the cores bound to the transaction.
func (b BusDomain) NewWithTx(tx sqldb.CommitRollbacker) (BusDomain, error) {
	var (
		out BusDomain
		err error
	)

	if out.Unit, err = b.Unit.NewWithTx(tx); err != nil {
		return BusDomain{}, fmt.Errorf("unit: %w", err)
	}
	if out.Prospect, err = b.Prospect.NewWithTx(tx); err != nil {
		return BusDomain{}, fmt.Errorf("prospect: %w", err)
	}
	if out.Lease, err = b.Lease.NewWithTx(tx); err != nil {
		return BusDomain{}, fmt.Errorf("lease: %w", err)
	}
	if out.Invoice, err = b.Invoice.NewWithTx(tx); err != nil {
		return BusDomain{}, fmt.Errorf("invoice: %w", err)
	}
	if out.Application, err = b.Application.NewWithTx(tx); err != nil {
		return BusDomain{}, fmt.Errorf("application: %w", err)
	}
	if out.Offer, err = b.Offer.NewWithTx(tx); err != nil {
		return BusDomain{}, fmt.Errorf("offer: %w", err)
	}
	if out.Tour, err = b.Tour.NewWithTx(tx); err != nil {
		return BusDomain{}, fmt.Errorf("tour: %w", err)
	}
	if out.Policy, err = b.Policy.NewWithTx(tx); err != nil {
		return BusDomain{}, fmt.Errorf("policy: %w", err)
	}
	if out.Earnings, err = b.Earnings.NewWithTx(tx); err != nil {
		return BusDomain{}, fmt.Errorf("earnings: %w", err)
	}

	return out, nil
}
