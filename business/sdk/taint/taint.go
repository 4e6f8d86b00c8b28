// Package taint copies the sample-data marker from a parent record down to a
// newly created child record.
package taint

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrLookupFailed wraps every parent lookup failure. It never leaves the
// resolver; it is only logged and counted.
var ErrLookupFailed = errors.New("taint lookup failed")

// Recognized parent reference fields, in the order they are consulted.
const (
	FieldUnit        = "unit_id"
	FieldLease       = "lease_id"
	FieldInvoice     = "invoice_id"
	FieldContact     = "contact_id"
	FieldApplication = "application_id"
)

var fieldOrder = []string{FieldUnit, FieldLease, FieldInvoice, FieldContact, FieldApplication}

// Lookup reports the sample flag of a parent record within a tenant.
type Lookup interface {
	SampleFlag(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (bool, error)
}

// Link ties one parent reference field of T to the store that owns the
// referenced parent.
type Link[T any] struct {
	Field  string
	Ref    func(T) uuid.UUID
	Parent Lookup
}

// Resolver decides whether a new record of type T inherits the sample flag.
type Resolver[T any] struct {
	log      *logger.Logger
	kind     string
	sampled  func(T) bool
	links    []Link[T]
	failures metric.Int64Counter
}

// NewResolver constructs a resolver for records of the specified kind. The
// links are ordered by the canonical field order regardless of the order
// they are passed in; links on unrecognized fields are rejected.
func NewResolver[T any](log *logger.Logger, kind string, sampled func(T) bool, links ...Link[T]) (*Resolver[T], error) {
	for _, l := range links {
		if !slices.Contains(fieldOrder, l.Field) {
			return nil, fmt.Errorf("kind[%s]: unrecognized parent field %q", kind, l.Field)
		}
		if l.Ref == nil || l.Parent == nil {
			return nil, fmt.Errorf("kind[%s]: incomplete link for field %q", kind, l.Field)
		}
	}

	ordered := slices.Clone(links)
	slices.SortStableFunc(ordered, func(a, b Link[T]) int {
		return slices.Index(fieldOrder, a.Field) - slices.Index(fieldOrder, b.Field)
	})

	failures, err := otel.Meter("github.com/jcpaschoal/leasekeeper/business/sdk/taint").Int64Counter(
		"taint.lookup.failures",
		metric.WithDescription("Parent lookups that failed while inferring the sample flag."),
	)
	if err != nil {
		return nil, fmt.Errorf("counter: %w", err)
	}

	return &Resolver[T]{
		log:      log,
		kind:     kind,
		sampled:  sampled,
		links:    ordered,
		failures: failures,
	}, nil
}

// Rebind returns a copy of the resolver whose parent lookups are replaced
// by bind. A nil result from bind keeps the original lookup.
func (r *Resolver[T]) Rebind(bind func(Lookup) (Lookup, error)) (*Resolver[T], error) {
	links := slices.Clone(r.links)
	for i, l := range links {
		p, err := bind(l.Parent)
		if err != nil {
			return nil, fmt.Errorf("kind[%s] field[%s]: %w", r.kind, l.Field, err)
		}
		if p != nil {
			links[i].Parent = p
		}
	}

	return &Resolver[T]{
		log:      r.log,
		kind:     r.kind,
		sampled:  r.sampled,
		links:    links,
		failures: r.failures,
	}, nil
}

// InferSampleFlag reports whether rec should carry the sample flag. Populated
// parent references are checked in field order until one parent is flagged.
// Only direct parents are consulted and a failed lookup counts as unflagged.
func (r *Resolver[T]) InferSampleFlag(ctx context.Context, tenantID uuid.UUID, rec T) bool {
	if r.sampled(rec) {
		return true
	}

	for _, l := range r.links {
		ref := l.Ref(rec)
		if ref == uuid.Nil {
			continue
		}

		sample, err := l.Parent.SampleFlag(ctx, tenantID, ref)
		if err != nil {
			err = fmt.Errorf("%w: %s.%s[%s]: %w", ErrLookupFailed, r.kind, l.Field, ref, err)
			r.log.Warn(ctx, "taint: parent lookup failed", "kind", r.kind, "field", l.Field, "parent_id", ref, "tenant_id", tenantID, "err", err)
			r.failures.Add(ctx, 1, metric.WithAttributes(
				attribute.String("kind", r.kind),
				attribute.String("field", l.Field),
			))
			continue
		}

		if sample {
			return true
		}
	}

	return false
}
