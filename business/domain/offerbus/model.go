package offerbus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/types/offerstatus"
	"github.com/shopspring/decimal"
)

// Kind names the lease offer record kind and its table.
const Kind = "lease_offer"

// Offer is a lease offered to an applicant.
type Offer struct {
	auditstore.Meta
	ApplicationID uuid.UUID
	UnitID        uuid.UUID
	ContactID     uuid.UUID
	Rent          decimal.Decimal
	Status        offerstatus.Offer
	ExpiresAt     time.Time
}

// RecordMeta implements auditstore.Record.
func (o Offer) RecordMeta() auditstore.Meta { return o.Meta }

// WithRecordMeta implements auditstore.Record.
func (o Offer) WithRecordMeta(m auditstore.Meta) Offer {
	o.Meta = m
	return o
}

// Open reports whether the offer is still awaiting an answer.
func (o Offer) Open() bool {
	return o.Status.Equal(offerstatus.Pending) || o.Status.Equal(offerstatus.Sent)
}

// NewOffer contains information needed to create a new offer.
type NewOffer struct {
	ApplicationID uuid.UUID
	UnitID        uuid.UUID
	ContactID     uuid.UUID
	Rent          decimal.Decimal
	ExpiresAt     time.Time
	Sample        bool
}

// UpdateOffer contains information needed to update an offer.
type UpdateOffer struct {
	Rent      *decimal.Decimal
	Status    *offerstatus.Offer
	ExpiresAt *time.Time
}
