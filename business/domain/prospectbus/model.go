package prospectbus

import (
	"net/mail"

	"github.com/jcpaschoal/leasekeeper/business/sdk/auditstore"
	"github.com/jcpaschoal/leasekeeper/business/types/phone"
	"github.com/jcpaschoal/leasekeeper/business/types/prospectstatus"
)

// Kind names the prospect record kind and its table.
const Kind = "prospect"

// Prospect is a contact moving through the leasing pipeline. PriorStatus
// holds the stage the prospect was in before a tour elevated it and is
// the zero value otherwise.
type Prospect struct {
	auditstore.Meta
	Name        string
	Email       mail.Address
	Phone       phone.Null
	Status      prospectstatus.Prospect
	PriorStatus prospectstatus.Prospect
}

// RecordMeta implements auditstore.Record.
func (p Prospect) RecordMeta() auditstore.Meta { return p.Meta }

// WithRecordMeta implements auditstore.Record.
func (p Prospect) WithRecordMeta(m auditstore.Meta) Prospect {
	p.Meta = m
	return p
}

// NewProspect contains information needed to create a new prospect.
type NewProspect struct {
	Name   string
	Email  mail.Address
	Phone  phone.Null
	Status prospectstatus.Prospect
	Sample bool
}

// UpdateProspect contains information needed to update a prospect.
type UpdateProspect struct {
	Name   *string
	Email  *mail.Address
	Phone  *phone.Null
	Status *prospectstatus.Prospect
}
