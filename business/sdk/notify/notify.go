// Package notify defines how rule modules hand messages to a delivery
// provider.
package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
)

// StaffRecipient addresses the tenant's back office instead of a contact.
const StaffRecipient = "staff"

// Sender delivers a message to recipients of a tenant. A failed delivery
// never undoes the state change that triggered it.
type Sender interface {
	Notify(ctx context.Context, tenantID uuid.UUID, recipients []string, title string, body string) error
}

// LogSender writes each message as a structured log line.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender constructs a sender that logs.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

// Notify implements Sender.
func (s *LogSender) Notify(ctx context.Context, tenantID uuid.UUID, recipients []string, title string, body string) error {
	s.log.Info(ctx, "notify", "tenant_id", tenantID, "recipients", recipients, "title", title, "body", body)
	return nil
}

// =============================================================================

// Message is one notification captured by a Recorder.
type Message struct {
	TenantID   uuid.UUID
	Recipients []string
	Title      string
	Body       string
}

// Recorder keeps every message in memory. Tests use it to assert on what
// was sent; Err makes every call fail after recording.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
	Err  error
}

// Notify implements Sender.
func (r *Recorder) Notify(ctx context.Context, tenantID uuid.UUID, recipients []string, title string, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.msgs = append(r.msgs, Message{TenantID: tenantID, Recipients: recipients, Title: title, Body: body})
	return r.Err
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Message(nil), r.msgs...)
}
