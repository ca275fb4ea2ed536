package audit

import (
	"context"
	"time"

	"clearledger/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string        `json:"id"`
	Action    string        `json:"action"`
	Timestamp time.Time     `json:"timestamp"`
	UserID    domain.UserID `json:"user_id,omitempty"`
	Username  string        `json:"username,omitempty"`
	// Subject is the entity acted on, e.g. a ledger or transaction ID.
	Subject   string `json:"subject,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
}

type AuditEvent string

const (
	EventUserRegistered      AuditEvent = "user_registered"
	EventLoginSucceeded      AuditEvent = "login_succeeded"
	EventLoginFailed         AuditEvent = "login_failed"
	EventLedgerCreated       AuditEvent = "ledger_created"
	EventLedgerShared        AuditEvent = "ledger_shared"
	EventTransactionRecorded AuditEvent = "transaction_recorded"
)

// Store is an append-only audit sink.
type Store interface {
	Append(ctx context.Context, event Event) error
}
