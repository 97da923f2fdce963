package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"idledger/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers changes to what an identity asserts or discloses.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers revocations.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine bookkeeping.
	CategoryOperations EventCategory = "operations"
)

// Event records one successful ledger mutation. It is emitted after the
// mutation commits and never influences the mutation's outcome.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Category  EventCategory  `json:"category"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Caller    domain.Address `json:"caller"`
	// Subject is the record the action touched: an address, credential hash
	// or disclosure request id.
	Subject    string `json:"subject"`
	LedgerTime uint64 `json:"ledger_time"`
	RequestID  string `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventIdentityRegistered  AuditEvent = "identity_registered"
	EventIdentityUpdated     AuditEvent = "identity_updated"
	EventIdentityRevoked     AuditEvent = "identity_revoked"
	EventCredentialAdded     AuditEvent = "credential_added"
	EventCredentialRevoked   AuditEvent = "credential_revoked"
	EventDisclosureInitiated AuditEvent = "disclosure_initiated"
	EventDisclosureApproved  AuditEvent = "disclosure_approved"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventIdentityRegistered: CategoryCompliance,
	EventIdentityUpdated:    CategoryCompliance,
	EventCredentialAdded:    CategoryCompliance,
	EventDisclosureApproved: CategoryCompliance,

	EventIdentityRevoked:   CategorySecurity,
	EventCredentialRevoked: CategorySecurity,

	EventDisclosureInitiated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader is implemented by stores that can answer queries.
type Reader interface {
	ListByCaller(ctx context.Context, caller domain.Address) ([]Event, error)
}
