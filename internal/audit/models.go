// Package audit provides the append-only record of every state transition in
// the core. Events are emitted from domain services and never mutated or
// deleted; emit failures are logged by callers and never fail the operation
// that triggered them.
package audit

import (
	"context"
	"time"

	id "bayanihan/pkg/domain"
)

// Action tags an audit event with the transition that produced it.
type Action string

const (
	ActionBarangayCreated     Action = "BARANGAY_CREATED"
	ActionManagerAssigned     Action = "MANAGER_ASSIGNED"
	ActionUserRegistered      Action = "USER_REGISTERED"
	ActionResidentApproved    Action = "RESIDENT_APPROVED"
	ActionFamilyCreated       Action = "FAMILY_CREATED"
	ActionMemberAdded         Action = "MEMBER_ADDED"
	ActionClassificationSet   Action = "CLASSIFICATION_SET"
	ActionAttributeSubmitted  Action = "ATTRIBUTE_SUBMITTED"
	ActionAttributeApproved   Action = "ATTRIBUTE_APPROVED"
	ActionAttributeRejected   Action = "ATTRIBUTE_REJECTED"
	ActionScheduleCreated     Action = "SCHEDULE_CREATED"
	ActionScheduleUpdated     Action = "SCHEDULE_UPDATED"
	ActionScheduleCancelled   Action = "SCHEDULE_CANCELLED"
	ActionScheduleDistributed Action = "SCHEDULE_DISTRIBUTED"
	ActionScheduleDeleted     Action = "SCHEDULE_DELETED"
	ActionClaimCreated        Action = "CLAIM_CREATED"
	ActionClaimVerified       Action = "CLAIM_VERIFIED"
	ActionClaimCompleted      Action = "CLAIM_COMPLETED"
	ActionClaimRejected       Action = "CLAIM_REJECTED"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ActorID   id.UserID
	Action    Action
	Detail    string
	Timestamp time.Time
}

// Store persists events append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actorID id.UserID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Sink receives a copy of every event for out-of-process fan-out (Kafka).
// Sinks are best-effort; a failing sink never fails Emit.
type Sink interface {
	Publish(ctx context.Context, event Event)
}
