package events

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketPriceChanged  EventType = "ticket_price_changed"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
	EventTicketSolutionSet   EventType = "ticket_solution_set"
)

// Event represents a domain event emitted by services. Delivery is
// fire-and-forget, at most once; subscribers that miss an event recover by
// refetching.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string  `json:"title"`
	Category *string `json:"category,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload. AssignedTo is nil for unassignment.
type TicketAssignedPayload struct {
	AssignedTo *string             `json:"assigned_to,omitempty"`
	NewStatus  domain.TicketStatus `json:"new_status"`
}

// TicketPriceChangedPayload payload.
type TicketPriceChangedPayload struct {
	PriceStatus domain.PriceStatus `json:"price_status"`
	Amount      string             `json:"amount,omitempty"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	AuthorID    string `json:"author_id"`
	BodyPreview string `json:"body_preview"`
}

// TicketSolutionSetPayload payload.
type TicketSolutionSetPayload struct {
	SetBy string `json:"set_by"`
}
