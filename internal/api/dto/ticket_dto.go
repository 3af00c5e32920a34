package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Category      *string `json:"category"`
	AttachmentRef *string `json:"attachment_ref"`
}

// AdvanceStatusRequest payload.
type AdvanceStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AssignRequest payload. AssignedTo is a technician profile id or the
// literal "unassign" to clear the assignment.
type AssignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Body string `json:"body"`
}

// SetSolutionRequest payload.
type SetSolutionRequest struct {
	Solution string `json:"solution"`
}

// TicketSummary response.
type TicketSummary struct {
	ID            string              `json:"id"`
	OwnerID       string              `json:"owner_id"`
	AssignedTo    *string             `json:"assigned_to"`
	Title         string              `json:"title"`
	Category      *string             `json:"category"`
	Status        domain.TicketStatus `json:"status"`
	PriceStatus   *domain.PriceStatus `json:"price_status"`
	ProposedPrice *string             `json:"proposed_price"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID            string              `json:"id"`
	OwnerID       string              `json:"owner_id"`
	AssignedTo    *string             `json:"assigned_to"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Category      *string             `json:"category"`
	Status        domain.TicketStatus `json:"status"`
	Solution      *string             `json:"solution"`
	AttachmentRef *string             `json:"attachment_ref"`
	PriceStatus   *domain.PriceStatus `json:"price_status"`
	ProposedPrice *string             `json:"proposed_price"`
	PaymentDate   *time.Time          `json:"payment_date"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Comments      []CommentResponse   `json:"comments"`
}

// CommentResponse represents one thread entry.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
