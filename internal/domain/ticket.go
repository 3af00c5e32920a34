package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketStatus enumerates lifecycle states for tickets. The set is closed;
// values match the store column verbatim.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "Pending"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// PriceStatus enumerates the quote negotiation sub-states. The zero state
// ("no quote yet") is represented by a nil pointer on the ticket.
type PriceStatus string

const (
	PriceStatusProposed PriceStatus = "proposed"
	PriceStatusAccepted PriceStatus = "accepted"
	PriceStatusRefused  PriceStatus = "refused"
	PriceStatusPaid     PriceStatus = "paid"
)

// UnassignSentinel is the technician-id value that requests clearing the
// assignment instead of setting one.
const UnassignSentinel = "unassign"

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID            string
	OwnerID       string
	AssignedTo    *string
	Title         string
	Description   string
	Category      *string
	Status        TicketStatus
	Solution      *string
	AttachmentRef *string
	ProposedPrice decimal.NullDecimal
	PriceStatus   *PriceStatus
	PaymentDate   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Closed reports whether the ticket reached its terminal status.
func (t *Ticket) Closed() bool {
	return t.Status == TicketStatusClosed
}

// AssignedToProfile reports whether the given profile is the current assignee.
func (t *Ticket) AssignedToProfile(profileID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == profileID
}

// QuoteState returns the pricing sub-state, mapping nil to the empty string
// so callers can switch on "no quote yet" without a nil check.
func (t *Ticket) QuoteState() PriceStatus {
	if t.PriceStatus == nil {
		return ""
	}
	return *t.PriceStatus
}

// ValidStatus reports whether s is one of the four canonical statuses.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Comment is an append-only remark on a ticket. Comments are never edited
// or removed once appended.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}
