package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the immutable payment record produced when a client pays
// an accepted quote. Exactly one transaction references a paid ticket.
type Transaction struct {
	ID           string
	TicketID     string
	ClientID     string
	TechnicianID *string
	Amount       decimal.Decimal
	PaidAt       time.Time
}
