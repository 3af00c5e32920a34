package dto

import "time"

// ProposePriceRequest payload. Amount is a decimal string.
type ProposePriceRequest struct {
	Amount string `json:"amount"`
}

// PriceDecisionRequest payload; decision is "accept" or "refuse".
type PriceDecisionRequest struct {
	Decision string `json:"decision"`
}

// TransactionResponse represents an immutable payment record.
type TransactionResponse struct {
	ID           string    `json:"id"`
	TicketID     string    `json:"ticket_id"`
	ClientID     string    `json:"client_id"`
	TechnicianID *string   `json:"technician_id"`
	Amount       string    `json:"amount"`
	PaidAt       time.Time `json:"paid_at"`
}

// PaymentResponse couples the settled ticket with its transaction.
type PaymentResponse struct {
	Ticket      TicketDetailResponse `json:"ticket"`
	Transaction TransactionResponse  `json:"transaction"`
}
