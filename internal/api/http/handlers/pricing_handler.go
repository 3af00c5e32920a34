package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// PricingHandler manages quote negotiation and payment endpoints.
type PricingHandler struct {
	pricing *service.PricingService
}

// NewPricingHandler constructs handler.
func NewPricingHandler(pricing *service.PricingService) *PricingHandler {
	return &PricingHandler{pricing: pricing}
}

// ProposePrice PUT /tickets/:id/price.
func (h *PricingHandler) ProposePrice(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ProposePriceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return apperrors.NewValidationError("amount must be a decimal string", nil)
	}
	ticket, err := h.pricing.ProposePrice(c.UserContext(), c.Params("id"), amount, principal.Profile.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// RespondToPrice POST /tickets/:id/price/response.
func (h *PricingHandler) RespondToPrice(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.PriceDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.pricing.RespondToPrice(c.UserContext(), c.Params("id"), service.PriceDecision(req.Decision), principal.Profile.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// PayPrice POST /tickets/:id/price/payment.
func (h *PricingHandler) PayPrice(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, record, err := h.pricing.PayPrice(c.UserContext(), c.Params("id"), principal.Profile.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.PaymentResponse{
		Ticket:      ticketDetail(ticket, nil),
		Transaction: transactionResponse(record),
	}})
}

// ListTransactions GET /transactions.
func (h *PricingHandler) ListTransactions(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	records, err := h.pricing.ListClientTransactions(c.UserContext(), principal.Profile.ID)
	if err != nil {
		return err
	}
	items := make([]dto.TransactionResponse, 0, len(records))
	for i := range records {
		items = append(items, transactionResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func transactionResponse(record *domain.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:           record.ID,
		TicketID:     record.TicketID,
		ClientID:     record.ClientID,
		TechnicianID: record.TechnicianID,
		Amount:       record.Amount.String(),
		PaidAt:       record.PaidAt,
	}
}
