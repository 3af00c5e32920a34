package handlers

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/service"
)

// ExchangeHandler manages bulk CSV export and import.
type ExchangeHandler struct {
	exchange *service.ExchangeService
}

// NewExchangeHandler constructs handler.
func NewExchangeHandler(exchangeService *service.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchange: exchangeService}
}

// Export GET /tickets/export.
func (h *ExchangeHandler) Export(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	count, err := h.exchange.ExportTickets(c.UserContext(), principal.Profile.ID, &buf)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="tickets.csv"`)
	c.Set("X-Ticket-Count", fmt.Sprintf("%d", count))
	return c.Send(buf.Bytes())
}

// Import POST /tickets/import.
func (h *ExchangeHandler) Import(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	created, err := h.exchange.ImportTickets(c.UserContext(), principal.Profile.ID, bytes.NewReader(c.Body()))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(created))
	for i := range created {
		items = append(items, ticketSummary(&created[i]))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": items})
}
