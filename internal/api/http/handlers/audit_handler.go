package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/service"
)

// AuditHandler exposes the audit trail to admins.
type AuditHandler struct {
	audit    *service.AuditService
	profiles *service.ProfileService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audit *service.AuditService, profiles *service.ProfileService) *AuditHandler {
	return &AuditHandler{audit: audit, profiles: profiles}
}

// List GET /audit. Role enforcement happens at the route level.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	entries, err := h.audit.List(c.UserContext(), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, auditEntryResponse(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListProfiles GET /profiles. Admin user management view.
func (h *AuditHandler) ListProfiles(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	role := domain.Role(c.Query("role", string(domain.RoleClient)))
	profiles, err := h.profiles.ListByRole(c.UserContext(), principal.Profile.ID, role)
	if err != nil {
		return err
	}
	items := make([]dto.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		items = append(items, profileResponse(&profiles[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func auditEntryResponse(entry domain.AuditEntry) dto.AuditEntryResponse {
	return dto.AuditEntryResponse{
		ID:        entry.ID,
		ActorID:   entry.ActorID,
		Action:    entry.Action,
		Detail:    entry.Detail,
		Timestamp: entry.Timestamp,
	}
}
