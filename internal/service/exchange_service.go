package service

import (
	"context"
	"fmt"
	"io"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/exchange"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// ExchangeService handles bulk CSV export and import of tickets. Both
// directions are admin-only; imported rows are re-owned by the importing
// admin and receive fresh ids and timestamps.
type ExchangeService struct {
	tickets  repository.TicketRepository
	profiles repository.ProfileRepository
	audit    *AuditService
}

// NewExchangeService builds the service.
func NewExchangeService(tickets repository.TicketRepository, profiles repository.ProfileRepository, audit *AuditService) *ExchangeService {
	return &ExchangeService{tickets: tickets, profiles: profiles, audit: audit}
}

// ExportTickets streams every ticket as CSV.
func (s *ExchangeService) ExportTickets(ctx context.Context, actorID string, w io.Writer) (int, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return 0, err
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{Limit: 10000})
	if err != nil {
		return 0, mapStoreError(err, "ticket")
	}
	if err := exchange.Export(w, tickets); err != nil {
		return 0, err
	}
	s.audit.Record(ctx, actorID, "tickets_exported", fmt.Sprintf("%d tickets", len(tickets)))
	return len(tickets), nil
}

// ImportTickets parses CSV rows and creates a ticket per row. Rows with a
// status outside the canonical set reject the whole import before any
// ticket is written.
func (s *ExchangeService) ImportTickets(ctx context.Context, actorID string, r io.Reader) ([]domain.Ticket, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	rows, err := exchange.Import(r)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	created := make([]domain.Ticket, 0, len(rows))
	for _, row := range rows {
		ticket := domain.Ticket{
			OwnerID:     actorID,
			Title:       row.Title,
			Description: row.Description,
			Category:    row.Category,
			Status:      row.Status,
		}
		if err := s.tickets.Create(ctx, &ticket); err != nil {
			return created, mapStoreError(err, "ticket")
		}
		created = append(created, ticket)
	}
	s.audit.Record(ctx, actorID, "tickets_imported", fmt.Sprintf("%d tickets", len(created)))
	return created, nil
}

func (s *ExchangeService) requireAdmin(ctx context.Context, actorID string) error {
	actor, err := loadActor(ctx, s.profiles, actorID)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewPermissionDenied("admin role required")
	}
	return nil
}
