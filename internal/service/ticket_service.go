package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// TicketService owns ticket creation, reading, and the status state machine.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	profiles   repository.ProfileRepository
	guard      *Guard
	audit      *AuditService
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	ProfileRepo repository.ProfileRepository
	Guard       *Guard
	Audit       *AuditService
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title         string
	Description   string
	Category      *string
	AttachmentRef *string
}

// TicketListFilter describes listing filters; role scoping is applied on top.
type TicketListFilter struct {
	Statuses      []domain.TicketStatus
	PriceStatuses []domain.PriceStatus
	Category      *string
	SearchTerm    *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Offset        int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		profiles:   deps.ProfileRepo,
		guard:      deps.Guard,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket opens a new ticket for a client. Status starts at Pending
// and every price field starts empty.
func (s *TicketService) CreateTicket(ctx context.Context, ownerID string, input TicketCreateInput) (*domain.Ticket, error) {
	if _, err := s.loadActor(ctx, ownerID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}

	ticket := &domain.Ticket{
		OwnerID:       ownerID,
		Title:         title,
		Description:   description,
		Category:      input.Category,
		Status:        domain.TicketStatusPending,
		AttachmentRef: input.AttachmentRef,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, mapStoreError(err, "ticket")
	}

	s.audit.Record(ctx, ownerID, "ticket_created", "ticket "+ticket.ID)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  ownerID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Category: ticket.Category,
		},
	})
	return ticket, nil
}

// AdvanceStatus moves a ticket to the requested status. The engine
// re-validates the request against the transition table regardless of what
// the caller sent, and the write is conditioned on the status it validated.
func (s *TicketService) AdvanceStatus(ctx context.Context, ticketID string, requested domain.TicketStatus, actorID string) (*domain.Ticket, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError(err, "ticket")
	}
	if !s.guard.CanPerform(actor, OpAdvanceStatus, ticket) {
		return nil, apperrors.NewPermissionDenied("only technicians or admins may change status")
	}
	if !domain.CanTransition(ticket.Status, requested) {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(requested))
	}

	oldStatus := ticket.Status
	updated, err := s.tickets.UpdateStatus(ctx, ticketID, oldStatus, requested)
	if err != nil {
		return nil, mapStoreError(err, "ticket")
	}

	s.audit.Record(ctx, actorID, "ticket_status_changed", "ticket "+ticketID+": "+string(oldStatus)+" -> "+string(requested))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticketID,
		ActorID:  actorID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: requested,
		},
	})
	return updated, nil
}

// GetTicket fetches a ticket with its comment thread, enforcing view access.
func (s *TicketService) GetTicket(ctx context.Context, ticketID, actorID string) (*domain.Ticket, []domain.Comment, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, mapStoreError(err, "ticket")
	}
	if !s.guard.CanPerform(actor, OpViewTicket, ticket) {
		return nil, nil, apperrors.NewPermissionDenied("access denied")
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, mapStoreError(err, "ticket")
	}
	return ticket, comments, nil
}

// ListTickets returns tickets visible to the actor: clients see their own,
// technicians see their queue (assigned to them or unassigned Pending),
// admins see everything.
func (s *TicketService) ListTickets(ctx context.Context, actorID string, filter TicketListFilter) ([]domain.Ticket, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	repoFilter := repository.TicketFilter{
		Statuses:      filter.Statuses,
		PriceStatuses: filter.PriceStatuses,
		Category:      filter.Category,
		SearchTerm:    filter.SearchTerm,
		CreatedFrom:   filter.CreatedFrom,
		CreatedTo:     filter.CreatedTo,
		Limit:         filter.Limit,
		Offset:        filter.Offset,
	}
	switch actor.Role {
	case domain.RoleClient:
		repoFilter.OwnerID = &actor.ID
	case domain.RoleTechnician:
		repoFilter.AssigneeID = &actor.ID
		repoFilter.AssignedOrPending = true
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, mapStoreError(err, "ticket")
	}
	return tickets, nil
}

func (s *TicketService) loadActor(ctx context.Context, actorID string) (*domain.Profile, error) {
	return loadActor(ctx, s.profiles, actorID)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

// loadActor resolves the acting profile; an unknown actor can never hold a
// permission, so the failure mode is PermissionDenied.
func loadActor(ctx context.Context, profiles repository.ProfileRepository, actorID string) (*domain.Profile, error) {
	actor, err := profiles.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewPermissionDenied("unknown actor")
		}
		return nil, mapStoreError(err, "profile")
	}
	return actor, nil
}

// mapStoreError translates store adapter failures into the engine taxonomy.
func mapStoreError(err error, resource string) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrStaleRecord):
		return apperrors.NewConcurrentModification(resource)
	case errors.Is(err, repository.ErrPartialWrite):
		return apperrors.NewPartialFailure("payment could not be applied atomically", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewStoreUnavailable(err)
	default:
		return apperrors.MapError(err)
	}
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
