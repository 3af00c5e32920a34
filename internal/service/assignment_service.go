package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// AssignmentService couples technician assignment to ticket status:
// assigning forces In Progress, unassigning resets to Pending. Admin
// assign-to-X and technician self-assign are the same primitive; the actor
// role determines which technician ids are acceptable.
type AssignmentService struct {
	tickets    repository.TicketRepository
	profiles   repository.ProfileRepository
	guard      *Guard
	audit      *AuditService
	dispatcher events.Dispatcher
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	TicketRepo  repository.TicketRepository
	ProfileRepo repository.ProfileRepository
	Guard       *Guard
	Audit       *AuditService
	Dispatcher  events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		profiles:   deps.ProfileRepo,
		guard:      deps.Guard,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
	}
}

// Assign sets or clears the assigned technician. target is either a
// technician profile id or domain.UnassignSentinel. The underlying write is
// conditioned on the (assignee, status) pair observed here, so a concurrent
// assigner loses with ConcurrentModification instead of overwriting.
func (s *AssignmentService) Assign(ctx context.Context, ticketID, target, actorID string) (*domain.Ticket, error) {
	actor, err := loadActor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, err
	}

	// Existence is checked before any validation that could mutate state.
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError(err, "ticket")
	}
	if ticket.Closed() {
		return nil, apperrors.NewTicketClosed(ticketID)
	}

	if target == domain.UnassignSentinel {
		return s.unassign(ctx, actor, ticket)
	}
	return s.assignTo(ctx, actor, ticket, target)
}

func (s *AssignmentService) assignTo(ctx context.Context, actor *domain.Profile, ticket *domain.Ticket, technicianID string) (*domain.Ticket, error) {
	technician, err := s.profiles.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": technicianID})
		}
		return nil, mapStoreError(err, "technician")
	}
	if technician.Role != domain.RoleTechnician {
		return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": technicianID})
	}

	op := OpAssign
	if actor.Role == domain.RoleTechnician {
		// Self-assign is the only non-admin path, and only onto the
		// technician's own id.
		if technicianID != actor.ID {
			return nil, apperrors.NewPermissionDenied("technicians may only assign themselves")
		}
		op = OpSelfAssign
	}
	if !s.guard.CanPerform(actor, op, ticket) {
		return nil, apperrors.NewPermissionDenied("not allowed to assign this ticket")
	}

	updated, err := s.tickets.UpdateAssignment(ctx, ticket.ID, ticket.AssignedTo, ticket.Status, &technician.ID, domain.TicketStatusInProgress)
	if err != nil {
		return nil, mapStoreError(err, "ticket")
	}

	s.audit.Record(ctx, actor.ID, "ticket_assigned", "ticket "+ticket.ID+" -> technician "+technician.ID)
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketAssignedPayload{
			AssignedTo: updated.AssignedTo,
			NewStatus:  updated.Status,
		},
	})
	return updated, nil
}

func (s *AssignmentService) unassign(ctx context.Context, actor *domain.Profile, ticket *domain.Ticket) (*domain.Ticket, error) {
	if !s.guard.CanPerform(actor, OpUnassign, ticket) {
		return nil, apperrors.NewPermissionDenied("only admins may unassign tickets")
	}

	updated, err := s.tickets.UpdateAssignment(ctx, ticket.ID, ticket.AssignedTo, ticket.Status, nil, domain.TicketStatusPending)
	if err != nil {
		return nil, mapStoreError(err, "ticket")
	}

	s.audit.Record(ctx, actor.ID, "ticket_unassigned", "ticket "+ticket.ID)
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketAssignedPayload{
			AssignedTo: nil,
			NewStatus:  updated.Status,
		},
	})
	return updated, nil
}
