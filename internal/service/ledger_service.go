package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// LedgerService manages the append-only comment trail and the write-once
// solution field.
type LedgerService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	profiles   repository.ProfileRepository
	guard      *Guard
	audit      *AuditService
	dispatcher events.Dispatcher
}

// LedgerDependencies bundles collaborators.
type LedgerDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	ProfileRepo repository.ProfileRepository
	Guard       *Guard
	Audit       *AuditService
	Dispatcher  events.Dispatcher
}

// NewLedgerService creates the service.
func NewLedgerService(deps LedgerDependencies) *LedgerService {
	return &LedgerService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		profiles:   deps.ProfileRepo,
		guard:      deps.Guard,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
	}
}

// AddComment appends a remark to the ticket's thread and returns it with
// the current ticket snapshot. Commenting stays open on Closed tickets; the
// append is a single insert so concurrent commenters cannot lose each
// other's entries.
func (s *LedgerService) AddComment(ctx context.Context, ticketID, body, actorID string) (*domain.Comment, *domain.Ticket, error) {
	actor, err := loadActor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, nil, err
	}
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil, nil, apperrors.NewEmptyBody()
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, mapStoreError(err, "ticket")
	}
	if !s.guard.CanPerform(actor, OpAddComment, ticket) {
		return nil, nil, apperrors.NewPermissionDenied("only the owner, assigned technician, or an admin may comment")
	}

	comment := &domain.Comment{
		TicketID: ticketID,
		AuthorID: actorID,
		Body:     trimmed,
	}
	if err := s.comments.Append(ctx, comment); err != nil {
		return nil, nil, mapStoreError(err, "ticket")
	}

	// The append never touches the ticket row itself; the re-read only picks
	// up fields a concurrent writer may have changed since the guard check.
	updated, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		updated = ticket
	}

	s.audit.Record(ctx, actorID, "comment_added", "ticket "+ticketID)
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticketID,
		ActorID:  actorID,
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			AuthorID:    actorID,
			BodyPreview: stringPreview(trimmed, 120),
		},
	})
	return comment, updated, nil
}

// SetSolution records the resolution text. Permitted only while the ticket
// is exactly Resolved and only once; the conditional write enforces both
// rules against concurrent writers.
func (s *LedgerService) SetSolution(ctx context.Context, ticketID, text, actorID string) (*domain.Ticket, error) {
	actor, err := loadActor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, apperrors.NewEmptyBody()
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError(err, "ticket")
	}
	if !s.guard.CanPerform(actor, OpSetSolution, ticket) {
		return nil, apperrors.NewPermissionDenied("only technicians or admins may record a solution")
	}
	if ticket.Solution != nil {
		return nil, apperrors.NewSolutionAlreadySet(ticketID)
	}
	if ticket.Status != domain.TicketStatusResolved {
		return nil, apperrors.NewInvalidState("solution requires status Resolved", map[string]any{
			"status": ticket.Status,
		})
	}

	updated, err := s.tickets.SetSolution(ctx, ticketID, trimmed)
	if err != nil {
		return nil, s.classifySolutionFailure(ctx, ticketID, err)
	}

	s.audit.Record(ctx, actorID, "solution_set", "ticket "+ticketID)
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketSolutionSet,
		TicketID: ticketID,
		ActorID:  actorID,
		Payload:  events.TicketSolutionSetPayload{SetBy: actorID},
	})
	return updated, nil
}

// classifySolutionFailure re-reads the ticket when the conditional write
// missed, so a race with another writer reports the same error a sequential
// caller would have seen.
func (s *LedgerService) classifySolutionFailure(ctx context.Context, ticketID string, cause error) error {
	if !errors.Is(cause, repository.ErrStaleRecord) {
		return mapStoreError(cause, "ticket")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return mapStoreError(err, "ticket")
	}
	if ticket.Solution != nil {
		return apperrors.NewSolutionAlreadySet(ticketID)
	}
	if ticket.Status != domain.TicketStatusResolved {
		return apperrors.NewInvalidState("solution requires status Resolved", map[string]any{
			"status": ticket.Status,
		})
	}
	return apperrors.NewConcurrentModification("ticket")
}
