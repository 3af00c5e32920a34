package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// PricingService runs the quote negotiation sub-state-machine:
// none -> proposed -> {accepted, refused}; accepted -> paid. A refused
// quote may be re-proposed; negotiation can loop even though ticket
// resolution cannot.
type PricingService struct {
	tickets      repository.TicketRepository
	transactions repository.TransactionRepository
	profiles     repository.ProfileRepository
	guard        *Guard
	audit        *AuditService
	dispatcher   events.Dispatcher
}

// PricingDependencies bundles collaborators.
type PricingDependencies struct {
	TicketRepo      repository.TicketRepository
	TransactionRepo repository.TransactionRepository
	ProfileRepo     repository.ProfileRepository
	Guard           *Guard
	Audit           *AuditService
	Dispatcher      events.Dispatcher
}

// PriceDecision is the client's answer to a proposed quote.
type PriceDecision string

const (
	PriceDecisionAccept PriceDecision = "accept"
	PriceDecisionRefuse PriceDecision = "refuse"
)

// NewPricingService creates the service.
func NewPricingService(deps PricingDependencies) *PricingService {
	return &PricingService{
		tickets:      deps.TicketRepo,
		transactions: deps.TransactionRepo,
		profiles:     deps.ProfileRepo,
		guard:        deps.Guard,
		audit:        deps.Audit,
		dispatcher:   deps.Dispatcher,
	}
}

// ProposePrice records a quote. Allowed for the assigned technician or an
// admin, and only from the "no quote" or refused states.
func (s *PricingService) ProposePrice(ctx context.Context, ticketID string, amount decimal.Decimal, actorID string) (*domain.Ticket, error) {
	actor, err := loadActor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError(err, "ticket")
	}
	if !s.guard.CanPerform(actor, OpProposePrice, ticket) {
		return nil, apperrors.NewPermissionDenied("only the assigned technician or an admin may propose a price")
	}
	if !amount.IsPositive() {
		return nil, apperrors.NewValidationError("amount must be positive", nil)
	}
	switch ticket.QuoteState() {
	case "", domain.PriceStatusRefused:
	default:
		return nil, apperrors.NewInvalidPricingState("a quote can only be proposed when none is pending", map[string]any{
			"price_status": ticket.QuoteState(),
		})
	}

	updated, err := s.tickets.SetQuote(ctx, ticketID, ticket.PriceStatus, amount)
	if err != nil {
		return nil, mapStoreError(err, "ticket")
	}

	s.audit.Record(ctx, actorID, "price_proposed", "ticket "+ticketID+": "+amount.String())
	s.publishPriceEvent(ctx, actorID, updated, amount.String())
	return updated, nil
}

// RespondToPrice accepts or refuses a proposed quote. Owning client only,
// and only from the proposed state.
func (s *PricingService) RespondToPrice(ctx context.Context, ticketID string, decision PriceDecision, actorID string) (*domain.Ticket, error) {
	actor, err := loadActor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError(err, "ticket")
	}
	if !s.guard.CanPerform(actor, OpRespondToPrice, ticket) {
		return nil, apperrors.NewPermissionDenied("only the ticket owner may respond to a quote")
	}
	var next domain.PriceStatus
	switch decision {
	case PriceDecisionAccept:
		next = domain.PriceStatusAccepted
	case PriceDecisionRefuse:
		next = domain.PriceStatusRefused
	default:
		return nil, apperrors.NewValidationError("decision must be accept or refuse", nil)
	}
	if ticket.QuoteState() != domain.PriceStatusProposed {
		return nil, apperrors.NewInvalidPricingState("no quote is awaiting a response", map[string]any{
			"price_status": ticket.QuoteState(),
		})
	}

	updated, err := s.tickets.SetQuoteDecision(ctx, ticketID, next)
	if err != nil {
		return nil, mapStoreError(err, "ticket")
	}

	s.audit.Record(ctx, actorID, "price_"+string(next), "ticket "+ticketID)
	s.publishPriceEvent(ctx, actorID, updated, "")
	return updated, nil
}

// PayPrice settles an accepted quote. It writes the immutable transaction
// record and flips the ticket to paid in one atomic store transaction; when
// atomicity cannot be confirmed the failure surfaces as PartialFailure.
func (s *PricingService) PayPrice(ctx context.Context, ticketID, actorID string) (*domain.Ticket, *domain.Transaction, error) {
	actor, err := loadActor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, mapStoreError(err, "ticket")
	}
	if !s.guard.CanPerform(actor, OpPayPrice, ticket) {
		return nil, nil, apperrors.NewPermissionDenied("only the ticket owner may pay")
	}
	if ticket.QuoteState() != domain.PriceStatusAccepted {
		return nil, nil, apperrors.NewInvalidPricingState("only an accepted quote can be paid", map[string]any{
			"price_status": ticket.QuoteState(),
		})
	}

	record, updated, err := s.transactions.RecordPayment(ctx, ticketID)
	if err != nil {
		return nil, nil, mapStoreError(err, "ticket")
	}

	s.audit.Record(ctx, actorID, "price_paid", "ticket "+ticketID+": "+record.Amount.String())
	s.publishPriceEvent(ctx, actorID, updated, record.Amount.String())
	return updated, record, nil
}

// ListClientTransactions returns the client's payment records, newest first.
func (s *PricingService) ListClientTransactions(ctx context.Context, actorID string) ([]domain.Transaction, error) {
	actor, err := loadActor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, err
	}
	records, err := s.transactions.ListByClient(ctx, actor.ID)
	if err != nil {
		return nil, mapStoreError(err, "transaction")
	}
	return records, nil
}

func (s *PricingService) publishPriceEvent(ctx context.Context, actorID string, ticket *domain.Ticket, amount string) {
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketPriceChanged,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload: events.TicketPriceChangedPayload{
			PriceStatus: ticket.QuoteState(),
			Amount:      amount,
		},
	})
}
