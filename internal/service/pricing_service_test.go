package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

func TestQuoteNegotiationFullCycle(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	tech := env.addProfile("tech-1", domain.RoleTechnician)
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	ticket := env.addTicket(client.ID, domain.TicketStatusPending)
	ctx := context.Background()

	if _, err := env.assignmentSvc.Assign(ctx, ticket.ID, tech.ID, admin.ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	// First quote at 50, refused by the client.
	updated, err := env.pricingSvc.ProposePrice(ctx, ticket.ID, decimal.NewFromInt(50), tech.ID)
	if err != nil {
		t.Fatalf("ProposePrice 50: %v", err)
	}
	if updated.QuoteState() != domain.PriceStatusProposed {
		t.Errorf("QuoteState = %q, want %q", updated.QuoteState(), domain.PriceStatusProposed)
	}
	updated, err = env.pricingSvc.RespondToPrice(ctx, ticket.ID, PriceDecisionRefuse, client.ID)
	if err != nil {
		t.Fatalf("RespondToPrice refuse: %v", err)
	}
	if updated.QuoteState() != domain.PriceStatusRefused {
		t.Errorf("QuoteState = %q, want %q", updated.QuoteState(), domain.PriceStatusRefused)
	}

	// Refused quotes may be re-proposed; second quote at 40, accepted.
	updated, err = env.pricingSvc.ProposePrice(ctx, ticket.ID, decimal.NewFromInt(40), tech.ID)
	if err != nil {
		t.Fatalf("ProposePrice 40: %v", err)
	}
	if !updated.ProposedPrice.Decimal.Equal(decimal.NewFromInt(40)) {
		t.Errorf("ProposedPrice = %s, want 40", updated.ProposedPrice.Decimal)
	}
	updated, err = env.pricingSvc.RespondToPrice(ctx, ticket.ID, PriceDecisionAccept, client.ID)
	if err != nil {
		t.Fatalf("RespondToPrice accept: %v", err)
	}
	if updated.QuoteState() != domain.PriceStatusAccepted {
		t.Errorf("QuoteState = %q, want %q", updated.QuoteState(), domain.PriceStatusAccepted)
	}

	// Payment settles the accepted quote and records the transaction.
	updated, record, err := env.pricingSvc.PayPrice(ctx, ticket.ID, client.ID)
	if err != nil {
		t.Fatalf("PayPrice: %v", err)
	}
	if updated.QuoteState() != domain.PriceStatusPaid {
		t.Errorf("QuoteState = %q, want %q", updated.QuoteState(), domain.PriceStatusPaid)
	}
	if updated.PaymentDate == nil {
		t.Error("PaymentDate not set after payment")
	}
	if !record.Amount.Equal(decimal.NewFromInt(40)) {
		t.Errorf("transaction amount = %s, want 40", record.Amount)
	}
	if record.ClientID != client.ID {
		t.Errorf("transaction client = %q, want %q", record.ClientID, client.ID)
	}
	if record.TechnicianID == nil || *record.TechnicianID != tech.ID {
		t.Errorf("transaction technician = %v, want %q", record.TechnicianID, tech.ID)
	}

	records, err := env.pricingSvc.ListClientTransactions(ctx, client.ID)
	if err != nil {
		t.Fatalf("ListClientTransactions: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("transactions = %d, want 1", len(records))
	}
}

func TestProposePriceRequiresAssignmentOrAdmin(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	tech := env.addProfile("tech-1", domain.RoleTechnician)
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	ticket := env.addTicket(client.ID, domain.TicketStatusPending)
	ctx := context.Background()

	// Unassigned technician cannot quote.
	_, err := env.pricingSvc.ProposePrice(ctx, ticket.ID, decimal.NewFromInt(10), tech.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodePermissionDenied {
		t.Errorf("error code = %q, want %q", code, apperrors.CodePermissionDenied)
	}
	// Admin can quote without assignment.
	if _, err := env.pricingSvc.ProposePrice(ctx, ticket.ID, decimal.NewFromInt(10), admin.ID); err != nil {
		t.Fatalf("admin ProposePrice: %v", err)
	}
}

func TestProposePriceRejectsNonPositiveAmount(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	ticket := env.addTicket(client.ID, domain.TicketStatusPending)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := env.pricingSvc.ProposePrice(context.Background(), ticket.ID, amount, admin.ID)
		if code := apperrors.CodeOf(err); code != apperrors.CodeValidationFailed {
			t.Errorf("amount %s: error code = %q, want %q", amount, code, apperrors.CodeValidationFailed)
		}
	}
}

func TestProposePriceRejectedWhileProposedOrSettled(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	ticket := env.addTicket(client.ID, domain.TicketStatusPending)
	ctx := context.Background()

	if _, err := env.pricingSvc.ProposePrice(ctx, ticket.ID, decimal.NewFromInt(10), admin.ID); err != nil {
		t.Fatalf("ProposePrice: %v", err)
	}
	// Re-propose while a quote is pending.
	_, err := env.pricingSvc.ProposePrice(ctx, ticket.ID, decimal.NewFromInt(20), admin.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidPricingState {
		t.Errorf("error code = %q, want %q", code, apperrors.CodeInvalidPricingState)
	}

	if _, err := env.pricingSvc.RespondToPrice(ctx, ticket.ID, PriceDecisionAccept, client.ID); err != nil {
		t.Fatalf("RespondToPrice: %v", err)
	}
	// Accepted quotes are final for the negotiation loop.
	_, err = env.pricingSvc.ProposePrice(ctx, ticket.ID, decimal.NewFromInt(20), admin.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidPricingState {
		t.Errorf("error code = %q, want %q", code, apperrors.CodeInvalidPricingState)
	}
}

func TestRespondToPriceGuards(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	stranger := env.addProfile("client-2", domain.RoleClient)
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	ticket := env.addTicket(client.ID, domain.TicketStatusPending)
	ctx := context.Background()

	// Responding with no quote outstanding.
	_, err := env.pricingSvc.RespondToPrice(ctx, ticket.ID, PriceDecisionAccept, client.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidPricingState {
		t.Errorf("error code = %q, want %q", code, apperrors.CodeInvalidPricingState)
	}

	if _, err := env.pricingSvc.ProposePrice(ctx, ticket.ID, decimal.NewFromInt(10), admin.ID); err != nil {
		t.Fatalf("ProposePrice: %v", err)
	}

	// Only the owning client may respond.
	_, err = env.pricingSvc.RespondToPrice(ctx, ticket.ID, PriceDecisionAccept, stranger.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodePermissionDenied {
		t.Errorf("error code = %q, want %q", code, apperrors.CodePermissionDenied)
	}
	_, err = env.pricingSvc.RespondToPrice(ctx, ticket.ID, PriceDecisionAccept, admin.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodePermissionDenied {
		t.Errorf("error code = %q, want %q", code, apperrors.CodePermissionDenied)
	}

	// Malformed decision.
	_, err = env.pricingSvc.RespondToPrice(ctx, ticket.ID, PriceDecision("maybe"), client.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodeValidationFailed {
		t.Errorf("error code = %q, want %q", code, apperrors.CodeValidationFailed)
	}
}

func TestPayPriceRequiresAcceptedQuote(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	ticket := env.addTicket(client.ID, domain.TicketStatusPending)
	ctx := context.Background()

	// No quote at all.
	_, _, err := env.pricingSvc.PayPrice(ctx, ticket.ID, client.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidPricingState {
		t.Errorf("error code = %q, want %q", code, apperrors.CodeInvalidPricingState)
	}

	// Proposed but not yet accepted.
	if _, err := env.pricingSvc.ProposePrice(ctx, ticket.ID, decimal.NewFromInt(10), admin.ID); err != nil {
		t.Fatalf("ProposePrice: %v", err)
	}
	_, _, err = env.pricingSvc.PayPrice(ctx, ticket.ID, client.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidPricingState {
		t.Errorf("error code = %q, want %q", code, apperrors.CodeInvalidPricingState)
	}
}

func TestPayPriceTwiceConflicts(t *testing.T) {
	env := newTestEnv()
	client := env.addProfile("client-1", domain.RoleClient)
	admin := env.addProfile("admin-1", domain.RoleAdmin)
	ticket := env.addTicket(client.ID, domain.TicketStatusPending)
	ctx := context.Background()

	if _, err := env.pricingSvc.ProposePrice(ctx, ticket.ID, decimal.NewFromInt(10), admin.ID); err != nil {
		t.Fatalf("ProposePrice: %v", err)
	}
	if _, err := env.pricingSvc.RespondToPrice(ctx, ticket.ID, PriceDecisionAccept, client.ID); err != nil {
		t.Fatalf("RespondToPrice: %v", err)
	}
	if _, _, err := env.pricingSvc.PayPrice(ctx, ticket.ID, client.ID); err != nil {
		t.Fatalf("first PayPrice: %v", err)
	}

	// A second payment attempt finds the quote already paid.
	_, _, err := env.pricingSvc.PayPrice(ctx, ticket.ID, client.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidPricingState {
		t.Errorf("error code = %q, want %q", code, apperrors.CodeInvalidPricingState)
	}

	records, err := env.transactions.ListByClient(ctx, client.ID)
	if err != nil {
		t.Fatalf("ListByClient: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("transactions = %d, want exactly 1", len(records))
	}
}
