package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

// fakeTicketRepo is an in-memory TicketRepository with the same conditional
// write semantics as the Postgres implementation: a state-dependent update
// whose condition no longer holds returns ErrStaleRecord, and a missing row
// returns pgx.ErrNoRows.
type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = "ticket-" + strconv.Itoa(r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.OwnerID != nil && ticket.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.AssigneeID != nil {
			assignedToFilter := ticket.AssignedTo != nil && *ticket.AssignedTo == *filter.AssigneeID
			pendingUnassigned := ticket.AssignedTo == nil && ticket.Status == domain.TicketStatusPending
			if filter.AssignedOrPending {
				if !assignedToFilter && !pendingUnassigned {
					continue
				}
			} else if !assignedToFilter {
				continue
			}
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if filter.SearchTerm != nil {
			term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
			if !strings.Contains(strings.ToLower(ticket.Title), term) &&
				!strings.Contains(strings.ToLower(ticket.Description), term) {
				continue
			}
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (r *fakeTicketRepo) UpdateStatus(ctx context.Context, id string, expected, next domain.TicketStatus) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if ticket.Status != expected {
		return nil, repository.ErrStaleRecord
	}
	ticket.Status = next
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) UpdateAssignment(ctx context.Context, id string, expectedAssignee *string, expectedStatus domain.TicketStatus, newAssignee *string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if !samePointer(ticket.AssignedTo, expectedAssignee) || ticket.Status != expectedStatus {
		return nil, repository.ErrStaleRecord
	}
	ticket.AssignedTo = newAssignee
	ticket.Status = newStatus
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) SetQuote(ctx context.Context, id string, expected *domain.PriceStatus, amount decimal.Decimal) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if !samePriceStatus(ticket.PriceStatus, expected) {
		return nil, repository.ErrStaleRecord
	}
	proposed := domain.PriceStatusProposed
	ticket.ProposedPrice = decimal.NewNullDecimal(amount)
	ticket.PriceStatus = &proposed
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) SetQuoteDecision(ctx context.Context, id string, decision domain.PriceStatus) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if ticket.PriceStatus == nil || *ticket.PriceStatus != domain.PriceStatusProposed {
		return nil, repository.ErrStaleRecord
	}
	ticket.PriceStatus = &decision
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) SetSolution(ctx context.Context, id, text string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if ticket.Status != domain.TicketStatusResolved || ticket.Solution != nil {
		return nil, repository.ErrStaleRecord
	}
	ticket.Solution = &text
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	return &clone, nil
}

func samePointer(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func samePriceStatus(a, b *domain.PriceStatus) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// fakeCommentRepo appends comments under a lock; appends never overwrite.
type fakeCommentRepo struct {
	mu       sync.Mutex
	seq      int
	comments []domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{}
}

func (r *fakeCommentRepo) Append(ctx context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	comment.ID = "comment-" + strconv.Itoa(r.seq)
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Comment
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	return result, nil
}

// fakeTransactionRepo mirrors the single-transaction payment flip.
type fakeTransactionRepo struct {
	mu      sync.Mutex
	seq     int
	tickets *fakeTicketRepo
	records []domain.Transaction
}

func newFakeTransactionRepo(tickets *fakeTicketRepo) *fakeTransactionRepo {
	return &fakeTransactionRepo{tickets: tickets}
}

func (r *fakeTransactionRepo) RecordPayment(ctx context.Context, ticketID string) (*domain.Transaction, *domain.Ticket, error) {
	r.tickets.mu.Lock()
	defer r.tickets.mu.Unlock()
	ticket, ok := r.tickets.tickets[ticketID]
	if !ok {
		return nil, nil, pgx.ErrNoRows
	}
	if ticket.PriceStatus == nil || *ticket.PriceStatus != domain.PriceStatusAccepted {
		return nil, nil, repository.ErrStaleRecord
	}
	paid := domain.PriceStatusPaid
	now := time.Now()
	ticket.PriceStatus = &paid
	ticket.PaymentDate = &now
	ticket.UpdatedAt = now

	r.mu.Lock()
	r.seq++
	record := domain.Transaction{
		ID:           "tx-" + strconv.Itoa(r.seq),
		TicketID:     ticket.ID,
		ClientID:     ticket.OwnerID,
		TechnicianID: ticket.AssignedTo,
		Amount:       ticket.ProposedPrice.Decimal,
		PaidAt:       now,
	}
	r.records = append(r.records, record)
	r.mu.Unlock()

	clone := *ticket
	return &record, &clone, nil
}

func (r *fakeTransactionRepo) GetByTicket(ctx context.Context, ticketID string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].TicketID == ticketID {
			record := r.records[i]
			return &record, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTransactionRepo) ListByClient(ctx context.Context, clientID string) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Transaction
	for _, record := range r.records {
		if record.ClientID == clientID {
			result = append(result, record)
		}
	}
	return result, nil
}

// fakeProfileRepo stores profiles keyed by id.
type fakeProfileRepo struct {
	mu       sync.Mutex
	seq      int
	profiles map[string]*domain.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*domain.Profile)}
}

func (r *fakeProfileRepo) Create(ctx context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile.ID == "" {
		r.seq++
		profile.ID = "profile-" + strconv.Itoa(r.seq)
	}
	clone := *profile
	r.profiles[profile.ID] = &clone
	return nil
}

func (r *fakeProfileRepo) Update(ctx context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profile.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *profile
	r.profiles[profile.ID] = &clone
	return nil
}

func (r *fakeProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *profile
	return &clone, nil
}

func (r *fakeProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, profile := range r.profiles {
		if profile.Email == email {
			clone := *profile
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeProfileRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Profile
	for _, profile := range r.profiles {
		if profile.Role == role {
			result = append(result, *profile)
		}
	}
	return result, nil
}

// fakeAuditRepo collects entries for assertions.
type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = "audit-" + strconv.Itoa(len(r.entries)+1)
	entry.Timestamp = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.AuditEntry, len(r.entries))
	copy(result, r.entries)
	return result, nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []string
	for _, entry := range r.entries {
		result = append(result, entry.Action)
	}
	return result
}

// testEnv wires every service over the in-memory fakes.
type testEnv struct {
	tickets      *fakeTicketRepo
	comments     *fakeCommentRepo
	transactions *fakeTransactionRepo
	profiles     *fakeProfileRepo
	auditRepo    *fakeAuditRepo
	dispatcher   events.Dispatcher

	ticketSvc     *TicketService
	assignmentSvc *AssignmentService
	pricingSvc    *PricingService
	ledgerSvc     *LedgerService
}

func newTestEnv() *testEnv {
	tickets := newFakeTicketRepo()
	comments := newFakeCommentRepo()
	transactions := newFakeTransactionRepo(tickets)
	profiles := newFakeProfileRepo()
	auditRepo := newFakeAuditRepo()
	dispatcher := events.NewInMemoryDispatcher()

	guard := NewGuard()
	audit := NewAuditService(auditRepo, zap.NewNop())

	env := &testEnv{
		tickets:      tickets,
		comments:     comments,
		transactions: transactions,
		profiles:     profiles,
		auditRepo:    auditRepo,
		dispatcher:   dispatcher,
	}
	env.ticketSvc = NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		CommentRepo: comments,
		ProfileRepo: profiles,
		Guard:       guard,
		Audit:       audit,
		Dispatcher:  dispatcher,
	})
	env.assignmentSvc = NewAssignmentService(AssignmentDependencies{
		TicketRepo:  tickets,
		ProfileRepo: profiles,
		Guard:       guard,
		Audit:       audit,
		Dispatcher:  dispatcher,
	})
	env.pricingSvc = NewPricingService(PricingDependencies{
		TicketRepo:      tickets,
		TransactionRepo: transactions,
		ProfileRepo:     profiles,
		Guard:           guard,
		Audit:           audit,
		Dispatcher:      dispatcher,
	})
	env.ledgerSvc = NewLedgerService(LedgerDependencies{
		TicketRepo:  tickets,
		CommentRepo: comments,
		ProfileRepo: profiles,
		Guard:       guard,
		Audit:       audit,
		Dispatcher:  dispatcher,
	})
	return env
}

func (e *testEnv) addProfile(id string, role domain.Role) *domain.Profile {
	profile := &domain.Profile{
		ID:       id,
		Role:     role,
		FullName: id,
		Username: id,
		Email:    id + "@example.com",
	}
	_ = e.profiles.Create(context.Background(), profile)
	return profile
}

func (e *testEnv) addTicket(ownerID string, status domain.TicketStatus) *domain.Ticket {
	ticket := &domain.Ticket{
		OwnerID:     ownerID,
		Title:       "printer on fire",
		Description: "it prints but also burns",
		Status:      domain.TicketStatusPending,
	}
	_ = e.tickets.Create(context.Background(), ticket)
	if status != domain.TicketStatusPending {
		e.tickets.mu.Lock()
		e.tickets.tickets[ticket.ID].Status = status
		ticket.Status = status
		e.tickets.mu.Unlock()
	}
	return ticket
}
