package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	OwnerID    *string
	AssigneeID *string
	// AssignedOrPending widens an AssigneeID filter to also include
	// unassigned Pending tickets (the technician work queue view).
	AssignedOrPending bool
	Statuses          []domain.TicketStatus
	PriceStatuses     []domain.PriceStatus
	Category          *string
	SearchTerm        *string
	CreatedFrom       *time.Time
	CreatedTo         *time.Time
	Limit             int
	Offset            int
}

// TicketRepository encapsulates ticket persistence. Every state-dependent
// write is conditioned on the previously observed value; a lost race
// surfaces as ErrStaleRecord, a missing row as pgx.ErrNoRows.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, expected, next domain.TicketStatus) (*domain.Ticket, error)
	UpdateAssignment(ctx context.Context, id string, expectedAssignee *string, expectedStatus domain.TicketStatus, newAssignee *string, newStatus domain.TicketStatus) (*domain.Ticket, error)
	SetQuote(ctx context.Context, id string, expected *domain.PriceStatus, amount decimal.Decimal) (*domain.Ticket, error)
	SetQuoteDecision(ctx context.Context, id string, decision domain.PriceStatus) (*domain.Ticket, error)
	SetSolution(ctx context.Context, id, text string) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool        *pgxpool.Pool
	callTimeout time.Duration
}

// NewTicketRepository instantiates repository. Each call is bounded by
// callTimeout; a deadline miss surfaces as context.DeadlineExceeded for the
// service layer to classify.
func NewTicketRepository(pool *pgxpool.Pool, callTimeout time.Duration) TicketRepository {
	return &ticketRepository{pool: pool, callTimeout: callTimeout}
}

const ticketColumns = `id, owner_id, assigned_to, title, description, category, status,
       solution, attachment_ref, proposed_price, price_status, payment_date, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	const query = `
        INSERT INTO tickets (owner_id, assigned_to, title, description, category, status, attachment_ref, proposed_price, price_status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.OwnerID,
		ticket.AssignedTo,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Status,
		ticket.AttachmentRef,
		ticket.ProposedPrice,
		ticket.PriceStatus,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// UpdateStatus applies a guarded status move conditioned on the status the
// caller validated against.
func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, expected, next domain.TicketStatus) (*domain.Ticket, error) {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	query := fmt.Sprintf(`
        UPDATE tickets SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3
        RETURNING %s`, ticketColumns)
	ticket, err := r.scanOne(r.pool.QueryRow(ctx, query, next, id, expected))
	if err == pgx.ErrNoRows {
		return nil, r.classifyMiss(ctx, id)
	}
	return ticket, err
}

// UpdateAssignment swaps the (assignee, status) pair conditioned on both
// previously observed values, so two concurrent assigners cannot silently
// overwrite each other.
func (r *ticketRepository) UpdateAssignment(ctx context.Context, id string, expectedAssignee *string, expectedStatus domain.TicketStatus, newAssignee *string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	query := fmt.Sprintf(`
        UPDATE tickets SET assigned_to=$1, status=$2, updated_at=NOW()
        WHERE id=$3 AND assigned_to IS NOT DISTINCT FROM $4 AND status=$5
        RETURNING %s`, ticketColumns)
	ticket, err := r.scanOne(r.pool.QueryRow(ctx, query, newAssignee, newStatus, id, expectedAssignee, expectedStatus))
	if err == pgx.ErrNoRows {
		return nil, r.classifyMiss(ctx, id)
	}
	return ticket, err
}

// SetQuote records a proposed amount conditioned on the pricing state the
// caller observed (nil for "no quote yet").
func (r *ticketRepository) SetQuote(ctx context.Context, id string, expected *domain.PriceStatus, amount decimal.Decimal) (*domain.Ticket, error) {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	query := fmt.Sprintf(`
        UPDATE tickets SET proposed_price=$1, price_status=$2, updated_at=NOW()
        WHERE id=$3 AND price_status IS NOT DISTINCT FROM $4
        RETURNING %s`, ticketColumns)
	ticket, err := r.scanOne(r.pool.QueryRow(ctx, query, amount, domain.PriceStatusProposed, id, expected))
	if err == pgx.ErrNoRows {
		return nil, r.classifyMiss(ctx, id)
	}
	return ticket, err
}

// SetQuoteDecision moves a proposed quote to accepted or refused.
func (r *ticketRepository) SetQuoteDecision(ctx context.Context, id string, decision domain.PriceStatus) (*domain.Ticket, error) {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	query := fmt.Sprintf(`
        UPDATE tickets SET price_status=$1, updated_at=NOW()
        WHERE id=$2 AND price_status=$3
        RETURNING %s`, ticketColumns)
	ticket, err := r.scanOne(r.pool.QueryRow(ctx, query, decision, id, domain.PriceStatusProposed))
	if err == pgx.ErrNoRows {
		return nil, r.classifyMiss(ctx, id)
	}
	return ticket, err
}

// SetSolution writes the solution once; the condition enforces both the
// Resolved-only and the write-once rule in a single statement.
func (r *ticketRepository) SetSolution(ctx context.Context, id, text string) (*domain.Ticket, error) {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	query := fmt.Sprintf(`
        UPDATE tickets SET solution=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3 AND solution IS NULL
        RETURNING %s`, ticketColumns)
	ticket, err := r.scanOne(r.pool.QueryRow(ctx, query, text, id, domain.TicketStatusResolved))
	if err == pgx.ErrNoRows {
		return nil, r.classifyMiss(ctx, id)
	}
	return ticket, err
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		if filter.AssignedOrPending {
			args = append(args, domain.TicketStatusPending)
			clauses = append(clauses, fmt.Sprintf("(assigned_to=$%d OR (assigned_to IS NULL AND status=$%d))", len(args)-1, len(args)))
		} else {
			clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
		}
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.PriceStatuses) > 0 {
		placeholders := make([]string, len(filter.PriceStatuses))
		for i, ps := range filter.PriceStatuses {
			args = append(args, ps)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("price_status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// classifyMiss distinguishes a conditional update that lost a race from one
// whose target row never existed.
func (r *ticketRepository) classifyMiss(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrStaleRecord
	}
	return pgx.ErrNoRows
}

func (r *ticketRepository) scanOne(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.OwnerID,
		&ticket.AssignedTo,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Status,
		&ticket.Solution,
		&ticket.AttachmentRef,
		&ticket.ProposedPrice,
		&ticket.PriceStatus,
		&ticket.PaymentDate,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.OwnerID,
			&ticket.AssignedTo,
			&ticket.Title,
			&ticket.Description,
			&ticket.Category,
			&ticket.Status,
			&ticket.Solution,
			&ticket.AttachmentRef,
			&ticket.ProposedPrice,
			&ticket.PriceStatus,
			&ticket.PaymentDate,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
