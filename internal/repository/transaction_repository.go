package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// TransactionRepository stores immutable payment records. RecordPayment is
// the only multi-record write in the engine: the transaction insert and the
// ticket flip to paid happen inside one database transaction so a paid
// ticket always has exactly one matching transaction row.
type TransactionRepository interface {
	RecordPayment(ctx context.Context, ticketID string) (*domain.Transaction, *domain.Ticket, error)
	GetByTicket(ctx context.Context, ticketID string) (*domain.Transaction, error)
	ListByClient(ctx context.Context, clientID string) ([]domain.Transaction, error)
}

type transactionRepository struct {
	pool        *pgxpool.Pool
	callTimeout time.Duration
}

// NewTransactionRepository builds repository.
func NewTransactionRepository(pool *pgxpool.Pool, callTimeout time.Duration) TransactionRepository {
	return &transactionRepository{pool: pool, callTimeout: callTimeout}
}

func (r *transactionRepository) RecordPayment(ctx context.Context, ticketID string) (*domain.Transaction, *domain.Ticket, error) {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	updateQuery := fmt.Sprintf(`
        UPDATE tickets SET price_status=$1, payment_date=NOW(), updated_at=NOW()
        WHERE id=$2 AND price_status=$3
        RETURNING %s`, ticketColumns)
	var ticket domain.Ticket
	if err := tx.QueryRow(ctx, updateQuery, domain.PriceStatusPaid, ticketID, domain.PriceStatusAccepted).Scan(
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
		if err == pgx.ErrNoRows {
			return nil, nil, r.classifyMiss(ctx, ticketID)
		}
		return nil, nil, err
	}

	record := &domain.Transaction{
		TicketID:     ticket.ID,
		ClientID:     ticket.OwnerID,
		TechnicianID: ticket.AssignedTo,
		Amount:       ticket.ProposedPrice.Decimal,
	}
	const insertQuery = `
        INSERT INTO transactions (ticket_id, client_id, technician_id, amount, paid_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, paid_at`
	if err := tx.QueryRow(ctx, insertQuery,
		record.TicketID,
		record.ClientID,
		record.TechnicianID,
		record.Amount,
		ticket.PaymentDate,
	).Scan(&record.ID, &record.PaidAt); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrPartialWrite, err)
	}
	return record, &ticket, nil
}

func (r *transactionRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.Transaction, error) {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	const query = `
        SELECT id, ticket_id, client_id, technician_id, amount, paid_at
        FROM transactions WHERE ticket_id=$1`
	var record domain.Transaction
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&record.ID,
		&record.TicketID,
		&record.ClientID,
		&record.TechnicianID,
		&record.Amount,
		&record.PaidAt,
	); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *transactionRepository) ListByClient(ctx context.Context, clientID string) ([]domain.Transaction, error) {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	const query = `
        SELECT id, ticket_id, client_id, technician_id, amount, paid_at
        FROM transactions WHERE client_id=$1 ORDER BY paid_at DESC`
	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		var record domain.Transaction
		if err := rows.Scan(
			&record.ID,
			&record.TicketID,
			&record.ClientID,
			&record.TechnicianID,
			&record.Amount,
			&record.PaidAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (r *transactionRepository) classifyMiss(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrStaleRecord
	}
	return pgx.ErrNoRows
}
