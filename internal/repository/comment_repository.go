package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// CommentRepository manages the append-only comment collection. Appends are
// single INSERTs into their own table; concurrent commenters cannot lose
// each other's rows.
type CommentRepository interface {
	Append(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

type commentRepository struct {
	pool        *pgxpool.Pool
	callTimeout time.Duration
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool, callTimeout time.Duration) CommentRepository {
	return &commentRepository{pool: pool, callTimeout: callTimeout}
}

func (r *commentRepository) Append(ctx context.Context, comment *domain.Comment) error {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	const query = `
        INSERT INTO ticket_comments (ticket_id, author_id, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.Body,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	const query = `
        SELECT id, ticket_id, author_id, body, created_at
        FROM ticket_comments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.Body,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
