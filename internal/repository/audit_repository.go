package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// AuditRepository stores the append-only audit trail.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	List(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error)
}

type auditRepository struct {
	pool        *pgxpool.Pool
	callTimeout time.Duration
}

// NewAuditRepository builds repository.
func NewAuditRepository(pool *pgxpool.Pool, callTimeout time.Duration) AuditRepository {
	return &auditRepository{pool: pool, callTimeout: callTimeout}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	const query = `
        INSERT INTO audit_logs (actor_id, action, detail)
        VALUES ($1,$2,$3)
        RETURNING id, timestamp`
	return r.pool.QueryRow(ctx, query,
		entry.ActorID,
		entry.Action,
		entry.Detail,
	).Scan(&entry.ID, &entry.Timestamp)
}

func (r *auditRepository) List(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	const query = `
        SELECT id, actor_id, action, detail, timestamp
        FROM audit_logs ORDER BY timestamp DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ActorID,
			&entry.Action,
			&entry.Detail,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
