package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// ProfileRepository defines persistence access for accounts.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	Update(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.Profile, error)
}

type profileRepository struct {
	pool        *pgxpool.Pool
	callTimeout time.Duration
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool, callTimeout time.Duration) ProfileRepository {
	return &profileRepository{pool: pool, callTimeout: callTimeout}
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	const query = `
        INSERT INTO profiles (role, full_name, username, email, password_hash)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		profile.Role,
		profile.FullName,
		profile.Username,
		profile.Email,
		profile.PasswordHash,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	const query = `
        UPDATE profiles SET role=$1, full_name=$2, username=$3, email=$4, password_hash=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		profile.Role,
		profile.FullName,
		profile.Username,
		profile.Email,
		profile.PasswordHash,
		profile.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	const query = `
        SELECT id, role, full_name, username, email, password_hash, created_at, updated_at
        FROM profiles WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	const query = `
        SELECT id, role, full_name, username, email, password_hash, created_at, updated_at
        FROM profiles WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *profileRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Profile, error) {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	const query = `
        SELECT id, role, full_name, username, email, password_hash, created_at, updated_at
        FROM profiles WHERE role=$1 ORDER BY full_name ASC`
	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Profile
	for rows.Next() {
		var profile domain.Profile
		if err := rows.Scan(
			&profile.ID,
			&profile.Role,
			&profile.FullName,
			&profile.Username,
			&profile.Email,
			&profile.PasswordHash,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, profile)
	}
	return result, rows.Err()
}

func (r *profileRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Profile, error) {
	ctx, cancel := boundCall(ctx, r.callTimeout)
	defer cancel()
	var profile domain.Profile
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&profile.ID,
		&profile.Role,
		&profile.FullName,
		&profile.Username,
		&profile.Email,
		&profile.PasswordHash,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}
