package polls

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pollwise/backend/internal/models"
)

// ErrNotFound is returned when no poll matches the lookup.
var ErrNotFound = errors.New("poll not found")

// Repository handles poll persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a polls repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new poll. Question and options must already be sanitized.
func (r *Repository) Create(ctx context.Context, p *models.Poll) error {
	const query = `INSERT INTO polls (id, owner_id, question, options, share_slug)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, p.OwnerID, p.Question, p.Options, p.ShareSlug).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByID returns a poll by ID, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	const query = `SELECT id, owner_id, question, options, share_slug, created_at, updated_at
		FROM polls WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetBySlug returns a poll by its share slug, or ErrNotFound.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Poll, error) {
	const query = `SELECT id, owner_id, question, options, share_slug, created_at, updated_at
		FROM polls WHERE share_slug = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, slug))
}

// List returns all polls, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Poll, error) {
	const query = `SELECT id, owner_id, question, options, share_slug, created_at, updated_at
		FROM polls ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

// ListByOwner returns the owner's polls, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Poll, error) {
	const query = `SELECT id, owner_id, question, options, share_slug, created_at, updated_at
		FROM polls WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

// Update replaces a poll's question and options wholesale.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, question string, options []string) error {
	const query = `UPDATE polls SET question = $2, options = $3, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, question, options)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the poll row. The poll's votes must be removed first; see
// the handler's delete cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM polls WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) scanOne(row pgx.Row) (*models.Poll, error) {
	var p models.Poll
	err := row.Scan(&p.ID, &p.OwnerID, &p.Question, &p.Options, &p.ShareSlug, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanAll(rows pgx.Rows) ([]models.Poll, error) {
	defer rows.Close()
	var list []models.Poll
	for rows.Next() {
		var p models.Poll
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Question, &p.Options, &p.ShareSlug, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
