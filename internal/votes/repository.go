package votes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pollwise/backend/internal/models"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint errors.
const uniqueViolation = "23505"

// Repository handles vote persistence. Votes are append-only; the only
// deletion path is the poll delete cascade.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a votes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends a vote. The partial unique index on (poll_id, voter_id)
// closes the race between concurrent casts by the same voter; a constraint
// violation surfaces as ErrAlreadyVoted regardless of what the application-
// level check saw.
func (r *Repository) Insert(ctx context.Context, v *models.Vote) error {
	const query = `INSERT INTO votes (id, poll_id, voter_id, option_index)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query, v.PollID, v.VoterID, v.OptionIndex).
		Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyVoted
		}
		return err
	}
	return nil
}

// HasVoted reports whether the voter already voted in the poll, and for
// which option.
func (r *Repository) HasVoted(ctx context.Context, pollID, voterID uuid.UUID) (bool, int, error) {
	const query = `SELECT option_index FROM votes WHERE poll_id = $1 AND voter_id = $2`
	var optionIndex int
	err := r.pool.QueryRow(ctx, query, pollID, voterID).Scan(&optionIndex)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	return true, optionIndex, nil
}

// CountByOption returns vote counts keyed by option index for a poll.
func (r *Repository) CountByOption(ctx context.Context, pollID uuid.UUID) (map[int]int64, error) {
	const query = `SELECT option_index, COUNT(*) FROM votes WHERE poll_id = $1 GROUP BY option_index`
	rows, err := r.pool.Query(ctx, query, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var idx int
		var n int64
		if err := rows.Scan(&idx, &n); err != nil {
			return nil, err
		}
		counts[idx] = n
	}
	return counts, rows.Err()
}

// DeleteByPoll removes all votes for a poll and returns how many went. Step
// one of the poll delete cascade.
func (r *Repository) DeleteByPoll(ctx context.Context, pollID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM votes WHERE poll_id = $1`, pollID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
