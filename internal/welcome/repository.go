package welcome

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// StampWelcomed sets welcomed_at once. The predicate keeps the column
// write-once without a read-modify-write cycle.
func (r *Repository) StampWelcomed(ctx context.Context, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET welcomed_at = now(), updated_at = now() WHERE id = $1 AND welcomed_at IS NULL`,
		userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
