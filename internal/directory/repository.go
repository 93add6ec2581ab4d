package directory

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-site/meridian/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const matchClause = `($1 = '' OR email ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%')`

// Count returns the number of users matching the query.
func (r *Repository) Count(ctx context.Context, query string) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE `+matchClause, query).Scan(&total)
	return total, err
}

// Page returns one page of matching users ordered by email ascending.
func (r *Repository) Page(ctx context.Context, query string, limit, offset int) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, COALESCE(name, ''), COALESCE(email, ''), role, is_active
		 FROM users
		 WHERE `+matchClause+`
		 ORDER BY email ASC NULLS LAST, id ASC
		 LIMIT $2 OFFSET $3`,
		query, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.IsActive); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// WithGuardTx runs fn inside a serializable transaction, retrying once when
// postgres aborts it with a serialization failure.
func (r *Repository) WithGuardTx(ctx context.Context, fn func(TxRepository) error) error {
	err := r.runGuardTx(ctx, fn)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "40001" {
		return r.runGuardTx(ctx, fn)
	}
	return err
}

func (r *Repository) runGuardTx(ctx context.Context, fn func(TxRepository) error) error {
	return db.WithSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

// CountOtherActiveAdmins counts active ADMIN rows excluding the given id.
func (t *txRepository) CountOtherActiveAdmins(ctx context.Context, excludeID string) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE role = 'ADMIN' AND is_active = TRUE AND id <> $1`,
		excludeID,
	).Scan(&count)
	return count, err
}

// UpdateUser applies the partial update and returns the updated projection.
func (t *txRepository) UpdateUser(ctx context.Context, id string, role *string, isActive *bool) (*User, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	if role != nil {
		args = append(args, *role)
		sets = append(sets, "role = $"+strconv.Itoa(len(args)))
	}
	if isActive != nil {
		args = append(args, *isActive)
		sets = append(sets, "is_active = $"+strconv.Itoa(len(args)))
	}

	var user User
	err := t.tx.QueryRow(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+`
		 WHERE id = $1
		 RETURNING id, COALESCE(name, ''), COALESCE(email, ''), role, is_active`,
		args...,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
