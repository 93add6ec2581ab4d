package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no user record matches the lookup.
var ErrNotFound = errors.New("auth: user not found")

// Repository defines persistence for user accounts resolved at sign-in.
type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindBySubject(ctx context.Context, sub string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user User) (*User, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, google_sub, COALESCE(email, ''), COALESCE(name, ''), COALESCE(image, ''), role, is_active, welcomed_at, created_at, updated_at`

// FindByID fetches a user by its stable id.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindBySubject fetches a user by the external identity subject.
func (r *PGRepository) FindBySubject(ctx context.Context, sub string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE google_sub = $1`, sub)
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// Create inserts the account created on first sign-in. A unique violation
// means a concurrent first sign-in won the insert; the existing row is
// returned so the effect stays exactly-once.
func (r *PGRepository) Create(ctx context.Context, user User) (*User, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, google_sub, email, name, image, role, is_active)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7)`,
		user.ID, user.GoogleSub, user.Email, user.Name, user.Image, user.Role, user.IsActive,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return r.FindBySubject(ctx, user.GoogleSub)
		}
		return nil, err
	}
	return r.FindByID(ctx, user.ID)
}

func (r *PGRepository) findOne(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.GoogleSub, &user.Email, &user.Name, &user.Image,
		&user.Role, &user.IsActive, &user.WelcomedAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
