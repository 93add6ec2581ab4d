package directory

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// RepositoryPort defines data access for the directory service.
type RepositoryPort interface {
	Count(ctx context.Context, query string) (int, error)
	Page(ctx context.Context, query string, limit, offset int) ([]User, error)
	// WithGuardTx runs fn inside a transaction strong enough that the
	// last-admin count and the update cannot interleave with a concurrent
	// self-demotion.
	WithGuardTx(ctx context.Context, fn func(TxRepository) error) error
}

// TxRepository is the transactional slice of the repository used by Update.
type TxRepository interface {
	CountOtherActiveAdmins(ctx context.Context, excludeID string) (int, error)
	UpdateUser(ctx context.Context, id string, role *string, isActive *bool) (*User, error)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service handles directory business logic. Authorization is the gate's job;
// the service trusts that the caller already passed the admin check.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// List returns the page of users matching the free-text query, matched as a
// substring of email or name. Page and size are clamped: page >= 1, size in
// [1, 100] with 20 when unspecified.
func (s *Service) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.Size
	if size == 0 {
		size = defaultPageSize
	}
	if size < 1 {
		size = 1
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	query := strings.TrimSpace(req.Query)

	var (
		total int
		users []User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, query)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.repo.Page(gctx, query, size, (page-1)*size)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return &ListResult{Total: total, Users: users, Page: page, Size: size}, nil
}

// Update applies a partial role/active update to the target user. A
// self-targeted demotion or deactivation is rejected with ErrLastAdmin when no
// other active admin exists; the guard and the mutation share one transaction
// so concurrent self-demotions cannot jointly empty the admin set.
func (s *Service) Update(ctx context.Context, actorID, targetID string, params UpdateParams) (*User, error) {
	if params.Role == nil && params.IsActive == nil {
		return nil, ErrNoFields
	}
	if err := s.validate.Struct(params); err != nil {
		return nil, ErrInvalidRole
	}

	var updated *User
	err := s.repo.WithGuardTx(ctx, func(tx TxRepository) error {
		selfDemotion := params.Role != nil && *params.Role != "ADMIN"
		selfDeactivation := params.IsActive != nil && !*params.IsActive
		if actorID == targetID && (selfDemotion || selfDeactivation) {
			others, err := tx.CountOtherActiveAdmins(ctx, targetID)
			if err != nil {
				return err
			}
			if others == 0 {
				return ErrLastAdmin
			}
		}
		var err error
		updated, err = tx.UpdateUser(ctx, targetID, params.Role, params.IsActive)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
