package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Enqueuer submits background tasks triggered by sign-in.
type Enqueuer interface {
	EnqueueWelcomeSync(ctx context.Context, userID, email, name string) error
}

// Service resolves external identities to user accounts and derives the role
// snapshot carried by session tokens.
type Service struct {
	repo     Repository
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, enqueuer Enqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, enqueuer: enqueuer, logger: logger}
}

// SignIn resolves the external identity to an account. A first sign-in creates
// the account with role USER. An inactive account is denied via the boolean,
// not an error. Onboarding side effects run at most once: the welcome sync is
// only enqueued while welcomed_at is still unset.
func (s *Service) SignIn(ctx context.Context, id Identity) (*Session, bool, error) {
	user, err := s.repo.FindBySubject(ctx, id.Subject)
	if errors.Is(err, ErrNotFound) && id.Email != "" {
		user, err = s.repo.FindByEmail(ctx, id.Email)
	}

	switch {
	case err == nil:
		if !user.IsActive {
			return nil, false, nil
		}
	case errors.Is(err, ErrNotFound):
		user, err = s.repo.Create(ctx, User{
			ID:        uuid.NewString(),
			GoogleSub: id.Subject,
			Email:     id.Email,
			Name:      displayName(id),
			Image:     id.Picture,
			Role:      RoleUser,
			IsActive:  true,
		})
		if err != nil {
			return nil, false, err
		}
		if !user.IsActive {
			return nil, false, nil
		}
	default:
		return nil, false, err
	}

	if user.WelcomedAt == nil && user.Email != "" && s.enqueuer != nil {
		if err := s.enqueuer.EnqueueWelcomeSync(ctx, user.ID, user.Email, user.Name); err != nil {
			// Soft failure: the unset welcomed_at lets a later sign-in retry.
			s.log().Warn("enqueue welcome sync", slog.Any("error", err), slog.String("user_id", user.ID))
		}
	}

	return &Session{
		SubjectID: user.ID,
		Role:      user.Role,
		Name:      user.Name,
		Email:     user.Email,
		Image:     user.Image,
	}, true, nil
}

// RoleFor backfills the role claim for an already-issued token whose role is
// missing. Defaults to USER when no record exists; lookup failures also fall
// back to USER so a read hiccup never widens privileges.
func (s *Service) RoleFor(ctx context.Context, subjectID string) string {
	user, err := s.repo.FindByID(ctx, subjectID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log().Warn("role backfill lookup", slog.Any("error", err), slog.String("subject", subjectID))
		}
		return RoleUser
	}
	return user.Role
}

func (s *Service) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// displayName falls back to a title-cased form of the email local part when
// the provider sends no name.
func displayName(id Identity) string {
	if id.Name != "" {
		return id.Name
	}
	local, _, _ := strings.Cut(id.Email, "@")
	if local == "" {
		return ""
	}
	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	return cases.Title(language.English).String(strings.Join(words, " "))
}
