package welcome

import (
	"context"
	"log/slog"
)

// Status classifies the outcome of a sync attempt.
type Status string

const (
	// StatusDone means the subscriber is registered and tagged.
	StatusDone Status = "done"
	// StatusSkipped means there was nothing to do (no group configured, no email).
	StatusSkipped Status = "skipped"
	// StatusFailed is a soft failure: logged, never propagated into sign-in.
	StatusFailed Status = "failed"
)

// Result is the explicit success-or-soft-failure value returned by the sync.
// Callers log and continue; no outcome here may abort the sign-in flow.
type Result struct {
	Status Status
	Reason string
}

// Subscriber is the mailing-list side of the sync.
type Subscriber interface {
	UpsertSubscriber(ctx context.Context, email, name string) error
	AddToGroup(ctx context.Context, email, groupID string) error
}

// RepositoryPort stamps the persisted welcomed marker.
type RepositoryPort interface {
	// StampWelcomed sets welcomed_at when still unset and reports whether
	// this call performed the write.
	StampWelcomed(ctx context.Context, userID string) (bool, error)
}

// Service performs the idempotent welcome-list registration.
type Service struct {
	client  Subscriber
	repo    RepositoryPort
	groupID string
	logger  *slog.Logger
}

// NewService constructs a Service. An empty groupID turns Ensure into a no-op.
func NewService(client Subscriber, repo RepositoryPort, groupID string, logger *slog.Logger) *Service {
	return &Service{client: client, repo: repo, groupID: groupID, logger: logger}
}

// Ensure registers the email with the mailing list and tags it into the
// welcome group. Already-subscribed responses are success. Never returns an
// error: failures come back as StatusFailed for the caller to log.
func (s *Service) Ensure(ctx context.Context, email, name string) Result {
	if s.groupID == "" {
		return Result{Status: StatusSkipped, Reason: "welcome group id not configured"}
	}
	if email == "" {
		return Result{Status: StatusSkipped, Reason: "no email on record"}
	}
	if err := s.client.UpsertSubscriber(ctx, email, name); err != nil {
		return Result{Status: StatusFailed, Reason: err.Error()}
	}
	if err := s.client.AddToGroup(ctx, email, s.groupID); err != nil {
		return Result{Status: StatusFailed, Reason: err.Error()}
	}
	return Result{Status: StatusDone}
}

// Complete runs Ensure and, on success, stamps welcomed_at exactly once. On
// failure the stamp is left unset so a later sign-in retries the sync.
func (s *Service) Complete(ctx context.Context, userID, email, name string) Result {
	result := s.Ensure(ctx, email, name)
	if result.Status != StatusDone {
		return result
	}
	stamped, err := s.repo.StampWelcomed(ctx, userID)
	if err != nil {
		s.log().Error("stamp welcomed", slog.Any("error", err), slog.String("user_id", userID))
		return Result{Status: StatusFailed, Reason: "stamp welcomed: " + err.Error()}
	}
	if !stamped {
		// Already welcomed by an earlier call; the timestamp is write-once.
		return Result{Status: StatusDone, Reason: "already welcomed"}
	}
	return result
}

func (s *Service) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
