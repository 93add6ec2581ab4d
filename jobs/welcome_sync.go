package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-site/meridian/internal/welcome"
)

// NewWelcomeSyncHandler processes TaskTypeWelcomeSync tasks. Mailing-list
// failures are soft: the welcomed marker stays unset and the next sign-in
// enqueues the sync again, so the task itself never retries.
func NewWelcomeSyncHandler(service *welcome.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload WelcomeSyncPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		result := service.Complete(ctx, payload.UserID, payload.Email, payload.Name)
		attrs := []any{
			slog.String("user_id", payload.UserID),
			slog.String("status", string(result.Status)),
		}
		if result.Reason != "" {
			attrs = append(attrs, slog.String("reason", result.Reason))
		}
		if result.Status == welcome.StatusFailed {
			logger.Warn("welcome sync", attrs...)
		} else {
			logger.Info("welcome sync", attrs...)
		}
		return nil
	}
}
