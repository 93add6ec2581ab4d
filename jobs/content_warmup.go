package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-site/meridian/internal/content"
)

// NewContentWarmupHandler processes TaskTypeContentWarmup tasks by refreshing
// the content list caches ahead of their expiry.
func NewContentWarmupHandler(service *content.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := service.Warm(ctx); err != nil {
			logger.Warn("content warmup", slog.Any("error", err))
			return err
		}
		logger.Info("content warmup complete")
		return nil
	}
}
