package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/orderhub-backend/pkg/logger"
)

type tokenCleanupRepo interface {
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// NewTokenCleanupJob purges expired confirmation and password-reset tokens.
func NewTokenCleanupJob(logg *logger.Logger, repo tokenCleanupRepo) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &tokenCleanupJob{logg: logg, repo: repo, now: time.Now}, nil
}

type tokenCleanupJob struct {
	logg *logger.Logger
	repo tokenCleanupRepo
	now  func() time.Time
}

func (j *tokenCleanupJob) Name() string { return "token-cleanup" }

func (j *tokenCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.repo.DeleteExpiredTokens(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("token cleanup: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "rows_deleted", deleted), "expired tokens removed")
	return nil
}
