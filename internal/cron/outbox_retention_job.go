package cron

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/orderhub-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	defaultOutboxRetention = 30 * 24 * time.Hour
	outboxMinAttempts      = 10
	// dead letters outlive delivered rows so operators can inspect them
	dlqRetentionFactor = 3
)

// OutboxRetentionJobParams configure the outbox sweep. DLQ is optional.
type OutboxRetentionJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repository  outboxSweeper
	DLQ         deadLetterSweeper
	Retention   time.Duration
	MinAttempts int
}

type outboxSweeper interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type deadLetterSweeper interface {
	PurgeBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	db          txRunner
	events      outboxSweeper
	dlq         deadLetterSweeper
	retention   time.Duration
	minAttempts int
	now         func() time.Time
}

// NewOutboxRetentionJob builds the "outbox-retention" job. It removes
// delivered or exhausted outbox rows older than Retention and dead letters
// older than three times that window.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.DB == nil:
		return nil, errors.New("db runner required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:        params.Logger,
		db:          params.DB,
		events:      params.Repository,
		dlq:         params.DLQ,
		retention:   params.Retention,
		minAttempts: params.MinAttempts,
		now:         time.Now,
	}
	if job.retention <= 0 {
		job.retention = defaultOutboxRetention
	}
	if job.minAttempts <= 0 {
		job.minAttempts = outboxMinAttempts
	}
	return job, nil
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	eventCutoff := now.Add(-j.retention)
	dlqCutoff := now.Add(-j.retention * dlqRetentionFactor)

	var events, letters int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		if events, err = j.events.DeletePublishedBefore(ctx, tx, eventCutoff, j.minAttempts); err != nil {
			return err
		}
		if j.dlq == nil {
			return nil
		}
		letters, err = j.dlq.PurgeBefore(ctx, tx, dlqCutoff)
		return err
	})
	if err != nil {
		return err
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"event_cutoff":   eventCutoff,
		"dlq_cutoff":     dlqCutoff,
		"min_attempts":   j.minAttempts,
		"events_deleted": events,
		"dlq_deleted":    letters,
	}), "outbox sweep finished")
	return nil
}
