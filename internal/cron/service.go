package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/orderhub-backend/pkg/logger"
	"github.com/angelmondragon/orderhub-backend/pkg/metrics"
)

const (
	defaultInterval   = time.Hour
	defaultJobTimeout = 5 * time.Minute
)

// ServiceParams configure the cron service. Metrics is optional.
type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    *metrics.CronJobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service runs the registered jobs one after another, once per interval, on
// whichever replica holds the shared lock.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Lock == nil:
		return nil, errors.New("lock required")
	}
	svc := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if svc.registry == nil {
		svc.registry = &Registry{}
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	if svc.jobTimeout <= 0 {
		svc.jobTimeout = defaultJobTimeout
	}
	return svc, nil
}

// Run executes a cycle right away and then every interval until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := s.runCycle(ctx); err != nil {
			s.logg.Error(ctx, "scheduled run failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single cycle and returns the combined job failures.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.runCycle(ctx)
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.metrics.IncSkipped()
		s.logg.Info(s.withHolder(ctx), "another cron instance is running; skipping this cycle")
		return nil
	}
	defer func() {
		// released even when shutdown cancelled ctx mid-cycle
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	var failures error
	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			break
		}
		failures = multierr.Append(failures, s.runJob(ctx, job))
	}
	return failures
}

type holderReporter interface {
	Holder(ctx context.Context) (string, error)
}

func (s *Service) withHolder(ctx context.Context) context.Context {
	reporter, ok := s.lock.(holderReporter)
	if !ok {
		return ctx
	}
	if holder, err := reporter.Holder(ctx); err == nil && holder != "" {
		return s.logg.WithField(ctx, "lock_holder", holder)
	}
	return ctx
}

// runJob bounds the job by jobTimeout and turns a panic into an error so one
// broken job cannot take the rest of the cycle down.
func (s *Service) runJob(ctx context.Context, job Job) (err error) {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})
	jobCtx, cancel := context.WithTimeout(jobCtx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
		took := time.Since(start)
		s.metrics.ObserveRun(name, took, err)
		done := s.logg.WithField(jobCtx, "duration_ms", took.Milliseconds())
		if err != nil {
			err = fmt.Errorf("%s: %w", name, err)
			s.logg.Error(done, "job failed", err)
			return
		}
		s.logg.Info(done, "job completed")
	}()

	s.logg.Debug(jobCtx, "job start")
	return job.Run(jobCtx)
}
