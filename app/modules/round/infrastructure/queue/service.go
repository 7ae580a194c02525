package roundqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
)

const metricsService = "river"

// Metrics interface (satisfied by observability.Metrics)
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// QueueService interface defines the contract for job scheduling operations
type QueueService interface {
	// ScheduleExpiry schedules the abandonment of a round at the given time
	ScheduleExpiry(ctx context.Context, roundID uuid.UUID, at time.Time) error
	// CancelRoundJobs cancels all scheduled jobs for a specific round
	CancelRoundJobs(ctx context.Context, roundID uuid.UUID) error
	// GetScheduledJobs returns information about scheduled jobs for a round (for debugging)
	GetScheduledJobs(ctx context.Context, roundID uuid.UUID) ([]JobInfo, error)
	// HealthCheck verifies the queue service is healthy
	HealthCheck(ctx context.Context) error
	// Start starts the queue service
	Start(ctx context.Context) error
	// Stop stops the queue service
	Stop(ctx context.Context) error
}

// Ensure Service implements QueueService
var _ QueueService = (*Service)(nil)

// Service handles job scheduling for the round module using River
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      *bun.DB
	metrics Metrics
}

// NewPool opens the pgx pool River runs on (River requires pgx, not database/sql).
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate applies River's schema migrations in the given direction.
func Migrate(ctx context.Context, pool *pgxpool.Pool, direction rivermigrate.Direction) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}

	opts := &rivermigrate.MigrateOpts{}
	if direction == rivermigrate.DirectionDown {
		opts.MaxSteps = 1
	}
	if _, err := migrator.Migrate(ctx, direction, opts); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	return nil
}

// NewService creates a River-based queue service for round expiry
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, metrics Metrics, expirer Expirer) (*Service, error) {
	ctxLogger := logger.With(
		slog.String("operation", "new_round_queue_service"),
		slog.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", metricsService)

	ctxLogger.Info("Initializing Round queue service")

	pool, err := NewPool(ctx, dsn)
	if err != nil {
		ctxLogger.Error("Failed to open pgx pool for River", slog.Any("error", err))
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, err
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewExpireRoundWorker(ctxLogger, expirer))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			QueueRound:         {MaxWorkers: 25},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", slog.Any("error", err))
		metrics.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	service := &Service{
		client:  riverClient,
		pool:    pool,
		logger:  ctxLogger,
		db:      bunDB,
		metrics: metrics,
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", metricsService)
	metrics.RecordOperationDuration(ctx, "initialize_service", metricsService, time.Since(start))

	ctxLogger.Info("Round queue service initialized successfully")
	return service, nil
}

// Start starts the River queue service
func (s *Service) Start(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "start_service", metricsService)

	s.logger.Info("Starting Round queue service")

	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "start_service", metricsService)
		return fmt.Errorf("failed to start River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "start_service", metricsService)
	s.metrics.RecordOperationDuration(ctx, "start_service", metricsService, time.Since(start))

	s.logger.Info("Round queue service started successfully")
	return nil
}

// Stop stops the River queue service and closes its pool
func (s *Service) Stop(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "stop_service", metricsService)

	s.logger.Info("Stopping Round queue service")
	defer s.pool.Close()

	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", metricsService)
		return fmt.Errorf("failed to stop River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "stop_service", metricsService)
	s.metrics.RecordOperationDuration(ctx, "stop_service", metricsService, time.Since(start))

	s.logger.Info("Round queue service stopped successfully")
	return nil
}

// ScheduleExpiry schedules an ExpireRoundJob. Times in the past run as soon
// as a worker is free.
func (s *Service) ScheduleExpiry(ctx context.Context, roundID uuid.UUID, at time.Time) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_round_expiry", metricsService)

	ctxLogger := s.logger.With(
		slog.String("round_id", roundID.String()),
		slog.Time("expire_at", at),
		slog.String("operation", "schedule_round_expiry"),
	)

	jobResult, err := s.client.Insert(ctx, ExpireRoundJob{RoundID: roundID.String()}, &river.InsertOpts{
		Queue:       QueueRound,
		ScheduledAt: at,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true, // Prevent duplicate scheduling for same round
		},
	})
	if err != nil {
		ctxLogger.Error("Failed to schedule round expiry job", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "schedule_round_expiry", metricsService)
		return fmt.Errorf("failed to schedule round expiry job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_round_expiry", metricsService)
	s.metrics.RecordOperationDuration(ctx, "schedule_round_expiry", metricsService, time.Since(start))

	ctxLogger.Info("Round expiry job scheduled",
		slog.Duration("delay", time.Until(at)),
		slog.Int64("job_id", jobResult.Job.ID),
		slog.Bool("duplicate", jobResult.UniqueSkippedAsDuplicate),
	)
	return nil
}

type riverJobRow struct {
	ID          int64          `bun:"id"`
	Kind        string         `bun:"kind"`
	State       string         `bun:"state"`
	Args        map[string]any `bun:"args,type:jsonb"`
	ScheduledAt *time.Time     `bun:"scheduled_at"`
	CreatedAt   time.Time      `bun:"created_at"`
	Attempt     int16          `bun:"attempt"`
	MaxAttempts int16          `bun:"max_attempts"`
}

// CancelRoundJobs cancels pending expiry jobs for a round
func (s *Service) CancelRoundJobs(ctx context.Context, roundID uuid.UUID) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "cancel_round_jobs", metricsService)

	ctxLogger := s.logger.With(
		slog.String("round_id", roundID.String()),
		slog.String("operation", "cancel_round_jobs"),
	)

	var jobs []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state").
		Where("kind = ?", KindExpireRound).
		Where("state IN (?, ?)", "available", "scheduled").
		Where("args->>'round_id' = ?", roundID.String()).
		Scan(ctx, &jobs)
	if err != nil {
		ctxLogger.Error("Failed to query jobs for cancellation", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "cancel_round_jobs", metricsService)
		return fmt.Errorf("failed to query jobs for cancellation: %w", err)
	}

	cancelled := 0
	for _, job := range jobs {
		if _, err := s.client.JobCancel(ctx, job.ID); err != nil {
			ctxLogger.Warn("Failed to cancel job",
				slog.Int64("job_id", job.ID),
				slog.String("job_kind", job.Kind),
				slog.Any("error", err))
			continue
		}
		cancelled++
	}

	if cancelled == len(jobs) {
		s.metrics.RecordOperationSuccess(ctx, "cancel_round_jobs", metricsService)
	} else {
		s.metrics.RecordOperationFailure(ctx, "cancel_round_jobs", metricsService)
	}
	s.metrics.RecordOperationDuration(ctx, "cancel_round_jobs", metricsService, time.Since(start))

	ctxLogger.Info("Jobs cancellation completed",
		slog.Int("total_found", len(jobs)),
		slog.Int("cancelled_count", cancelled))
	return nil
}

// GetScheduledJobs returns information about scheduled jobs for a round (for debugging)
func (s *Service) GetScheduledJobs(ctx context.Context, roundID uuid.UUID) ([]JobInfo, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "get_scheduled_jobs", metricsService)

	var jobs []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "scheduled_at", "created_at", "attempt", "max_attempts").
		Where("kind = ?", KindExpireRound).
		Where("args->>'round_id' = ?", roundID.String()).
		Order("scheduled_at ASC NULLS LAST", "created_at ASC").
		Scan(ctx, &jobs)
	if err != nil {
		s.logger.Error("Failed to query scheduled jobs",
			slog.String("round_id", roundID.String()),
			slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "get_scheduled_jobs", metricsService)
		return nil, fmt.Errorf("failed to query scheduled jobs: %w", err)
	}

	result := make([]JobInfo, len(jobs))
	for i, job := range jobs {
		result[i] = jobInfo(job, roundID)
	}

	s.metrics.RecordOperationSuccess(ctx, "get_scheduled_jobs", metricsService)
	s.metrics.RecordOperationDuration(ctx, "get_scheduled_jobs", metricsService, time.Since(start))
	return result, nil
}

func jobInfo(job riverJobRow, roundID uuid.UUID) JobInfo {
	scheduledAt := ""
	if job.ScheduledAt != nil {
		scheduledAt = job.ScheduledAt.Format(time.RFC3339)
	}
	return JobInfo{
		ID:          job.ID,
		Kind:        job.Kind,
		RoundID:     roundID.String(),
		State:       job.State,
		ScheduledAt: scheduledAt,
		CreatedAt:   job.CreatedAt.Format(time.RFC3339),
		Attempt:     int(job.Attempt),
		MaxAttempts: int(job.MaxAttempts),
	}
}

// HealthCheck verifies the queue service is healthy
func (s *Service) HealthCheck(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "health_check", metricsService)

	if s.client == nil {
		s.metrics.RecordOperationFailure(ctx, "health_check", metricsService)
		return fmt.Errorf("river client is nil")
	}

	var count int
	err := s.db.NewSelect().
		Table("river_job").
		ColumnExpr("COUNT(*)").
		Scan(ctx, &count)
	if err != nil {
		s.logger.Error("Queue service health check failed", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "health_check", metricsService)
		return fmt.Errorf("queue service health check failed: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "health_check", metricsService)
	s.metrics.RecordOperationDuration(ctx, "health_check", metricsService, time.Since(start))

	s.logger.Debug("Queue service health check passed", slog.Int("total_jobs", count))
	return nil
}
