package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/josh-kwaku/remittance-api/internal/domain"
)

const (
	jobTimeout = 30 * time.Second
	staleLimit = 100
)

type idempotencyPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type staleTransferLister interface {
	ListStale(ctx context.Context, status domain.TransferStatus, cutoff time.Time, limit int) ([]domain.Transfer, error)
}

type Config struct {
	IdempotencyCleanupSchedule string
	StaleScanSchedule          string
	StaleProcessingAfter       time.Duration
}

// Scheduler runs periodic housekeeping: purging expired idempotency records
// and reporting transfers stuck in processing.
type Scheduler struct {
	cron      *cron.Cron
	purger    idempotencyPurger
	transfers staleTransferLister
	logger    *slog.Logger
	config    Config
	now       func() time.Time
}

func NewScheduler(cfg Config, purger idempotencyPurger, transfers staleTransferLister, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	return &Scheduler{
		cron:      cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		purger:    purger,
		transfers: transfers,
		logger:    logger,
		config:    cfg,
		now:       time.Now,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.config.IdempotencyCleanupSchedule, s.PurgeIdempotencyKeys); err != nil {
		return fmt.Errorf("Start: idempotency cleanup %q: %w", s.config.IdempotencyCleanupSchedule, err)
	}
	s.logger.Info("scheduled idempotency cleanup job", "schedule", s.config.IdempotencyCleanupSchedule)

	if _, err := s.cron.AddFunc(s.config.StaleScanSchedule, s.ReportStaleTransfers); err != nil {
		return fmt.Errorf("Start: stale transfer scan %q: %w", s.config.StaleScanSchedule, err)
	}
	s.logger.Info("scheduled stale transfer scan", "schedule", s.config.StaleScanSchedule)

	s.cron.Start()
	return nil
}

// Stop halts scheduling; the returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) PurgeIdempotencyKeys() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.purger.PurgeExpired(ctx, s.now().UTC())
	if err != nil {
		s.logger.Error("idempotency cleanup failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("expired idempotency keys purged", "count", n)
	}
}

func (s *Scheduler) ReportStaleTransfers() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := s.now().UTC().Add(-s.config.StaleProcessingAfter)
	stale, err := s.transfers.ListStale(ctx, domain.TransferStatusProcessing, cutoff, staleLimit)
	if err != nil {
		s.logger.Error("stale transfer scan failed", "error", err)
		return
	}

	for _, t := range stale {
		s.logger.Warn("transfer stuck in processing",
			"transfer_id", t.ID,
			"reference", t.Reference,
			"since", t.UpdatedAt,
		)
	}
}
