package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/mahadigital/schooldesk/internal/repositories"
	"github.com/mahadigital/schooldesk/internal/services"
)

const drainBatchSize = 25

// OutboxWorker periodically drains the email outbox, retrying messages the
// mail provider could not take at request time.
type OutboxWorker struct {
	queueRepo   *repositories.EmailQueueRepository
	email       services.EmailService
	logger      *slog.Logger
	interval    time.Duration
	maxAttempts int
	stopCh      chan struct{}
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(
	queueRepo *repositories.EmailQueueRepository,
	email services.EmailService,
	logger *slog.Logger,
	interval time.Duration,
	maxAttempts int,
) *OutboxWorker {
	return &OutboxWorker{
		queueRepo:   queueRepo,
		email:       email,
		logger:      logger,
		interval:    interval,
		maxAttempts: maxAttempts,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the periodic drain task
func (w *OutboxWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run immediately on startup
	w.drain(ctx)

	for {
		select {
		case <-ticker.C:
			w.drain(ctx)
		case <-w.stopCh:
			w.logger.Info("outbox worker stopped")
			return
		case <-ctx.Done():
			w.logger.Info("outbox worker context cancelled")
			return
		}
	}
}

// drain sends pending messages, one delivery attempt each per pass
func (w *OutboxWorker) drain(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	pending, err := w.queueRepo.ListPending(drainCtx, w.maxAttempts, drainBatchSize)
	if err != nil {
		w.logger.Error("failed to list pending outbox messages", slog.Any("error", err))
		return
	}
	if len(pending) == 0 {
		return
	}

	sent := 0
	for _, msg := range pending {
		if err := w.email.SendEmail(drainCtx, msg.ToEmail, msg.Subject, msg.Body); err != nil {
			w.logger.Warn("outbox delivery attempt failed",
				slog.String("email_id", msg.ID),
				slog.Int("attempt", msg.AttemptCount+1),
				slog.Any("error", err))
			if mErr := w.queueRepo.MarkAttemptFailed(drainCtx, msg.ID, err.Error(), w.maxAttempts); mErr != nil {
				w.logger.Error("failed to record outbox attempt", slog.String("email_id", msg.ID), slog.Any("error", mErr))
			}
			continue
		}
		if err := w.queueRepo.MarkSent(drainCtx, msg.ID); err != nil {
			w.logger.Error("failed to mark outbox message sent", slog.String("email_id", msg.ID), slog.Any("error", err))
			continue
		}
		sent++
	}

	w.logger.Info("outbox drain completed",
		slog.Int("pending", len(pending)),
		slog.Int("sent", sent))
}

// Stop signals the worker to stop
func (w *OutboxWorker) Stop() {
	close(w.stopCh)
}
