package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/events"
	"github.com/josh-kwaku/remittance-api/internal/logging"
)

const finalWriteTimeout = 5 * time.Second

type settlementRepo interface {
	TransitionStatus(ctx context.Context, id uuid.UUID, change domain.StatusChange) (*domain.Transfer, error)
}

// Settler runs one transfer through the gateway. It is invoked by the
// settlement worker pool, never on the request path.
type Settler struct {
	transfers settlementRepo
	gateway   paymentGateway
	events    eventPublisher
	now       func() time.Time
}

func NewSettler(transfers settlementRepo, gateway paymentGateway, publisher eventPublisher) *Settler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Settler{
		transfers: transfers,
		gateway:   gateway,
		events:    publisher,
		now:       time.Now,
	}
}

func (s *Settler) SettleTransfer(ctx context.Context, id uuid.UUID) error {
	log := logging.FromContext(ctx)

	t, err := s.transfers.TransitionStatus(ctx, id, domain.StatusChange{
		To:   domain.TransferStatusProcessing,
		From: []domain.TransferStatus{domain.TransferStatusPending},
	})
	if err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			log.Info("transfer no longer pending, settlement skipped", "transfer_id", id)
			return nil
		}
		return fmt.Errorf("SettleTransfer: mark processing: %w", err)
	}

	outcome, err := s.gateway.Settle(ctx, t)
	if err != nil && ctx.Err() != nil {
		log.Warn("settlement interrupted, transfer left processing", "transfer_id", id, "error", err)
		return fmt.Errorf("SettleTransfer: %w", err)
	}

	change := domain.StatusChange{From: []domain.TransferStatus{domain.TransferStatusProcessing}}
	if err != nil {
		reason := err.Error()
		change.To = domain.TransferStatusFailed
		change.FailureReason = &reason
	} else {
		completedAt := outcome.ProcessedAt.UTC()
		change.To = domain.TransferStatusCompleted
		change.ExternalReference = &outcome.ExternalReference
		change.CompletedAt = &completedAt
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalWriteTimeout)
	defer cancel()

	final, err := s.transfers.TransitionStatus(writeCtx, id, change)
	if err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			log.Info("transfer cancelled during settlement, outcome discarded",
				"transfer_id", id,
				"outcome", change.To,
			)
			return nil
		}
		return fmt.Errorf("SettleTransfer: mark %s: %w", change.To, err)
	}

	if final.Status == domain.TransferStatusFailed {
		log.Warn("transfer failed", "transfer_id", id, "reason", *final.FailureReason)
	} else {
		log.Info("transfer completed", "transfer_id", id, "external_reference", *final.ExternalReference)
	}
	publishStatus(writeCtx, s.events, final, s.now())
	return nil
}

func publishStatus(ctx context.Context, pub eventPublisher, t *domain.Transfer, at time.Time) {
	if err := pub.PublishTransferStatus(ctx, events.NewTransferStatusEvent(t, at)); err != nil {
		logging.FromContext(ctx).Warn("transfer status event not published",
			"transfer_id", t.ID,
			"status", t.Status,
			"error", err,
		)
	}
}
