package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/logging"
)

// CancelTransfer moves a pending or processing transfer owned by userID to
// cancelled. A settlement that finishes afterwards cannot overwrite it.
func (s *Service) CancelTransfer(ctx context.Context, userID, id uuid.UUID) (*domain.Transfer, error) {
	t, err := s.transfers.TransitionStatus(ctx, id, domain.StatusChange{
		To:      domain.TransferStatusCancelled,
		From:    domain.SourcesFor(domain.TransferStatusCancelled),
		OwnerID: &userID,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrStatusConflict) {
			return nil, fmt.Errorf("CancelTransfer: %w", err)
		}
		if _, getErr := s.transfers.GetForUser(ctx, id, userID); getErr != nil {
			return nil, fmt.Errorf("CancelTransfer: %w", getErr)
		}
		return nil, fmt.Errorf("CancelTransfer: %w", domain.ErrInvalidState)
	}

	logging.FromContext(ctx).Info("transfer cancelled", "transfer_id", t.ID, "reference", t.Reference)
	publishStatus(ctx, s.events, t, s.now())
	return t, nil
}
