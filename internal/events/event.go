package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/remittance-api/internal/domain"
)

const (
	TransfersExchange = "remittance.transfers"
	routingKeyPrefix  = "transfer."
)

type TransferStatusEvent struct {
	TransferID        uuid.UUID `json:"transfer_id"`
	Reference         string    `json:"reference"`
	UserID            uuid.UUID `json:"user_id"`
	Status            string    `json:"status"`
	FailureReason     *string   `json:"failure_reason,omitempty"`
	ExternalReference *string   `json:"external_reference,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

func NewTransferStatusEvent(t *domain.Transfer, at time.Time) TransferStatusEvent {
	return TransferStatusEvent{
		TransferID:        t.ID,
		Reference:         t.Reference,
		UserID:            t.UserID,
		Status:            string(t.Status),
		FailureReason:     t.FailureReason,
		ExternalReference: t.ExternalReference,
		OccurredAt:        at.UTC(),
	}
}

func (e TransferStatusEvent) RoutingKey() string {
	return routingKeyPrefix + e.Status
}

// Publisher emits transfer status changes to downstream consumers.
type Publisher interface {
	PublishTransferStatus(ctx context.Context, event TransferStatusEvent) error
	Close() error
}

// NopPublisher drops events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishTransferStatus(context.Context, TransferStatusEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
