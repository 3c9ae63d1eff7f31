package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/events"
	"github.com/josh-kwaku/remittance-api/internal/fx"
	"github.com/josh-kwaku/remittance-api/internal/settlement"
)

type transferRepo interface {
	Create(ctx context.Context, t *domain.Transfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Transfer, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter domain.TransferFilter) ([]domain.Transfer, int, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, change domain.StatusChange) (*domain.Transfer, error)
}

type beneficiaryRepo interface {
	GetActiveForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Beneficiary, error)
}

type rateProvider interface {
	GetRate(ctx context.Context, from, to domain.Currency) (*fx.Quote, error)
}

type paymentGateway interface {
	Settle(ctx context.Context, t *domain.Transfer) (*settlement.Outcome, error)
}

type taskQueue interface {
	Submit(transferID uuid.UUID) error
}

type eventPublisher interface {
	PublishTransferStatus(ctx context.Context, event events.TransferStatusEvent) error
}

type Service struct {
	transfers     transferRepo
	beneficiaries beneficiaryRepo
	rates         rateProvider
	queue         taskQueue
	events        eventPublisher
	now           func() time.Time
	newReference  func(time.Time) (string, error)
}

func NewService(
	transfers transferRepo,
	beneficiaries beneficiaryRepo,
	rates rateProvider,
	queue taskQueue,
	publisher eventPublisher,
) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		transfers:     transfers,
		beneficiaries: beneficiaries,
		rates:         rates,
		queue:         queue,
		events:        publisher,
		now:           time.Now,
		newReference:  NewReference,
	}
}
