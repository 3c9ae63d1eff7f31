package transfer

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/events"
	"github.com/josh-kwaku/remittance-api/internal/fx"
	"github.com/josh-kwaku/remittance-api/internal/settlement"
)

// memTransfers mimics the conditional status write of the Postgres repository.
type memTransfers struct {
	mu        sync.Mutex
	transfers map[uuid.UUID]domain.Transfer
	createErr error
}

func newMemTransfers() *memTransfers {
	return &memTransfers{transfers: map[uuid.UUID]domain.Transfer{}}
}

func (m *memTransfers) put(t domain.Transfer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers[t.ID] = t
}

func (m *memTransfers) status(id uuid.UUID) domain.TransferStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transfers[id].Status
}

func (m *memTransfers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transfers)
}

func (m *memTransfers) Create(_ context.Context, t *domain.Transfer) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.put(*t)
	return nil
}

func (m *memTransfers) GetByID(_ context.Context, id uuid.UUID) (*domain.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transfers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (m *memTransfers) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Transfer, error) {
	t, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (m *memTransfers) ListByUser(_ context.Context, userID uuid.UUID, filter domain.TransferFilter) ([]domain.Transfer, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transfer
	for _, t := range m.transfers {
		if t.UserID != userID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, t)
	}
	total := len(out)
	if filter.Offset >= total {
		return []domain.Transfer{}, total, nil
	}
	end := min(filter.Offset+filter.Limit, total)
	return out[filter.Offset:end], total, nil
}

func (m *memTransfers) TransitionStatus(_ context.Context, id uuid.UUID, change domain.StatusChange) (*domain.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transfers[id]
	if !ok || !slices.Contains(change.From, t.Status) {
		return nil, domain.ErrStatusConflict
	}
	if change.OwnerID != nil && *change.OwnerID != t.UserID {
		return nil, domain.ErrStatusConflict
	}

	t.Status = change.To
	if change.FailureReason != nil {
		t.FailureReason = change.FailureReason
	}
	if change.ExternalReference != nil {
		t.ExternalReference = change.ExternalReference
	}
	if change.CompletedAt != nil {
		t.CompletedAt = change.CompletedAt
	}
	m.transfers[id] = t
	return &t, nil
}

type memBeneficiaries struct {
	beneficiaries []domain.Beneficiary
}

func (m *memBeneficiaries) GetActiveForUser(_ context.Context, id, userID uuid.UUID) (*domain.Beneficiary, error) {
	for _, b := range m.beneficiaries {
		if b.ID == id && b.UserID == userID && b.IsActive {
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fixedRates struct {
	rate decimal.Decimal
	err  error
}

func (f fixedRates) GetRate(_ context.Context, from, to domain.Currency) (*fx.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fx.Quote{From: from, To: to, Rate: f.rate, Expiry: time.Now().Add(time.Hour)}, nil
}

type recordingQueue struct {
	mu        sync.Mutex
	submitted []uuid.UUID
	err       error
}

func (q *recordingQueue) Submit(id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.submitted = append(q.submitted, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TransferStatusEvent
}

func (p *recordingPublisher) PublishTransferStatus(_ context.Context, e events.TransferStatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Status)
	}
	return out
}

type stubGateway struct {
	outcome  *settlement.Outcome
	err      error
	onSettle func()
}

func (g *stubGateway) Settle(ctx context.Context, _ *domain.Transfer) (*settlement.Outcome, error) {
	if g.onSettle != nil {
		g.onSettle()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.outcome, g.err
}

var errBrokenStore = errors.New("store unavailable")
