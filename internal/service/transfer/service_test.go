package transfer

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/remittance-api/internal/domain"
)

type harness struct {
	svc           *Service
	transfers     *memTransfers
	queue         *recordingQueue
	publisher     *recordingPublisher
	userID        uuid.UUID
	beneficiaryID uuid.UUID
}

func newHarness(t *testing.T, rate string) *harness {
	t.Helper()

	userID := uuid.New()
	account := "1234567890"
	b := domain.Beneficiary{
		ID:            uuid.New(),
		UserID:        userID,
		FirstName:     "Ada",
		LastName:      "Obi",
		Country:       "NG",
		Currency:      domain.CurrencyEUR,
		AccountNumber: account,
		AccountType:   domain.AccountTypeChecking,
		IsActive:      true,
	}

	h := &harness{
		transfers:     newMemTransfers(),
		queue:         &recordingQueue{},
		publisher:     &recordingPublisher{},
		userID:        userID,
		beneficiaryID: b.ID,
	}
	h.svc = NewService(
		h.transfers,
		&memBeneficiaries{beneficiaries: []domain.Beneficiary{b}},
		fixedRates{rate: decimal.RequireFromString(rate)},
		h.queue,
		h.publisher,
	)
	return h
}

func (h *harness) createRequest(amount string) CreateRequest {
	return CreateRequest{
		UserID:              h.userID,
		BeneficiaryID:       h.beneficiaryID,
		SourceAmount:        decimal.RequireFromString(amount),
		SourceCurrency:      domain.CurrencyUSD,
		DestinationCurrency: domain.CurrencyEUR,
		PaymentMethod:       domain.PaymentMethodBankTransfer,
	}
}

func TestCreateTransfer_PersistsPendingAndQueues(t *testing.T) {
	h := newHarness(t, "0.92")

	tr, err := h.svc.CreateTransfer(context.Background(), h.createRequest("100"))
	require.NoError(t, err)

	assert.Equal(t, domain.TransferStatusPending, tr.Status)
	assert.Equal(t, "92.00", tr.DestinationAmount.StringFixed(2))
	assert.Equal(t, "2.00", tr.Fee.StringFixed(2))
	assert.Equal(t, "102.00", tr.TotalCost().StringFixed(2))
	assert.Regexp(t, `^TXN[0-9A-Z]+[0-9A-F]{8}$`, tr.Reference)
	require.NotNil(t, tr.Beneficiary)
	assert.Equal(t, h.beneficiaryID, tr.Beneficiary.ID)

	assert.Equal(t, 1, h.transfers.count())
	assert.Equal(t, domain.TransferStatusPending, h.transfers.status(tr.ID))
	assert.Equal(t, []uuid.UUID{tr.ID}, h.queue.submitted)
}

func TestCreateTransfer_QueueFullStillReturnsTransfer(t *testing.T) {
	h := newHarness(t, "0.92")
	h.queue.err = domain.ErrQueueFull

	tr, err := h.svc.CreateTransfer(context.Background(), h.createRequest("100"))
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusPending, h.transfers.status(tr.ID))
}

func TestCreateTransfer_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(h *harness, r *CreateRequest)
		wantErr error
	}{
		{
			name:    "zero amount",
			mutate:  func(_ *harness, r *CreateRequest) { r.SourceAmount = decimal.Zero },
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			mutate:  func(_ *harness, r *CreateRequest) { r.SourceAmount = decimal.NewFromInt(-5) },
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "malformed currency",
			mutate:  func(_ *harness, r *CreateRequest) { r.DestinationCurrency = "eu" },
			wantErr: domain.ErrInvalidCurrency,
		},
		{
			name:    "unknown beneficiary",
			mutate:  func(_ *harness, r *CreateRequest) { r.BeneficiaryID = uuid.New() },
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "beneficiary of another user",
			mutate:  func(_ *harness, r *CreateRequest) { r.UserID = uuid.New() },
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "0.92")
			req := h.createRequest("100")
			tt.mutate(h, &req)

			_, err := h.svc.CreateTransfer(context.Background(), req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, h.transfers.count())
			assert.Empty(t, h.queue.submitted)
		})
	}
}

func TestCreateTransfer_InactiveBeneficiary(t *testing.T) {
	h := newHarness(t, "0.92")
	bens := h.svc.beneficiaries.(*memBeneficiaries)
	bens.beneficiaries[0].IsActive = false

	_, err := h.svc.CreateTransfer(context.Background(), h.createRequest("100"))
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, h.transfers.count())
}

func TestCreateTransfer_StoreFailure(t *testing.T) {
	h := newHarness(t, "0.92")
	h.transfers.createErr = errBrokenStore

	_, err := h.svc.CreateTransfer(context.Background(), h.createRequest("100"))
	require.ErrorIs(t, err, errBrokenStore)
	assert.Empty(t, h.queue.submitted)
}

func TestCancelTransfer(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.TransferStatus
		wantErr error
	}{
		{name: "pending", status: domain.TransferStatusPending},
		{name: "processing", status: domain.TransferStatusProcessing},
		{name: "completed", status: domain.TransferStatusCompleted, wantErr: domain.ErrInvalidState},
		{name: "failed", status: domain.TransferStatusFailed, wantErr: domain.ErrInvalidState},
		{name: "already cancelled", status: domain.TransferStatusCancelled, wantErr: domain.ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "0.92")
			tr := domain.Transfer{ID: uuid.New(), UserID: h.userID, Status: tt.status}
			h.transfers.put(tr)

			got, err := h.svc.CancelTransfer(context.Background(), h.userID, tr.ID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.status, h.transfers.status(tr.ID))
				assert.Empty(t, h.publisher.statuses())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.TransferStatusCancelled, got.Status)
			assert.Equal(t, []string{"cancelled"}, h.publisher.statuses())
		})
	}
}

func TestCancelTransfer_OtherUsersTransferIsNotFound(t *testing.T) {
	h := newHarness(t, "0.92")
	tr := domain.Transfer{ID: uuid.New(), UserID: uuid.New(), Status: domain.TransferStatusPending}
	h.transfers.put(tr)

	_, err := h.svc.CancelTransfer(context.Background(), h.userID, tr.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.TransferStatusPending, h.transfers.status(tr.ID))
}

func TestQuote(t *testing.T) {
	h := newHarness(t, "0.92")

	q, err := h.svc.Quote(context.Background(), decimal.NewFromInt(100), domain.CurrencyUSD, domain.CurrencyEUR)
	require.NoError(t, err)
	assert.Equal(t, "92.00", q.DestinationAmount.StringFixed(2))
	assert.Equal(t, "2.00", q.Fee.StringFixed(2))
	assert.Equal(t, "102.00", q.TotalCost.StringFixed(2))
	assert.Zero(t, h.transfers.count())

	_, err = h.svc.Quote(context.Background(), decimal.Zero, domain.CurrencyUSD, domain.CurrencyEUR)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestListTransfers_PaginationAndFilter(t *testing.T) {
	h := newHarness(t, "0.92")
	for i := 0; i < 5; i++ {
		status := domain.TransferStatusPending
		if i%2 == 0 {
			status = domain.TransferStatusCompleted
		}
		h.transfers.put(domain.Transfer{ID: uuid.New(), UserID: h.userID, Status: status})
	}
	h.transfers.put(domain.Transfer{ID: uuid.New(), UserID: uuid.New(), Status: domain.TransferStatusPending})

	page, err := h.svc.ListTransfers(context.Background(), h.userID, ListRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Transfers, 2)
	assert.Equal(t, Pagination{Total: 5, Page: 2, Limit: 2, Pages: 3}, page.Pagination)

	completed := domain.TransferStatusCompleted
	page, err = h.svc.ListTransfers(context.Background(), h.userID, ListRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, DefaultPageLimit, page.Pagination.Limit)

	page, err = h.svc.ListTransfers(context.Background(), h.userID, ListRequest{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageLimit, page.Pagination.Limit)

	bogus := domain.TransferStatus("lost")
	_, err = h.svc.ListTransfers(context.Background(), h.userID, ListRequest{Status: &bogus})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestGetReceipt_MasksAccountNumber(t *testing.T) {
	h := newHarness(t, "0.92")
	tr, err := h.svc.CreateTransfer(context.Background(), h.createRequest("100"))
	require.NoError(t, err)

	// The in-memory store does not join beneficiaries; attach it as the read path would.
	stored, _ := h.transfers.GetByID(context.Background(), tr.ID)
	stored.Beneficiary = tr.Beneficiary
	h.transfers.put(*stored)

	r, err := h.svc.GetReceipt(context.Background(), h.userID, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "******7890", r.AccountNumber)
	assert.Equal(t, "Ada Obi", r.BeneficiaryName)
	assert.Equal(t, "100.00 USD", r.SourceAmount)
	assert.Equal(t, "92.00 EUR", r.DestinationAmount)
	assert.Equal(t, "102.00 USD", r.TotalCost)
	assert.Len(t, r.VerificationHash, 64)

	_, err = h.svc.GetReceipt(context.Background(), uuid.New(), tr.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMaskAccountNumber(t *testing.T) {
	assert.Equal(t, "****5678", MaskAccountNumber("12345678"))
	assert.Equal(t, "1234", MaskAccountNumber("1234"))
	assert.Equal(t, "", MaskAccountNumber(""))
}

func TestNewReference_Unique(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ref, err := NewReference(now)
		require.NoError(t, err)
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestNewReference_Format(t *testing.T) {
	now := time.UnixMilli(1772366400123)

	ref, err := NewReference(now)
	require.NoError(t, err)
	require.Regexp(t, `^TXN[0-9A-Z]+[0-9A-F]{8}$`, ref)

	stamp := ref[len("TXN") : len(ref)-8]
	ms, err := strconv.ParseInt(stamp, 36, 64)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), ms)
}
