package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/service/transfer"
)

type transferService interface {
	CreateTransfer(ctx context.Context, req transfer.CreateRequest) (*domain.Transfer, error)
	ListTransfers(ctx context.Context, userID uuid.UUID, req transfer.ListRequest) (*transfer.Page, error)
	GetTransfer(ctx context.Context, userID, id uuid.UUID) (*domain.Transfer, error)
	GetReceipt(ctx context.Context, userID, id uuid.UUID) (*transfer.Receipt, error)
	CancelTransfer(ctx context.Context, userID, id uuid.UUID) (*domain.Transfer, error)
	Quote(ctx context.Context, amount decimal.Decimal, from, to domain.Currency) (*transfer.Quote, error)
}

type TransferHandler struct {
	transfers transferService
}

func NewTransferHandler(transfers transferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

type createTransferRequest struct {
	BeneficiaryID       string          `json:"beneficiaryId" validate:"required,uuid"`
	SourceAmount        decimal.Decimal `json:"sourceAmount" validate:"gt=0,lte=100000"`
	SourceCurrency      string          `json:"sourceCurrency" validate:"required,currency"`
	DestinationCurrency string          `json:"destinationCurrency" validate:"required,currency"`
	PaymentMethod       string          `json:"paymentMethod" validate:"omitempty,oneof=bank_transfer card wallet"`
	Purpose             *string         `json:"purpose" validate:"omitempty,max=200"`
	Notes               *string         `json:"notes" validate:"omitempty,max=500"`
}

type quoteRequest struct {
	Amount              decimal.Decimal `json:"amount" validate:"gt=0,lte=100000"`
	SourceCurrency      string          `json:"sourceCurrency" validate:"required,currency"`
	DestinationCurrency string          `json:"destinationCurrency" validate:"required,currency"`
}

type transferBeneficiaryDTO struct {
	ID            uuid.UUID `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Country       string    `json:"country"`
	AccountNumber string    `json:"accountNumber,omitempty"`
	BankName      *string   `json:"bankName,omitempty"`
}

type transferDTO struct {
	ID                  uuid.UUID               `json:"id"`
	Reference           string                  `json:"reference"`
	BeneficiaryID       uuid.UUID               `json:"beneficiaryId"`
	SourceAmount        string                  `json:"sourceAmount"`
	SourceCurrency      string                  `json:"sourceCurrency"`
	DestinationAmount   string                  `json:"destinationAmount"`
	DestinationCurrency string                  `json:"destinationCurrency"`
	ExchangeRate        string                  `json:"exchangeRate"`
	Fee                 string                  `json:"fee"`
	TotalCost           string                  `json:"totalCost"`
	PaymentMethod       string                  `json:"paymentMethod"`
	Status              string                  `json:"status"`
	Purpose             *string                 `json:"purpose,omitempty"`
	Notes               *string                 `json:"notes,omitempty"`
	FailureReason       *string                 `json:"failureReason,omitempty"`
	ExternalReference   *string                 `json:"externalReference,omitempty"`
	CreatedAt           time.Time               `json:"createdAt"`
	UpdatedAt           time.Time               `json:"updatedAt"`
	CompletedAt         *time.Time              `json:"completedAt,omitempty"`
	Beneficiary         *transferBeneficiaryDTO `json:"beneficiary,omitempty"`
}

func toTransferDTO(t *domain.Transfer) transferDTO {
	dto := transferDTO{
		ID:                  t.ID,
		Reference:           t.Reference,
		BeneficiaryID:       t.BeneficiaryID,
		SourceAmount:        t.SourceAmount.StringFixed(2),
		SourceCurrency:      string(t.SourceCurrency),
		DestinationAmount:   t.DestinationAmount.StringFixed(2),
		DestinationCurrency: string(t.DestinationCurrency),
		ExchangeRate:        t.ExchangeRate.String(),
		Fee:                 t.Fee.StringFixed(2),
		TotalCost:           t.TotalCost().StringFixed(2),
		PaymentMethod:       string(t.PaymentMethod),
		Status:              string(t.Status),
		Purpose:             t.Purpose,
		Notes:               t.Notes,
		FailureReason:       t.FailureReason,
		ExternalReference:   t.ExternalReference,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
		CompletedAt:         t.CompletedAt,
	}
	if b := t.Beneficiary; b != nil {
		dto.Beneficiary = &transferBeneficiaryDTO{
			ID:            b.ID,
			FirstName:     b.FirstName,
			LastName:      b.LastName,
			Country:       b.Country,
			AccountNumber: transfer.MaskAccountNumber(b.AccountNumber),
			BankName:      b.BankName,
		}
	}
	return dto
}

type paginationDTO struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

type transferListResponse struct {
	Transfers  []transferDTO `json:"transfers"`
	Pagination paginationDTO `json:"pagination"`
}

type receiptDTO struct {
	TransferID        uuid.UUID        `json:"transferId"`
	Reference         string           `json:"reference"`
	Status            string           `json:"status"`
	Date              time.Time        `json:"date"`
	CompletedAt       *time.Time       `json:"completedAt,omitempty"`
	ExternalReference *string          `json:"externalReference,omitempty"`
	Amount            receiptAmountDTO `json:"amount"`
	Beneficiary       receiptPartyDTO  `json:"beneficiary"`
	VerificationHash  string           `json:"verificationHash"`
}

type receiptAmountDTO struct {
	Source       string `json:"source"`
	Destination  string `json:"destination"`
	ExchangeRate string `json:"exchangeRate"`
	Fee          string `json:"fee"`
	TotalCost    string `json:"totalCost"`
}

type receiptPartyDTO struct {
	Name          string `json:"name"`
	Country       string `json:"country"`
	AccountNumber string `json:"accountNumber"`
}

type quoteDTO struct {
	SourceAmount        string    `json:"sourceAmount"`
	SourceCurrency      string    `json:"sourceCurrency"`
	DestinationAmount   string    `json:"destinationAmount"`
	DestinationCurrency string    `json:"destinationCurrency"`
	ExchangeRate        string    `json:"exchangeRate"`
	Fee                 string    `json:"fee"`
	TotalCost           string    `json:"totalCost"`
	RateExpiry          time.Time `json:"rateExpiry"`
}

func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createTransferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	method := domain.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = domain.PaymentMethodBankTransfer
	}

	t, err := h.transfers.CreateTransfer(r.Context(), transfer.CreateRequest{
		UserID:              userID,
		BeneficiaryID:       uuid.MustParse(req.BeneficiaryID),
		SourceAmount:        req.SourceAmount,
		SourceCurrency:      domain.Currency(req.SourceCurrency),
		DestinationCurrency: domain.Currency(req.DestinationCurrency),
		PaymentMethod:       method,
		Purpose:             req.Purpose,
		Notes:               req.Notes,
	})
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toTransferDTO(t))
}

func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	req, fields := parseListQuery(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	page, err := h.transfers.ListTransfers(r.Context(), userID, req)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	resp := transferListResponse{
		Transfers: make([]transferDTO, 0, len(page.Transfers)),
		Pagination: paginationDTO{
			Total: page.Pagination.Total,
			Page:  page.Pagination.Page,
			Limit: page.Pagination.Limit,
			Pages: page.Pagination.Pages,
		},
	}
	for i := range page.Transfers {
		resp.Transfers = append(resp.Transfers, toTransferDTO(&page.Transfers[i]))
	}
	RespondSuccess(w, http.StatusOK, resp)
}

func parseListQuery(r *http.Request) (transfer.ListRequest, []FieldError) {
	var (
		req    transfer.ListRequest
		fields []FieldError
	)
	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fields = append(fields, FieldError{Field: "page", Message: "must be a positive integer"})
		}
		req.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fields = append(fields, FieldError{Field: "limit", Message: "must be a positive integer"})
		}
		req.Limit = n
	}
	if v := q.Get("status"); v != "" {
		status := domain.TransferStatus(v)
		if !status.IsValid() {
			fields = append(fields, FieldError{
				Field:   "status",
				Message: "must be one of: pending, processing, completed, failed, cancelled",
			})
		}
		req.Status = &status
	}
	return req, fields
}

func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, appErr := ownedResource(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	t, err := h.transfers.GetTransfer(r.Context(), userID, id)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransferDTO(t))
}

func (h *TransferHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	userID, id, appErr := ownedResource(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	rc, err := h.transfers.GetReceipt(r.Context(), userID, id)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, receiptDTO{
		TransferID:        rc.TransferID,
		Reference:         rc.Reference,
		Status:            string(rc.Status),
		Date:              rc.Date,
		CompletedAt:       rc.CompletedAt,
		ExternalReference: rc.ExternalReference,
		Amount: receiptAmountDTO{
			Source:       rc.SourceAmount,
			Destination:  rc.DestinationAmount,
			ExchangeRate: rc.ExchangeRate,
			Fee:          rc.Fee,
			TotalCost:    rc.TotalCost,
		},
		Beneficiary: receiptPartyDTO{
			Name:          rc.BeneficiaryName,
			Country:       rc.Country,
			AccountNumber: rc.AccountNumber,
		},
		VerificationHash: rc.VerificationHash,
	})
}

func (h *TransferHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, id, appErr := ownedResource(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	t, err := h.transfers.CancelTransfer(r.Context(), userID, id)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransferDTO(t))
}

func (h *TransferHandler) Quote(w http.ResponseWriter, r *http.Request) {
	if _, appErr := callerID(r); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req quoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	q, err := h.transfers.Quote(r.Context(), req.Amount,
		domain.Currency(req.SourceCurrency), domain.Currency(req.DestinationCurrency))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, quoteDTO{
		SourceAmount:        q.SourceAmount.StringFixed(2),
		SourceCurrency:      string(q.SourceCurrency),
		DestinationAmount:   q.DestinationAmount.StringFixed(2),
		DestinationCurrency: string(q.DestinationCurrency),
		ExchangeRate:        q.ExchangeRate.String(),
		Fee:                 q.Fee.StringFixed(2),
		TotalCost:           q.TotalCost.StringFixed(2),
		RateExpiry:          q.RateExpiry,
	})
}
