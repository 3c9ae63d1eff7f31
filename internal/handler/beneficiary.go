package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/service"
)

type beneficiaryService interface {
	Create(ctx context.Context, userID uuid.UUID, in service.BeneficiaryInput) (*domain.Beneficiary, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Beneficiary, error)
	Update(ctx context.Context, userID, id uuid.UUID, in service.BeneficiaryInput) (*domain.Beneficiary, error)
	Deactivate(ctx context.Context, userID, id uuid.UUID) error
}

type BeneficiaryHandler struct {
	beneficiaries beneficiaryService
}

func NewBeneficiaryHandler(beneficiaries beneficiaryService) *BeneficiaryHandler {
	return &BeneficiaryHandler{beneficiaries: beneficiaries}
}

type beneficiaryRequest struct {
	FirstName     string  `json:"firstName" validate:"required,min=2,max=100"`
	LastName      string  `json:"lastName" validate:"required,min=2,max=100"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Phone         *string `json:"phone" validate:"omitempty,phone"`
	Country       string  `json:"country" validate:"required,country"`
	Currency      string  `json:"currency" validate:"required,currency"`
	BankName      *string `json:"bankName" validate:"omitempty,max=200"`
	AccountNumber string  `json:"accountNumber" validate:"required,min=5,max=50"`
	RoutingNumber *string `json:"routingNumber" validate:"omitempty,max=50"`
	SwiftCode     *string `json:"swiftCode" validate:"omitempty,swift"`
	IBAN          *string `json:"iban" validate:"omitempty,max=34"`
	AccountType   string  `json:"accountType" validate:"omitempty,oneof=checking savings"`
}

func (r beneficiaryRequest) input() service.BeneficiaryInput {
	return service.BeneficiaryInput{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Phone:         r.Phone,
		Country:       r.Country,
		Currency:      domain.Currency(r.Currency),
		BankName:      r.BankName,
		AccountNumber: r.AccountNumber,
		RoutingNumber: r.RoutingNumber,
		SwiftCode:     r.SwiftCode,
		IBAN:          r.IBAN,
		AccountType:   domain.AccountType(r.AccountType),
	}
}

type beneficiaryDTO struct {
	ID            uuid.UUID `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	Country       string    `json:"country"`
	Currency      string    `json:"currency"`
	BankName      *string   `json:"bankName,omitempty"`
	AccountNumber string    `json:"accountNumber"`
	RoutingNumber *string   `json:"routingNumber,omitempty"`
	SwiftCode     *string   `json:"swiftCode,omitempty"`
	IBAN          *string   `json:"iban,omitempty"`
	AccountType   string    `json:"accountType"`
	IsVerified    bool      `json:"isVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toBeneficiaryDTO(b *domain.Beneficiary) beneficiaryDTO {
	return beneficiaryDTO{
		ID:            b.ID,
		FirstName:     b.FirstName,
		LastName:      b.LastName,
		Email:         b.Email,
		Phone:         b.Phone,
		Country:       b.Country,
		Currency:      string(b.Currency),
		BankName:      b.BankName,
		AccountNumber: b.AccountNumber,
		RoutingNumber: b.RoutingNumber,
		SwiftCode:     b.SwiftCode,
		IBAN:          b.IBAN,
		AccountType:   string(b.AccountType),
		IsVerified:    b.IsVerified,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func (h *BeneficiaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req beneficiaryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	b, err := h.beneficiaries.Create(r.Context(), userID, req.input())
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toBeneficiaryDTO(b))
}

func (h *BeneficiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	list, err := h.beneficiaries.List(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	dtos := make([]beneficiaryDTO, 0, len(list))
	for i := range list {
		dtos = append(dtos, toBeneficiaryDTO(&list[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *BeneficiaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, appErr := ownedResource(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	b, err := h.beneficiaries.Get(r.Context(), userID, id)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toBeneficiaryDTO(b))
}

func (h *BeneficiaryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, id, appErr := ownedResource(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req beneficiaryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	b, err := h.beneficiaries.Update(r.Context(), userID, id, req.input())
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toBeneficiaryDTO(b))
}

func (h *BeneficiaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, appErr := ownedResource(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.beneficiaries.Deactivate(r.Context(), userID, id); err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]string{"message": "Beneficiary deleted successfully"})
}
