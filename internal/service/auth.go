package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/remittance-api/internal/auth"
	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/logging"
)

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type tokenSigner interface {
	Issue(userID uuid.UUID, email string) (*auth.Token, error)
	Verify(token string) (*auth.Claims, error)
}

type AuthService struct {
	users      userStore
	signer     tokenSigner
	bcryptCost int
}

func NewAuthService(users userStore, signer tokenSigner, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, signer: signer, bcryptCost: bcryptCost}
}

type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
	Country   *string
}

type Session struct {
	Token *auth.Token
	User  *domain.User
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("Register: hash: %w", err)
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Country:      req.Country,
		KYCStatus:    domain.KYCStatusPending,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	token, err := s.signer.Issue(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	logging.FromContext(ctx).Info("user registered", "user_id", u.ID)
	return &Session{Token: token, User: u}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("Login: %w", err)
	}

	if !u.IsActive {
		return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
	}

	token, err := s.signer.Issue(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}

	logging.FromContext(ctx).Info("user logged in", "user_id", u.ID)
	return &Session{Token: token, User: u}, nil
}

// Refresh exchanges a still-valid token of an active user for a new one.
func (s *AuthService) Refresh(ctx context.Context, token string) (*Session, error) {
	identity, u, err := s.resolve(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("Refresh: %w", err)
	}

	fresh, err := s.signer.Issue(identity.UserID, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("Refresh: %w", err)
	}
	return &Session{Token: fresh, User: u}, nil
}

// Authenticate resolves a bearer token to the identity of an active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	identity, _, err := s.resolve(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("Authenticate: %w", err)
	}
	return identity, nil
}

func (s *AuthService) resolve(ctx context.Context, token string) (*auth.Identity, *domain.User, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrUserInactive
		}
		return nil, nil, err
	}
	if !u.IsActive {
		return nil, nil, domain.ErrUserInactive
	}

	return &auth.Identity{UserID: u.ID, Email: u.Email, KYCStatus: u.KYCStatus}, u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
