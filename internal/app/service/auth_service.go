package service

import (
	"code_golf/internal/common"
	"code_golf/internal/common/security"
	"code_golf/internal/domain/model"
	"code_golf/internal/domain/repository"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type AuthService struct {
	accountRepo repository.AccountRepository
}

func NewAuthService(accountRepo repository.AccountRepository) *AuthService {
	return &AuthService{accountRepo: accountRepo}
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Password string `json:"password"`
}

type LoginRequest struct {
	LoginField string `json:"login_field"` // Can be username or email
	Password   string `json:"password"`
}

type AuthResponse struct {
	Account *model.Account `json:"account"`
	Token   string         `json:"token"`
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		Avatar:         req.Avatar,
		HashedPassword: hashedPassword,
		Role:           model.RoleUser, // Default role
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		// Repo might return common.ErrConflict
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	token, err := security.GenerateToken(account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	account.HashedPassword = "" // Clear password before returning
	return &AuthResponse{Account: account, Token: token}, nil
}

// Me resolves the authenticated account's profile from its id.
func (s *AuthService) Me(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	account.HashedPassword = ""
	return account, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.LoginField == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	var account *model.Account
	var err error

	// Try finding by email first, then by username
	account, err = s.accountRepo.FindByEmail(ctx, req.LoginField)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			account, err = s.accountRepo.FindByUsername(ctx, req.LoginField)
		}
	}

	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // Generic message for security
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, account.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	token, err := security.GenerateToken(account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	account.HashedPassword = ""
	return &AuthResponse{Account: account, Token: token}, nil
}
