package service

import (
	"code_golf/internal/common"
	"code_golf/internal/domain/model"
	"code_golf/internal/domain/repository"
	"context"
)

// InvalidationService reports the solutions a criteria revision has
// invalidated, so the platform can prompt the account to resubmit. It only
// reads the validity flag; flipping it is the regrade worker's job.
type InvalidationService struct {
	solutionRepo repository.SolutionRepository
}

func NewInvalidationService(solRepo repository.SolutionRepository) *InvalidationService {
	return &InvalidationService{solutionRepo: solRepo}
}

// List returns every (language, challenge) pair where the account's stored
// solution is currently invalid. No ordering is guaranteed beyond the
// store's natural order.
func (s *InvalidationService) List(ctx context.Context, accountID string) ([]model.InvalidatedSolution, error) {
	if accountID == "" {
		return nil, common.Errorf("account is required: %w", common.ErrInvalidInput)
	}

	invalidated, err := s.solutionRepo.ListInvalidated(ctx, accountID)
	if err != nil {
		return nil, common.Errorf("failed to list invalidated solutions: %w", err)
	}
	return invalidated, nil
}

// Has is the cheap existence check behind the login-time banner; it never
// materializes the full list.
func (s *InvalidationService) Has(ctx context.Context, accountID string) (bool, error) {
	if accountID == "" {
		return false, common.Errorf("account is required: %w", common.ErrInvalidInput)
	}

	has, err := s.solutionRepo.HasInvalidated(ctx, accountID)
	if err != nil {
		return false, common.Errorf("failed to check invalidated solutions: %w", err)
	}
	return has, nil
}
