package service

import (
	"code_golf/internal/common"
	"code_golf/internal/domain/model"
	"code_golf/internal/domain/repository"
	"context"
)

type LeaderboardService struct {
	solutionRepo repository.SolutionRepository
}

func NewLeaderboardService(solRepo repository.SolutionRepository) *LeaderboardService {
	return &LeaderboardService{solutionRepo: solRepo}
}

// Build returns the ranked listing of all currently-valid solutions for one
// (challenge, language) pair, ordered ascending by score with earlier
// last_improved winning ties. The listing contains one entry per solution
// row, not one per account; deduplicating by author is the caller's policy.
// Nothing is cached: every call recomputes from the store.
func (s *LeaderboardService) Build(ctx context.Context, challengeID, language string) ([]model.LeaderboardEntry, error) {
	if challengeID == "" || language == "" {
		return nil, common.Errorf("challenge and language are required: %w", common.ErrInvalidInput)
	}

	entries, err := s.solutionRepo.GetLeaderboard(ctx, challengeID, language)
	if err != nil {
		return nil, common.Errorf("failed to build leaderboard: %w", err)
	}

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
