package service

import (
	"code_golf/internal/common"
	"code_golf/internal/domain/model"
	"code_golf/internal/domain/repository"
	"code_golf/internal/platform/grader"
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
)

// Grader is the external grading collaborator. Implemented by
// platform/grader.Client; tests substitute a stub.
type Grader interface {
	Grade(ctx context.Context, req grader.GradeRequest) (grader.Verdict, error)
}

type SolutionService struct {
	solutionRepo  repository.SolutionRepository
	challengeRepo repository.ChallengeRepository
	grader        Grader
	db            *sql.DB // For transactions
}

func NewSolutionService(
	solRepo repository.SolutionRepository,
	chalRepo repository.ChallengeRepository,
	grd Grader,
	db *sql.DB,
) *SolutionService {
	return &SolutionService{
		solutionRepo:  solRepo,
		challengeRepo: chalRepo,
		grader:        grd,
		db:            db,
	}
}

type SubmitRequest struct {
	ChallengeID string `json:"challenge_id"`
	Language    string `json:"language"`
	Code        string `json:"code"`
}

// Submit grades a submission and stores it as a new solution row. Every
// graded submission is persisted for history; the outcome reports whether
// it became the author's best for the triple. The write happens only after
// a verdict is obtained, so a grading failure leaves no row behind.
//
// There is deliberately no transaction spanning the best-lookup and the
// insert: best is always recomputed by the min-score query, so two
// concurrent submissions for one triple at worst store a non-improving
// duplicate row.
func (s *SolutionService) Submit(ctx context.Context, accountID string, req SubmitRequest) (*model.SubmissionOutcome, error) {
	if accountID == "" || req.ChallengeID == "" || req.Language == "" || req.Code == "" {
		return nil, common.Errorf("account, challenge, language and code are required: %w", common.ErrInvalidInput)
	}

	challenge, err := s.challengeRepo.FindChallengeByID(ctx, req.ChallengeID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("challenge %s not found: %w", req.ChallengeID, common.ErrInvalidInput)
		}
		return nil, common.Errorf("failed to load challenge: %w", err)
	}

	language, err := s.challengeRepo.GetLanguageBySlug(ctx, req.Language)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("language %s not found: %w", req.Language, common.ErrInvalidInput)
		}
		return nil, common.Errorf("failed to load language: %w", err)
	}
	if !language.IsActive {
		return nil, common.Errorf("language %s is inactive: %w", req.Language, common.ErrInvalidInput)
	}

	verdict, err := s.grader.Grade(ctx, grader.GradeRequest{
		ChallengeID:      challenge.ID,
		CriteriaRevision: challenge.CriteriaRevision,
		Language:         language.Slug,
		Version:          language.Version,
		Code:             req.Code,
	})
	if err != nil {
		return nil, common.Errorf("grading failed for challenge %s: %w", challenge.ID, err)
	}

	best, err := s.solutionRepo.FindBest(ctx, accountID, challenge.ID, language.Slug)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, common.Errorf("failed to load current best: %w", err)
	}
	improved := verdict.Valid && (best == nil || !best.Valid || verdict.Score < best.Score)

	solution := &model.Solution{
		ID:           uuid.NewString(),
		Language:     language.Slug,
		Version:      language.Version,
		ChallengeID:  challenge.ID,
		Code:         req.Code,
		AuthorID:     accountID,
		Score:        verdict.Score,
		Valid:        verdict.Valid,
		LastImproved: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.solutionRepo.CreateSolution(ctx, tx, solution); err != nil {
		return nil, common.Errorf("failed to create solution: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Solution %s stored for account %s on challenge %s (%s): score=%d valid=%t improved=%t",
		solution.ID, accountID, challenge.ID, language.Slug, verdict.Score, verdict.Valid, improved)

	return &model.SubmissionOutcome{
		SolutionID: solution.ID,
		Valid:      verdict.Valid,
		Score:      verdict.Score,
		Improved:   improved,
	}, nil
}

// GetByID returns one stored solution, e.g. for viewing another account's
// code after solving the challenge yourself.
func (s *SolutionService) GetByID(ctx context.Context, solutionID string) (*model.Solution, error) {
	if solutionID == "" {
		return nil, common.Errorf("solution id is required: %w", common.ErrInvalidInput)
	}
	return s.solutionRepo.FindSolutionByID(ctx, solutionID)
}

// BestFor returns the account's minimal-score solution for the triple, or
// (nil, nil) when none exists. An invalid best row is still returned so the
// UI can show "your best attempt, currently invalid" — validity filtering
// is the caller's concern.
func (s *SolutionService) BestFor(ctx context.Context, accountID, challengeID, language string) (*model.Solution, error) {
	if accountID == "" || challengeID == "" || language == "" {
		return nil, common.Errorf("account, challenge and language are required: %w", common.ErrInvalidInput)
	}

	best, err := s.solutionRepo.FindBest(ctx, accountID, challengeID, language)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, common.Errorf("failed to load best solution: %w", err)
	}
	return best, nil
}
