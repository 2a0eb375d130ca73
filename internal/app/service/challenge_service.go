package service

import (
	"code_golf/internal/common"
	"code_golf/internal/domain/model"
	"code_golf/internal/domain/repository"
	"code_golf/internal/platform/config"
	"context"
	"database/sql"
	"log"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
)

// RegradeQueue is the push half of the regrade pipeline. Satisfied by
// *redis.Client; tests substitute a fake.
type RegradeQueue interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

type ChallengeService struct {
	challengeRepo repository.ChallengeRepository
	regradeQueue  RegradeQueue
	db            *sql.DB
}

func NewChallengeService(chalRepo repository.ChallengeRepository, regradeQueue RegradeQueue, db *sql.DB) *ChallengeService {
	return &ChallengeService{challengeRepo: chalRepo, regradeQueue: regradeQueue, db: db}
}

type CreateChallengeRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	GradingCriteria string `json:"grading_criteria"`
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, accountID string, req CreateChallengeRequest) (*model.Challenge, error) {
	if req.Name == "" || req.GradingCriteria == "" {
		return nil, common.Errorf("name and grading criteria are required: %w", common.ErrBadRequest)
	}

	challenge := &model.Challenge{
		ID:               uuid.NewString(),
		Name:             req.Name,
		Slug:             slug.Make(req.Name),
		Description:      req.Description,
		GradingCriteria:  req.GradingCriteria,
		CriteriaRevision: 1,
		CreatedByID:      accountID,
	}

	if err := s.challengeRepo.CreateChallenge(ctx, nil, challenge); err != nil {
		return nil, common.Errorf("failed to create challenge: %w", err)
	}
	return challenge, nil
}

func (s *ChallengeService) GetChallengeBySlug(ctx context.Context, challengeSlug string) (*model.Challenge, error) {
	return s.challengeRepo.FindChallengeBySlug(ctx, challengeSlug)
}

func (s *ChallengeService) ListChallenges(ctx context.Context, limit, offset int) ([]model.Challenge, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.challengeRepo.ListChallenges(ctx, limit, offset)
}

func (s *ChallengeService) ListLanguages(ctx context.Context) ([]model.Language, error) {
	return s.challengeRepo.ListLanguages(ctx)
}

type ReviseCriteriaRequest struct {
	GradingCriteria string `json:"grading_criteria"`
}

// ReviseCriteria replaces a challenge's grading criteria and enqueues the
// challenge for re-grading. The revision update and the queue push are not
// one distributed transaction; if the push is lost the next revision
// re-enqueues, and re-grading is idempotent, so the worst case is stale
// validity flags until then.
func (s *ChallengeService) ReviseCriteria(ctx context.Context, challengeID string, req ReviseCriteriaRequest) error {
	if req.GradingCriteria == "" {
		return common.Errorf("grading criteria are required: %w", common.ErrBadRequest)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.challengeRepo.ReviseCriteria(ctx, tx, challengeID, req.GradingCriteria); err != nil {
		return common.Errorf("failed to revise criteria: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return common.Errorf("failed to commit criteria revision: %w", err)
	}

	if err := s.regradeQueue.LPush(ctx, config.AppConfig.RegradeQueueName, challengeID).Err(); err != nil {
		// Revision is committed; the regrade signal is what got lost. Surface
		// the failure so an operator can re-enqueue.
		return common.Errorf("criteria revised but failed to enqueue regrade for challenge %s: %w", challengeID, err)
	}

	log.Printf("Challenge %s criteria revised and regrade enqueued.", challengeID)
	return nil
}
