package worker

import (
	"code_golf/internal/app/service"
	"code_golf/internal/domain/model"
	"code_golf/internal/domain/repository"
	"code_golf/internal/platform/config"
	"code_golf/internal/platform/grader"
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RegradeWorker drives the valid -> invalid transition the core services
// only read. When a challenge's criteria are revised, its id lands on the
// regrade queue; the worker re-grades every stored solution of that
// challenge against the new criteria and rewrites score and validity per
// the fresh verdicts. Re-grading is idempotent, so a duplicate or replayed
// queue entry is harmless.
type RegradeWorker struct {
	rdb           *redis.Client
	solutionRepo  repository.SolutionRepository
	challengeRepo repository.ChallengeRepository
	grader        service.Grader
	db            *sql.DB
}

func NewRegradeWorker(
	rdb *redis.Client,
	solRepo repository.SolutionRepository,
	chalRepo repository.ChallengeRepository,
	grd service.Grader,
	db *sql.DB,
) *RegradeWorker {
	return &RegradeWorker{
		rdb:           rdb,
		solutionRepo:  solRepo,
		challengeRepo: chalRepo,
		grader:        grd,
		db:            db,
	}
}

func (w *RegradeWorker) Start(ctx context.Context) {
	log.Println("Regrade worker started, listening to queue:", config.AppConfig.RegradeQueueName)
	for {
		select {
		case <-ctx.Done():
			log.Println("Regrade worker stopping...")
			return
		default:
			res, err := w.rdb.BRPop(ctx, 0*time.Second, config.AppConfig.RegradeQueueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					log.Printf("Worker BRPop exiting or timed out: %v", err)
					time.Sleep(1 * time.Second)
					continue
				}
				log.Printf("ERROR: Failed to BRPop from Redis queue '%s': %v", config.AppConfig.RegradeQueueName, err)
				time.Sleep(5 * time.Second)
				continue
			}

			// res is [queueName, value]
			if len(res) < 2 || res[1] == "" {
				log.Println("WARN: BRPop returned empty challenge ID.")
				continue
			}
			w.regradeWithLock(ctx, res[1])
		}
	}
}

// regradeWithLock serializes regrading across worker instances with a
// SetNX lock so one revision's flips are not interleaved with another's.
func (w *RegradeWorker) regradeWithLock(ctx context.Context, challengeID string) {
	lockValue := uuid.NewString()
	lockTTL := time.Duration(config.AppConfig.RegradeLockTTLSeconds) * time.Second

	ok, err := w.rdb.SetNX(ctx, config.AppConfig.RegradeLockKey, lockValue, lockTTL).Result()
	if err != nil {
		log.Printf("ERROR: Failed to attempt lock acquisition for challenge %s: %v", challengeID, err)
		w.requeue(ctx, challengeID)
		return
	}
	if !ok {
		log.Printf("INFO: Could not acquire regrade lock for challenge %s, another worker is busy. Re-queueing.", challengeID)
		w.requeue(ctx, challengeID)
		return
	}
	defer func() {
		current, err := w.rdb.Get(ctx, config.AppConfig.RegradeLockKey).Result()
		if err == nil && current == lockValue {
			w.rdb.Del(ctx, config.AppConfig.RegradeLockKey)
		}
	}()

	if err := w.RegradeChallenge(ctx, challengeID); err != nil {
		log.Printf("ERROR: Regrade of challenge %s failed: %v. Re-queueing.", challengeID, err)
		w.requeue(ctx, challengeID)
	}
}

// RegradeChallenge re-grades every stored solution of the challenge and
// rewrites the rows whose verdict changed, all in one transaction so a
// revision's flips land atomically.
func (w *RegradeWorker) RegradeChallenge(ctx context.Context, challengeID string) error {
	challenge, err := w.challengeRepo.FindChallengeByID(ctx, challengeID)
	if err != nil {
		return err
	}

	solutions, err := w.solutionRepo.ListSolutionsForChallenge(ctx, challengeID)
	if err != nil {
		return err
	}
	if len(solutions) == 0 {
		log.Printf("No solutions to regrade for challenge %s.", challengeID)
		return nil
	}

	verdicts := make([]grader.Verdict, len(solutions))
	for i, sol := range solutions {
		verdict, err := w.grader.Grade(ctx, grader.GradeRequest{
			ChallengeID:      challenge.ID,
			CriteriaRevision: challenge.CriteriaRevision,
			Language:         sol.Language,
			Version:          sol.Version,
			Code:             sol.Code,
		})
		if err != nil {
			// A single unreachable grade aborts the whole pass; the requeued
			// challenge retries from scratch rather than flipping half its rows.
			return err
		}
		verdicts[i] = verdict
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	flipped := 0
	for i, sol := range solutions {
		if !VerdictChanged(sol, verdicts[i]) {
			continue
		}
		if err := w.solutionRepo.UpdateVerdict(ctx, tx, sol.ID, verdicts[i].Valid, verdicts[i].Score); err != nil {
			return err
		}
		flipped++
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("Regraded challenge %s: %d solutions checked, %d rewritten.", challengeID, len(solutions), flipped)
	return nil
}

// VerdictChanged reports whether a fresh verdict differs from what the row
// already records.
func VerdictChanged(sol model.Solution, verdict grader.Verdict) bool {
	return sol.Valid != verdict.Valid || sol.Score != verdict.Score
}

func (w *RegradeWorker) requeue(ctx context.Context, challengeID string) {
	if err := w.rdb.LPush(ctx, config.AppConfig.RegradeQueueName, challengeID).Err(); err != nil {
		log.Printf("ERROR: Failed to re-queue challenge %s: %v", challengeID, err)
	}
}
