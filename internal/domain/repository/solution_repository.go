package repository

import (
	"code_golf/internal/common"
	"code_golf/internal/domain/model"
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type SolutionRepository interface {
	CreateSolution(ctx context.Context, tx *sql.Tx, sol *model.Solution) error
	FindSolutionByID(ctx context.Context, id string) (*model.Solution, error)

	// FindBest returns the minimal-score row for the triple, ties broken by
	// earliest last_improved. Invalid rows are not filtered out; callers that
	// need validity decide themselves.
	FindBest(ctx context.Context, authorID, challengeID, language string) (*model.Solution, error)

	// For the regrade worker
	ListSolutionsForChallenge(ctx context.Context, challengeID string) ([]model.Solution, error)
	UpdateVerdict(ctx context.Context, tx *sql.Tx, solutionID string, valid bool, score int) error

	GetLeaderboard(ctx context.Context, challengeID, language string) ([]model.LeaderboardEntry, error)
	ListInvalidated(ctx context.Context, authorID string) ([]model.InvalidatedSolution, error)
	HasInvalidated(ctx context.Context, authorID string) (bool, error)
}

type pgSolutionRepository struct {
	db *sql.DB
}

func NewPgSolutionRepository(db *sql.DB) SolutionRepository {
	return &pgSolutionRepository{db: db}
}

const solutionSelect = `
        SELECT id, language, version, challenge, code, author, score, valid, last_improved
        FROM solutions`

func (r *pgSolutionRepository) CreateSolution(ctx context.Context, tx *sql.Tx, sol *model.Solution) error {
	query := `INSERT INTO solutions (id, language, version, challenge, code, author, score, valid, last_improved)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, sol.ID, sol.Language, sol.Version, sol.ChallengeID, sol.Code, sol.AuthorID, sol.Score, sol.Valid, sol.LastImproved)
	} else {
		_, err = r.db.ExecContext(ctx, query, sol.ID, sol.Language, sol.Version, sol.ChallengeID, sol.Code, sol.AuthorID, sol.Score, sol.Valid, sol.LastImproved)
	}
	if err != nil {
		return fmt.Errorf("pgSolutionRepository.CreateSolution: %w", err)
	}
	return nil
}

func (r *pgSolutionRepository) FindSolutionByID(ctx context.Context, id string) (*model.Solution, error) {
	row := r.db.QueryRowContext(ctx, solutionSelect+` WHERE id = $1`, id)
	return scanSolution(row)
}

func (r *pgSolutionRepository) FindBest(ctx context.Context, authorID, challengeID, language string) (*model.Solution, error) {
	query := solutionSelect + `
        WHERE author = $1 AND challenge = $2 AND language = $3
        ORDER BY score ASC, last_improved ASC
        LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, authorID, challengeID, language)
	return scanSolution(row)
}

func (r *pgSolutionRepository) ListSolutionsForChallenge(ctx context.Context, challengeID string) ([]model.Solution, error) {
	rows, err := r.db.QueryContext(ctx, solutionSelect+` WHERE challenge = $1`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("pgSolutionRepository.ListSolutionsForChallenge: %w", err)
	}
	defer rows.Close()

	solutions := []model.Solution{}
	for rows.Next() {
		var s model.Solution
		if err := rows.Scan(&s.ID, &s.Language, &s.Version, &s.ChallengeID, &s.Code, &s.AuthorID, &s.Score, &s.Valid, &s.LastImproved); err != nil {
			return nil, fmt.Errorf("pgSolutionRepository.ListSolutionsForChallenge scan: %w", err)
		}
		solutions = append(solutions, s)
	}
	return solutions, rows.Err()
}

func (r *pgSolutionRepository) UpdateVerdict(ctx context.Context, tx *sql.Tx, solutionID string, valid bool, score int) error {
	query := `UPDATE solutions SET valid = $1, score = $2 WHERE id = $3`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, valid, score, solutionID)
	} else {
		_, err = r.db.ExecContext(ctx, query, valid, score, solutionID)
	}
	if err != nil {
		return fmt.Errorf("pgSolutionRepository.UpdateVerdict: %w", err)
	}
	return nil
}

// GetLeaderboard returns one row per valid solution for the pair, ordered
// ascending by score with earlier last_improved winning ties. Rank numbers
// are attached by the service.
func (r *pgSolutionRepository) GetLeaderboard(ctx context.Context, challengeID, language string) ([]model.LeaderboardEntry, error) {
	query := `
        SELECT
            solutions.id,
            solutions.author,
            accounts.username,
            accounts.avatar,
            solutions.score
        FROM solutions
        LEFT JOIN accounts ON solutions.author = accounts.id
        WHERE solutions.challenge = $1 AND solutions.language = $2 AND solutions.valid = true
        ORDER BY solutions.score ASC, solutions.last_improved ASC`

	rows, err := r.db.QueryContext(ctx, query, challengeID, language)
	if err != nil {
		return nil, fmt.Errorf("pgSolutionRepository.GetLeaderboard: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.SolutionID, &e.AuthorID, &e.AuthorName, &e.AuthorAvatar, &e.Score); err != nil {
			return nil, fmt.Errorf("pgSolutionRepository.GetLeaderboard scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *pgSolutionRepository) ListInvalidated(ctx context.Context, authorID string) ([]model.InvalidatedSolution, error) {
	query := `
        SELECT solutions.language, challenges.id, challenges.name
        FROM solutions
        LEFT JOIN challenges ON solutions.challenge = challenges.id
        WHERE solutions.valid = false AND solutions.author = $1`

	rows, err := r.db.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("pgSolutionRepository.ListInvalidated: %w", err)
	}
	defer rows.Close()

	invalidated := []model.InvalidatedSolution{}
	for rows.Next() {
		var inv model.InvalidatedSolution
		if err := rows.Scan(&inv.Language, &inv.ChallengeID, &inv.ChallengeName); err != nil {
			return nil, fmt.Errorf("pgSolutionRepository.ListInvalidated scan: %w", err)
		}
		invalidated = append(invalidated, inv)
	}
	return invalidated, rows.Err()
}

func (r *pgSolutionRepository) HasInvalidated(ctx context.Context, authorID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM solutions WHERE valid = false AND author = $1)`
	if err := r.db.QueryRowContext(ctx, query, authorID).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgSolutionRepository.HasInvalidated: %w", err)
	}
	return exists, nil
}

func scanSolution(row *sql.Row) (*model.Solution, error) {
	sol := &model.Solution{}
	err := row.Scan(&sol.ID, &sol.Language, &sol.Version, &sol.ChallengeID, &sol.Code, &sol.AuthorID, &sol.Score, &sol.Valid, &sol.LastImproved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSolutionRepository: %w", err)
	}
	return sol, nil
}
