package repository

import (
	"code_golf/internal/common"
	"code_golf/internal/domain/model"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type ChallengeRepository interface {
	CreateChallenge(ctx context.Context, tx *sql.Tx, challenge *model.Challenge) error
	FindChallengeByID(ctx context.Context, id string) (*model.Challenge, error)
	FindChallengeBySlug(ctx context.Context, slug string) (*model.Challenge, error)
	ListChallenges(ctx context.Context, limit, offset int) ([]model.Challenge, int, error)
	ReviseCriteria(ctx context.Context, tx *sql.Tx, challengeID, criteria string) error

	GetLanguageBySlug(ctx context.Context, slug string) (*model.Language, error)
	ListLanguages(ctx context.Context) ([]model.Language, error)
}

type pgChallengeRepository struct {
	db *sql.DB
}

func NewPgChallengeRepository(db *sql.DB) ChallengeRepository {
	return &pgChallengeRepository{db: db}
}

func (r *pgChallengeRepository) CreateChallenge(ctx context.Context, tx *sql.Tx, c *model.Challenge) error {
	query := `INSERT INTO challenges (id, name, slug, description, grading_criteria, criteria_revision, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, c.ID, c.Name, c.Slug, c.Description, c.GradingCriteria, c.CriteriaRevision, c.CreatedByID)
	} else {
		_, err = r.db.ExecContext(ctx, query, c.ID, c.Name, c.Slug, c.Description, c.GradingCriteria, c.CriteriaRevision, c.CreatedByID)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("challenge with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgChallengeRepository.CreateChallenge: %w", err)
	}
	return nil
}

func (r *pgChallengeRepository) FindChallengeByID(ctx context.Context, id string) (*model.Challenge, error) {
	query := challengeSelect + ` WHERE id = $1`
	return r.scanChallenge(ctx, query, id)
}

func (r *pgChallengeRepository) FindChallengeBySlug(ctx context.Context, slug string) (*model.Challenge, error) {
	query := challengeSelect + ` WHERE slug = $1`
	return r.scanChallenge(ctx, query, slug)
}

const challengeSelect = `
        SELECT id, name, slug, description, grading_criteria, criteria_revision, created_by, created_at, updated_at
        FROM challenges`

func (r *pgChallengeRepository) scanChallenge(ctx context.Context, query string, arg interface{}) (*model.Challenge, error) {
	challenge := &model.Challenge{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&challenge.ID, &challenge.Name, &challenge.Slug, &challenge.Description,
		&challenge.GradingCriteria, &challenge.CriteriaRevision, &challenge.CreatedByID,
		&challenge.CreatedAt, &challenge.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgChallengeRepository.scanChallenge: %w", err)
	}
	return challenge, nil
}

func (r *pgChallengeRepository) ListChallenges(ctx context.Context, limit, offset int) ([]model.Challenge, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM challenges`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgChallengeRepository.ListChallenges count: %w", err)
	}

	query := challengeSelect + ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgChallengeRepository.ListChallenges query: %w", err)
	}
	defer rows.Close()

	challenges := []model.Challenge{}
	for rows.Next() {
		var c model.Challenge
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Slug, &c.Description,
			&c.GradingCriteria, &c.CriteriaRevision, &c.CreatedByID,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("pgChallengeRepository.ListChallenges scan: %w", err)
		}
		challenges = append(challenges, c)
	}
	return challenges, total, rows.Err()
}

// ReviseCriteria replaces the grading criteria and bumps the revision
// counter. Flipping stored solutions to invalid is the regrade worker's
// job, not this statement's.
func (r *pgChallengeRepository) ReviseCriteria(ctx context.Context, tx *sql.Tx, challengeID, criteria string) error {
	query := `UPDATE challenges SET
                grading_criteria = $1, criteria_revision = criteria_revision + 1,
                updated_at = CURRENT_TIMESTAMP
              WHERE id = $2`

	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, criteria, challengeID)
	} else {
		res, err = r.db.ExecContext(ctx, query, criteria, challengeID)
	}
	if err != nil {
		return fmt.Errorf("pgChallengeRepository.ReviseCriteria: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgChallengeRepository) GetLanguageBySlug(ctx context.Context, slug string) (*model.Language, error) {
	query := `SELECT id, name, slug, version, is_active, created_at FROM languages WHERE slug = $1`
	language := &model.Language{}
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&language.ID, &language.Name, &language.Slug, &language.Version, &language.IsActive, &language.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgChallengeRepository.GetLanguageBySlug: %w", err)
	}
	return language, nil
}

func (r *pgChallengeRepository) ListLanguages(ctx context.Context) ([]model.Language, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, slug, version, is_active, created_at FROM languages ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pgChallengeRepository.ListLanguages: %w", err)
	}
	defer rows.Close()

	languages := []model.Language{}
	for rows.Next() {
		var l model.Language
		if err := rows.Scan(&l.ID, &l.Name, &l.Slug, &l.Version, &l.IsActive, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgChallengeRepository.ListLanguages scan: %w", err)
		}
		languages = append(languages, l)
	}
	return languages, rows.Err()
}
