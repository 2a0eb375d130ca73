package worker

import (
	"code_golf/internal/common"
	"code_golf/internal/domain/model"
	"code_golf/internal/platform/grader"
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// No-op sql driver: RegradeChallenge only opens and commits a transaction
// around repository calls, and the fakes below ignore the tx.
type noopDriver struct{}

func (noopDriver) Open(name string) (driver.Conn, error) { return noopConn{}, nil }

type noopConn struct{}

func (noopConn) Prepare(query string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (noopConn) Close() error                              { return nil }
func (noopConn) Begin() (driver.Tx, error)                 { return noopTx{}, nil }

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

func init() {
	sql.Register("workertest", noopDriver{})
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("workertest", "")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type fakeSolutionRepo struct {
	solutions []model.Solution
}

func (f *fakeSolutionRepo) CreateSolution(ctx context.Context, tx *sql.Tx, sol *model.Solution) error {
	f.solutions = append(f.solutions, *sol)
	return nil
}

func (f *fakeSolutionRepo) FindSolutionByID(ctx context.Context, id string) (*model.Solution, error) {
	for i := range f.solutions {
		if f.solutions[i].ID == id {
			sol := f.solutions[i]
			return &sol, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeSolutionRepo) FindBest(ctx context.Context, authorID, challengeID, language string) (*model.Solution, error) {
	return nil, common.ErrNotFound
}

func (f *fakeSolutionRepo) ListSolutionsForChallenge(ctx context.Context, challengeID string) ([]model.Solution, error) {
	out := []model.Solution{}
	for _, s := range f.solutions {
		if s.ChallengeID == challengeID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSolutionRepo) UpdateVerdict(ctx context.Context, tx *sql.Tx, solutionID string, valid bool, score int) error {
	for i := range f.solutions {
		if f.solutions[i].ID == solutionID {
			f.solutions[i].Valid = valid
			f.solutions[i].Score = score
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeSolutionRepo) GetLeaderboard(ctx context.Context, challengeID, language string) ([]model.LeaderboardEntry, error) {
	matching := []model.Solution{}
	for _, s := range f.solutions {
		if s.ChallengeID == challengeID && s.Language == language && s.Valid {
			matching = append(matching, s)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		if matching[i].Score != matching[j].Score {
			return matching[i].Score < matching[j].Score
		}
		return matching[i].LastImproved.Before(matching[j].LastImproved)
	})
	entries := []model.LeaderboardEntry{}
	for _, s := range matching {
		entries = append(entries, model.LeaderboardEntry{SolutionID: s.ID, AuthorID: s.AuthorID, Score: s.Score})
	}
	return entries, nil
}

func (f *fakeSolutionRepo) ListInvalidated(ctx context.Context, authorID string) ([]model.InvalidatedSolution, error) {
	out := []model.InvalidatedSolution{}
	for _, s := range f.solutions {
		if s.AuthorID == authorID && !s.Valid {
			out = append(out, model.InvalidatedSolution{Language: s.Language, ChallengeID: s.ChallengeID})
		}
	}
	return out, nil
}

func (f *fakeSolutionRepo) HasInvalidated(ctx context.Context, authorID string) (bool, error) {
	for _, s := range f.solutions {
		if s.AuthorID == authorID && !s.Valid {
			return true, nil
		}
	}
	return false, nil
}

type fakeChallengeRepo struct {
	challenges map[string]model.Challenge
}

func (f *fakeChallengeRepo) CreateChallenge(ctx context.Context, tx *sql.Tx, c *model.Challenge) error {
	f.challenges[c.ID] = *c
	return nil
}

func (f *fakeChallengeRepo) FindChallengeByID(ctx context.Context, id string) (*model.Challenge, error) {
	c, ok := f.challenges[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &c, nil
}

func (f *fakeChallengeRepo) FindChallengeBySlug(ctx context.Context, slug string) (*model.Challenge, error) {
	return nil, common.ErrNotFound
}

func (f *fakeChallengeRepo) ListChallenges(ctx context.Context, limit, offset int) ([]model.Challenge, int, error) {
	return nil, 0, nil
}

func (f *fakeChallengeRepo) ReviseCriteria(ctx context.Context, tx *sql.Tx, challengeID, criteria string) error {
	return nil
}

func (f *fakeChallengeRepo) GetLanguageBySlug(ctx context.Context, slug string) (*model.Language, error) {
	return nil, common.ErrNotFound
}

func (f *fakeChallengeRepo) ListLanguages(ctx context.Context) ([]model.Language, error) {
	return nil, nil
}

type stubGrader struct {
	verdicts map[string]grader.Verdict // keyed by code
	err      error
}

func (g *stubGrader) Grade(ctx context.Context, req grader.GradeRequest) (grader.Verdict, error) {
	if g.err != nil {
		return grader.Verdict{}, g.err
	}
	return g.verdicts[req.Code], nil
}

func TestRegradeChallengeFlipsChangedVerdicts(t *testing.T) {
	solRepo := &fakeSolutionRepo{}
	now := time.Now()
	solRepo.solutions = []model.Solution{
		{ID: "s-now-invalid", Language: "python", ChallengeID: "chal-1", AuthorID: "a1", Code: "golf()", Score: 30, Valid: true, LastImproved: now},
		{ID: "s-still-valid", Language: "python", ChallengeID: "chal-1", AuthorID: "a2", Code: "tee()", Score: 12, Valid: true, LastImproved: now},
		{ID: "s-other-chal", Language: "python", ChallengeID: "chal-2", AuthorID: "a1", Code: "golf()", Score: 9, Valid: true, LastImproved: now},
	}
	chalRepo := &fakeChallengeRepo{challenges: map[string]model.Challenge{
		"chal-1": {ID: "chal-1", Name: "Reverse a String", CriteriaRevision: 2},
	}}
	grd := &stubGrader{verdicts: map[string]grader.Verdict{
		"golf()": {Valid: false, Score: 30},
		"tee()":  {Valid: true, Score: 12},
	}}

	w := NewRegradeWorker(nil, solRepo, chalRepo, grd, newTestDB(t))
	require.NoError(t, w.RegradeChallenge(context.Background(), "chal-1"))

	flipped, err := solRepo.FindSolutionByID(context.Background(), "s-now-invalid")
	require.NoError(t, err)
	assert.False(t, flipped.Valid)

	kept, err := solRepo.FindSolutionByID(context.Background(), "s-still-valid")
	require.NoError(t, err)
	assert.True(t, kept.Valid)

	other, err := solRepo.FindSolutionByID(context.Background(), "s-other-chal")
	require.NoError(t, err)
	assert.True(t, other.Valid, "solutions of other challenges are untouched")
}

func TestRegradeThenInvalidationAndLeaderboardAgree(t *testing.T) {
	solRepo := &fakeSolutionRepo{}
	solRepo.solutions = []model.Solution{
		{ID: "s1", Language: "python", ChallengeID: "chal-1", AuthorID: "a1", Code: "golf()", Score: 30, Valid: true, LastImproved: time.Now()},
	}
	chalRepo := &fakeChallengeRepo{challenges: map[string]model.Challenge{
		"chal-1": {ID: "chal-1", Name: "Reverse a String", CriteriaRevision: 3},
	}}
	grd := &stubGrader{verdicts: map[string]grader.Verdict{
		"golf()": {Valid: false, Score: 30},
	}}

	w := NewRegradeWorker(nil, solRepo, chalRepo, grd, newTestDB(t))
	require.NoError(t, w.RegradeChallenge(context.Background(), "chal-1"))

	invalidated, err := solRepo.ListInvalidated(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, []model.InvalidatedSolution{{Language: "python", ChallengeID: "chal-1"}}, invalidated)

	entries, err := solRepo.GetLeaderboard(context.Background(), "chal-1", "python")
	require.NoError(t, err)
	assert.Empty(t, entries, "an invalidated solution leaves the leaderboard")
}

func TestRegradeAbortsWithoutChangesWhenGraderFails(t *testing.T) {
	solRepo := &fakeSolutionRepo{}
	solRepo.solutions = []model.Solution{
		{ID: "s1", Language: "python", ChallengeID: "chal-1", AuthorID: "a1", Code: "golf()", Score: 30, Valid: true, LastImproved: time.Now()},
	}
	chalRepo := &fakeChallengeRepo{challenges: map[string]model.Challenge{
		"chal-1": {ID: "chal-1", CriteriaRevision: 2},
	}}
	grd := &stubGrader{err: common.ErrGradingUnavailable}

	w := NewRegradeWorker(nil, solRepo, chalRepo, grd, newTestDB(t))
	err := w.RegradeChallenge(context.Background(), "chal-1")

	require.ErrorIs(t, err, common.ErrGradingUnavailable)
	kept, findErr := solRepo.FindSolutionByID(context.Background(), "s1")
	require.NoError(t, findErr)
	assert.True(t, kept.Valid, "no row is flipped when the pass aborts")
}

func TestRegradeUnknownChallenge(t *testing.T) {
	chalRepo := &fakeChallengeRepo{challenges: map[string]model.Challenge{}}
	w := NewRegradeWorker(nil, &fakeSolutionRepo{}, chalRepo, &stubGrader{}, newTestDB(t))

	err := w.RegradeChallenge(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestVerdictChanged(t *testing.T) {
	sol := model.Solution{Valid: true, Score: 10}

	assert.False(t, VerdictChanged(sol, grader.Verdict{Valid: true, Score: 10}))
	assert.True(t, VerdictChanged(sol, grader.Verdict{Valid: false, Score: 10}))
	assert.True(t, VerdictChanged(sol, grader.Verdict{Valid: true, Score: 9}))
}
