package service

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
)

// The services only use *sql.DB to open and commit transactions around
// repository calls; the fakes below ignore the tx entirely. This no-op
// driver lets tests hand the services a working *sql.DB without a database.
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
	sql.Register("servicetest", noopDriver{})
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("servicetest", "")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeSolutionRepo keeps rows in memory and reimplements the repository's
// query semantics: min-score best with earliest-timestamp tie-break, the
// validity-filtered ordered leaderboard, and the invalidation projections.
type fakeSolutionRepo struct {
	solutions  []model.Solution
	accounts   map[string]model.Account
	challenges map[string]model.Challenge
	createErr  error
}

func newFakeSolutionRepo() *fakeSolutionRepo {
	return &fakeSolutionRepo{
		accounts:   map[string]model.Account{},
		challenges: map[string]model.Challenge{},
	}
}

func (f *fakeSolutionRepo) CreateSolution(ctx context.Context, tx *sql.Tx, sol *model.Solution) error {
	if f.createErr != nil {
		return f.createErr
	}
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
	var best *model.Solution
	for i := range f.solutions {
		s := f.solutions[i]
		if s.AuthorID != authorID || s.ChallengeID != challengeID || s.Language != language {
			continue
		}
		if best == nil || s.Score < best.Score ||
			(s.Score == best.Score && s.LastImproved.Before(best.LastImproved)) {
			sol := s
			best = &sol
		}
	}
	if best == nil {
		return nil, common.ErrNotFound
	}
	return best, nil
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
		acc := f.accounts[s.AuthorID]
		entries = append(entries, model.LeaderboardEntry{
			SolutionID:   s.ID,
			AuthorID:     s.AuthorID,
			AuthorName:   acc.Username,
			AuthorAvatar: acc.Avatar,
			Score:        s.Score,
		})
	}
	return entries, nil
}

func (f *fakeSolutionRepo) ListInvalidated(ctx context.Context, authorID string) ([]model.InvalidatedSolution, error) {
	out := []model.InvalidatedSolution{}
	for _, s := range f.solutions {
		if s.AuthorID == authorID && !s.Valid {
			out = append(out, model.InvalidatedSolution{
				Language:      s.Language,
				ChallengeID:   s.ChallengeID,
				ChallengeName: f.challenges[s.ChallengeID].Name,
			})
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
	challenges  map[string]model.Challenge // by id
	languages   map[string]model.Language  // by slug
	languageErr error                      // forced failure for GetLanguageBySlug
}

func newFakeChallengeRepo() *fakeChallengeRepo {
	return &fakeChallengeRepo{
		challenges: map[string]model.Challenge{},
		languages:  map[string]model.Language{},
	}
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
	for _, c := range f.challenges {
		if c.Slug == slug {
			challenge := c
			return &challenge, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeChallengeRepo) ListChallenges(ctx context.Context, limit, offset int) ([]model.Challenge, int, error) {
	out := []model.Challenge{}
	for _, c := range f.challenges {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (f *fakeChallengeRepo) ReviseCriteria(ctx context.Context, tx *sql.Tx, challengeID, criteria string) error {
	c, ok := f.challenges[challengeID]
	if !ok {
		return common.ErrNotFound
	}
	c.GradingCriteria = criteria
	c.CriteriaRevision++
	f.challenges[challengeID] = c
	return nil
}

func (f *fakeChallengeRepo) GetLanguageBySlug(ctx context.Context, slug string) (*model.Language, error) {
	if f.languageErr != nil {
		return nil, f.languageErr
	}
	l, ok := f.languages[slug]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &l, nil
}

func (f *fakeChallengeRepo) ListLanguages(ctx context.Context) ([]model.Language, error) {
	out := []model.Language{}
	for _, l := range f.languages {
		out = append(out, l)
	}
	return out, nil
}

type fakeAccountRepo struct {
	accounts map[string]model.Account // by id
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[string]model.Account{}}
}

func (f *fakeAccountRepo) Create(ctx context.Context, account *model.Account) error {
	for _, a := range f.accounts {
		if a.Username == account.Username || a.Email == account.Email {
			return common.ErrConflict
		}
	}
	f.accounts[account.ID] = *account
	return nil
}

func (f *fakeAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	for _, a := range f.accounts {
		if a.Email == email {
			acc := a
			return &acc, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeAccountRepo) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	for _, a := range f.accounts {
		if a.Username == username {
			acc := a
			return &acc, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &a, nil
}

// stubGrader returns a canned verdict per code string, or a fixed error.
type stubGrader struct {
	verdicts map[string]grader.Verdict
	err      error
	calls    int
}

func (g *stubGrader) Grade(ctx context.Context, req grader.GradeRequest) (grader.Verdict, error) {
	g.calls++
	if g.err != nil {
		return grader.Verdict{}, g.err
	}
	return g.verdicts[req.Code], nil
}
