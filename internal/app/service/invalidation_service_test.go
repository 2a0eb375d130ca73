package service

import (
	"code_golf/internal/common"
	"code_golf/internal/domain/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListReturnsExactlyTheInvalidPairs(t *testing.T) {
	solRepo := newFakeSolutionRepo()
	solRepo.challenges["chal-1"] = model.Challenge{ID: "chal-1", Name: "Reverse a String"}
	solRepo.challenges["chal-2"] = model.Challenge{ID: "chal-2", Name: "FizzBuzz"}
	now := time.Now()
	solRepo.solutions = []model.Solution{
		{ID: "s1", Language: "python", ChallengeID: "chal-1", AuthorID: "acct-1", Score: 10, Valid: false, LastImproved: now},
		{ID: "s2", Language: "ruby", ChallengeID: "chal-2", AuthorID: "acct-1", Score: 7, Valid: false, LastImproved: now},
		{ID: "s3", Language: "python", ChallengeID: "chal-2", AuthorID: "acct-1", Score: 4, Valid: true, LastImproved: now},
		{ID: "s4", Language: "python", ChallengeID: "chal-1", AuthorID: "acct-2", Score: 3, Valid: false, LastImproved: now},
	}

	svc := NewInvalidationService(solRepo)
	invalidated, err := svc.List(context.Background(), "acct-1")
	require.NoError(t, err)

	assert.ElementsMatch(t, []model.InvalidatedSolution{
		{Language: "python", ChallengeID: "chal-1", ChallengeName: "Reverse a String"},
		{Language: "ruby", ChallengeID: "chal-2", ChallengeName: "FizzBuzz"},
	}, invalidated, "valid rows and other accounts' rows are excluded")
}

func TestHasMatchesListNonEmptiness(t *testing.T) {
	solRepo := newFakeSolutionRepo()
	solRepo.challenges["chal-1"] = model.Challenge{ID: "chal-1", Name: "Reverse a String"}
	svc := NewInvalidationService(solRepo)

	has, err := svc.Has(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.False(t, has, "no solutions at all")

	solRepo.solutions = append(solRepo.solutions, model.Solution{
		ID: "s-ok", Language: "python", ChallengeID: "chal-1", AuthorID: "acct-1", Valid: true,
	})
	has, err = svc.Has(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.False(t, has, "only valid solutions")

	solRepo.solutions = append(solRepo.solutions, model.Solution{
		ID: "s-bad", Language: "ruby", ChallengeID: "chal-1", AuthorID: "acct-1", Valid: false,
	})
	has, err = svc.Has(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.True(t, has)

	invalidated, err := svc.List(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.NotEmpty(t, invalidated, "Has true iff the list is non-empty")
}

func TestInvalidationRequiresAccount(t *testing.T) {
	svc := NewInvalidationService(newFakeSolutionRepo())

	_, err := svc.List(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.Has(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
