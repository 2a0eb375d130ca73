package model

import "time"

// Solution is one submitted attempt for an (author, challenge, language)
// triple. Every submission is stored; the row with the minimal score among
// the triple's rows is the canonical "best". Score and Valid come from the
// grading verdict at submission time and are only ever rewritten by
// re-grading after a criteria revision.
type Solution struct {
	ID           string    `json:"id"`
	Language     string    `json:"language"`
	Version      string    `json:"version"` // Runtime version at submission time
	ChallengeID  string    `json:"challenge_id"`
	Code         string    `json:"code"`
	AuthorID     string    `json:"author_id"`
	Score        int       `json:"score"` // Lower is better
	Valid        bool      `json:"valid"`
	LastImproved time.Time `json:"last_improved"`
}

// SubmissionOutcome is what Submit reports back for rendering feedback.
type SubmissionOutcome struct {
	SolutionID string `json:"solution_id"`
	Valid      bool   `json:"valid"`
	Score      int    `json:"score"`
	Improved   bool   `json:"improved"` // True when this submission became the author's best
}

// LeaderboardEntry joins a valid solution with its author's display
// attributes for one (challenge, language) pair. Derived, never persisted.
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	SolutionID   string `json:"solution_id"`
	AuthorID     string `json:"author_id"`
	AuthorName   string `json:"author_name"`
	AuthorAvatar string `json:"author_avatar"`
	Score        int    `json:"score"`
}

// InvalidatedSolution names a (language, challenge) pair where an account's
// stored solution no longer satisfies the challenge's criteria and needs to
// be resubmitted.
type InvalidatedSolution struct {
	Language      string `json:"language"`
	ChallengeID   string `json:"challenge_id"`
	ChallengeName string `json:"challenge_name"`
}
