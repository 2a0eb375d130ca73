package model

import "time"

// Challenge identity is stable; its grading criteria are owned by the
// grading service and opaque here. Every criteria revision bumps
// CriteriaRevision, which is what triggers re-grading of stored solutions.
type Challenge struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	Description      string    `json:"description"`
	GradingCriteria  string    `json:"grading_criteria,omitempty"` // Opaque, forwarded to the grader
	CriteriaRevision int       `json:"criteria_revision"`
	CreatedByID      string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
