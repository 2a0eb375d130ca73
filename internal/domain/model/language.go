package model

import "time"

type Language struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`    // Exact tag used in URLs and solution rows
	Version   string    `json:"version"` // Runtime version stamped onto new solutions
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
