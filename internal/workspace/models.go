package workspace

import (
	"time"

	"dashstudio/internal/schema"
)

// Record is the current stored schema for one user.
type Record struct {
	UserID    string              `json:"userId"`
	Schema    schema.DesignSchema `json:"schema"`
	Revision  int64               `json:"revision"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Version is one entry of a user's schema history. Every successful save
// appends one.
type Version struct {
	ID        string              `json:"id"`
	UserID    string              `json:"userId"`
	Revision  int64               `json:"revision"`
	Schema    schema.DesignSchema `json:"schema"`
	Note      string              `json:"note,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

// VersionSummary is a lightweight listing of a version (no schema body).
type VersionSummary struct {
	ID         string    `json:"id"`
	Revision   int64     `json:"revision"`
	Note       string    `json:"note,omitempty"`
	Components int       `json:"components"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Summary returns the listing form of v.
func (v Version) Summary() VersionSummary {
	return VersionSummary{
		ID:         v.ID,
		Revision:   v.Revision,
		Note:       v.Note,
		Components: len(v.Schema.Components),
		CreatedAt:  v.CreatedAt,
	}
}
