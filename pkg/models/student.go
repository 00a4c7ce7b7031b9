package models

import "time"

// Subgroup bounds. Students belong to one of three fixed subgroups.
const (
	SubgroupMin = 1
	SubgroupMax = 3
)

// Student is a roster entry inside a cohort.
type Student struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Subgroup  int       `json:"subgroup" db:"subgroup"`
	PhotoURL  *string   `json:"photo_url" db:"photo_url"`
	CohortID  string    `json:"cohort_id" db:"cohort_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ValidSubgroup reports whether n is one of the three fixed subgroup values.
func ValidSubgroup(n int) bool {
	return n >= SubgroupMin && n <= SubgroupMax
}

// StudentCreateRequest represents the request payload for student creation
type StudentCreateRequest struct {
	Name     string  `json:"name"`
	Subgroup int     `json:"subgroup"`
	PhotoURL *string `json:"photo_url"`
	CohortID string  `json:"cohort_id"`
}

// StudentUpdateRequest represents the request payload for updating a student.
// The cohort reference is immutable through this endpoint.
type StudentUpdateRequest struct {
	Name     string  `json:"name"`
	Subgroup int     `json:"subgroup"`
	PhotoURL *string `json:"photo_url"`
}
