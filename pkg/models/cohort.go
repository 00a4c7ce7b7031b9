package models

import "time"

// Cohort is a named group of students owned by exactly one user.
// The owner is set at creation and never changes through the API.
type Cohort struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CohortCreateRequest represents the request payload for cohort creation
type CohortCreateRequest struct {
	Name string `json:"name"`
}

// CohortUpdateRequest represents the request payload for renaming a cohort
type CohortUpdateRequest struct {
	Name string `json:"name"`
}
