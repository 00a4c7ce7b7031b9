package models

import "time"

// Permission is the level of access a grant confers on a cohort.
// It is a closed two-valued enum; anything else is rejected at the edge.
type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

// Valid reports whether p is one of the two known permission levels.
func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

// CohortAccess grants a non-owner user a permission level on a cohort.
// At most one grant exists per (cohort, user) pair; sharing again replaces it.
type CohortAccess struct {
	ID         string     `json:"id" db:"id"`
	CohortID   string     `json:"cohort_id" db:"cohort_id"`
	UserID     string     `json:"user_id" db:"user_id"`
	Permission Permission `json:"permissions" db:"permissions"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// ShareRequest represents the request payload for sharing a cohort
type ShareRequest struct {
	UserID     string     `json:"user_id"`
	Permission Permission `json:"permissions"`
}
