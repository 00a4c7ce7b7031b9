// Package access decides whether an authenticated user may act on a cohort.
// Every cohort, student, and grant operation consults it before touching
// the store.
package access

import (
	"errors"
	"fmt"

	"cohort-roster-backend/pkg/database"
	"cohort-roster-backend/pkg/models"
)

// Evaluator answers (user, cohort, required-permission) authorization
// questions against current store state. It holds no cache and no mutable
// state, so it is safe for concurrent use.
type Evaluator struct {
	db database.DatabaseInterface
}

// NewEvaluator creates an evaluator backed by the given store.
func NewEvaluator(db database.DatabaseInterface) *Evaluator {
	return &Evaluator{db: db}
}

// Authorize reports whether the user may act on the cohort at the required
// permission level. It is true when the user owns the cohort, or when a
// grant row matches the permission exactly. An edit grant does not satisfy
// a view check; owners pass both. A cohort that does not exist is a plain
// denial, not an error. A store failure is returned as an error so callers
// never conflate it with a denial.
func (e *Evaluator) Authorize(userID, cohortID string, required models.Permission) (bool, error) {
	if required == "" {
		required = models.PermissionView
	}
	if !required.Valid() {
		return false, fmt.Errorf("invalid permission level: %q", required)
	}

	allowed, err := e.db.HasCohortAccess(userID, cohortID, required)
	if err != nil {
		return false, fmt.Errorf("authorization check failed: %w", err)
	}
	return allowed, nil
}

// IsOwner reports whether the user is the stored owner of the cohort. The
// strict-owner operations (delete, share, grant removal) use this instead
// of Authorize: grants never confer ownership. A missing cohort is a plain
// false.
func (e *Evaluator) IsOwner(userID, cohortID string) (bool, error) {
	cohort, err := e.db.GetCohortByID(cohortID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("ownership check failed: %w", err)
	}
	return cohort.OwnerID == userID, nil
}
