package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohort-roster-backend/pkg/database"
	"cohort-roster-backend/pkg/models"
)

// brokenStore fails every access query, standing in for an unreachable
// database. Unoverridden methods panic; the evaluator must not reach them.
type brokenStore struct {
	database.DatabaseInterface
	err error
}

func (s *brokenStore) HasCohortAccess(userID, cohortID string, permission models.Permission) (bool, error) {
	return false, s.err
}

func (s *brokenStore) GetCohortByID(id string) (*models.Cohort, error) {
	return nil, s.err
}

func seedCohort(t *testing.T, db *database.MemoryDatabase, ownerEmail string) (owner *models.User, cohort *models.Cohort) {
	t.Helper()

	owner = &models.User{Email: ownerEmail, Password: "x"}
	require.NoError(t, db.CreateUser(owner))

	cohort = &models.Cohort{Name: "Math101", OwnerID: owner.ID}
	require.NoError(t, db.CreateCohort(cohort))
	return owner, cohort
}

func seedGrant(t *testing.T, db *database.MemoryDatabase, cohortID, email string, perm models.Permission) *models.User {
	t.Helper()

	user := &models.User{Email: email, Password: "x"}
	require.NoError(t, db.CreateUser(user))
	require.NoError(t, db.CreateAccessGrant(&models.CohortAccess{
		CohortID:   cohortID,
		UserID:     user.ID,
		Permission: perm,
	}))
	return user
}

func TestAuthorizeOwnerPassesBothLevelsWithoutGrant(t *testing.T) {
	db := database.NewMemoryDatabase()
	owner, cohort := seedCohort(t, db, "owner@example.com")
	eval := NewEvaluator(db)

	for _, perm := range []models.Permission{models.PermissionView, models.PermissionEdit} {
		allowed, err := eval.Authorize(owner.ID, cohort.ID, perm)
		require.NoError(t, err)
		assert.True(t, allowed, "owner must pass %s without a grant row", perm)
	}
}

func TestAuthorizeGrantMatchesPermissionLiterally(t *testing.T) {
	db := database.NewMemoryDatabase()
	_, cohort := seedCohort(t, db, "owner@example.com")
	viewer := seedGrant(t, db, cohort.ID, "viewer@example.com", models.PermissionView)
	editor := seedGrant(t, db, cohort.ID, "editor@example.com", models.PermissionEdit)
	eval := NewEvaluator(db)

	tests := []struct {
		name    string
		userID  string
		perm    models.Permission
		allowed bool
	}{
		{"view grant passes view check", viewer.ID, models.PermissionView, true},
		{"view grant fails edit check", viewer.ID, models.PermissionEdit, false},
		{"edit grant passes edit check", editor.ID, models.PermissionEdit, true},
		// Exact-match semantics: an edit grant does not imply view.
		{"edit grant fails view check", editor.ID, models.PermissionView, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := eval.Authorize(tt.userID, cohort.ID, tt.perm)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
		})
	}
}

func TestAuthorizeUnrelatedUserDenied(t *testing.T) {
	db := database.NewMemoryDatabase()
	_, cohort := seedCohort(t, db, "owner@example.com")
	stranger := &models.User{Email: "stranger@example.com", Password: "x"}
	require.NoError(t, db.CreateUser(stranger))
	eval := NewEvaluator(db)

	allowed, err := eval.Authorize(stranger.ID, cohort.ID, models.PermissionView)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAuthorizeNonexistentCohortIsDenialNotError(t *testing.T) {
	db := database.NewMemoryDatabase()
	owner, _ := seedCohort(t, db, "owner@example.com")
	eval := NewEvaluator(db)

	for _, perm := range []models.Permission{models.PermissionView, models.PermissionEdit} {
		allowed, err := eval.Authorize(owner.ID, "no-such-cohort", perm)
		require.NoError(t, err)
		assert.False(t, allowed)
	}
}

func TestAuthorizeDefaultsToView(t *testing.T) {
	db := database.NewMemoryDatabase()
	_, cohort := seedCohort(t, db, "owner@example.com")
	viewer := seedGrant(t, db, cohort.ID, "viewer@example.com", models.PermissionView)
	eval := NewEvaluator(db)

	allowed, err := eval.Authorize(viewer.ID, cohort.ID, "")
	require.NoError(t, err)
	assert.True(t, allowed, "empty permission must default to view")
}

func TestAuthorizeRejectsUnknownPermission(t *testing.T) {
	db := database.NewMemoryDatabase()
	owner, cohort := seedCohort(t, db, "owner@example.com")
	eval := NewEvaluator(db)

	allowed, err := eval.Authorize(owner.ID, cohort.ID, models.Permission("admin"))
	require.Error(t, err)
	assert.False(t, allowed)
}

// A store failure must surface as an error, never as a plain denial:
// callers map errors to 500 and denials to 403.
func TestAuthorizeStoreFailureIsErrorNotDenial(t *testing.T) {
	storeErr := errors.New("connection reset by peer")
	eval := NewEvaluator(&brokenStore{err: storeErr})

	allowed, err := eval.Authorize("user", "cohort", models.PermissionView)
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, allowed)
}

func TestIsOwnerStoreFailureIsErrorNotDenial(t *testing.T) {
	storeErr := errors.New("connection reset by peer")
	eval := NewEvaluator(&brokenStore{err: storeErr})

	isOwner, err := eval.IsOwner("user", "cohort")
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, isOwner)
}

func TestIsOwner(t *testing.T) {
	db := database.NewMemoryDatabase()
	owner, cohort := seedCohort(t, db, "owner@example.com")
	editor := seedGrant(t, db, cohort.ID, "editor@example.com", models.PermissionEdit)
	eval := NewEvaluator(db)

	isOwner, err := eval.IsOwner(owner.ID, cohort.ID)
	require.NoError(t, err)
	assert.True(t, isOwner)

	// An edit grant never confers ownership.
	isOwner, err = eval.IsOwner(editor.ID, cohort.ID)
	require.NoError(t, err)
	assert.False(t, isOwner)

	isOwner, err = eval.IsOwner(owner.ID, "no-such-cohort")
	require.NoError(t, err)
	assert.False(t, isOwner)
}
