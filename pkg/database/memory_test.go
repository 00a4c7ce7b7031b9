package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohort-roster-backend/pkg/models"
)

func newUser(t *testing.T, db *MemoryDatabase, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "hash"}
	require.NoError(t, db.CreateUser(u))
	return u
}

func newCohort(t *testing.T, db *MemoryDatabase, name, ownerID string) *models.Cohort {
	t.Helper()
	c := &models.Cohort{Name: name, OwnerID: ownerID}
	require.NoError(t, db.CreateCohort(c))
	return c
}

func TestUserRoundTrip(t *testing.T) {
	db := NewMemoryDatabase()
	u := newUser(t, db, "a@example.com")
	require.NotEmpty(t, u.ID)

	byEmail, err := db.GetUserByEmail("a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := db.GetUserByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", byID.Email)

	_, err = db.GetUserByEmail("missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetUserByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmailLookupIsCaseSensitive(t *testing.T) {
	db := NewMemoryDatabase()
	newUser(t, db, "Case@Example.com")

	_, err := db.GetUserByEmail("case@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCohortRoundTrip(t *testing.T) {
	db := NewMemoryDatabase()
	owner := newUser(t, db, "owner@example.com")
	c := newCohort(t, db, "Math101", owner.ID)
	require.NotEmpty(t, c.ID)

	got, err := db.GetCohortByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Math101", got.Name)
	assert.Equal(t, owner.ID, got.OwnerID)

	got.Name = "Math102"
	require.NoError(t, db.UpdateCohort(got))
	reread, err := db.GetCohortByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Math102", reread.Name)
	// Rename never touches ownership.
	assert.Equal(t, owner.ID, reread.OwnerID)
}

func TestListCohortsByUserIncludesOwnedAndGranted(t *testing.T) {
	db := NewMemoryDatabase()
	alice := newUser(t, db, "alice@example.com")
	bob := newUser(t, db, "bob@example.com")

	owned := newCohort(t, db, "Owned", alice.ID)
	shared := newCohort(t, db, "Shared", bob.ID)
	newCohort(t, db, "Unrelated", bob.ID)

	require.NoError(t, db.CreateAccessGrant(&models.CohortAccess{
		CohortID: shared.ID, UserID: alice.ID, Permission: models.PermissionView,
	}))

	cohorts, err := db.ListCohortsByUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, cohorts, 2)

	ids := []string{cohorts[0].ID, cohorts[1].ID}
	assert.Contains(t, ids, owned.ID)
	assert.Contains(t, ids, shared.ID)
}

func TestDeleteCohortCascades(t *testing.T) {
	db := NewMemoryDatabase()
	owner := newUser(t, db, "owner@example.com")
	viewer := newUser(t, db, "viewer@example.com")
	c := newCohort(t, db, "Math101", owner.ID)

	grant := &models.CohortAccess{CohortID: c.ID, UserID: viewer.ID, Permission: models.PermissionView}
	require.NoError(t, db.CreateAccessGrant(grant))

	student := &models.Student{Name: "Jan", Subgroup: 1, CohortID: c.ID}
	require.NoError(t, db.CreateStudent(student))

	require.NoError(t, db.DeleteCohort(c.ID))

	_, err := db.GetCohortByID(c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetStudentByID(student.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetAccessGrantByID(grant.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAccessGrantReplacesExistingPair(t *testing.T) {
	db := NewMemoryDatabase()
	owner := newUser(t, db, "owner@example.com")
	viewer := newUser(t, db, "viewer@example.com")
	c := newCohort(t, db, "Math101", owner.ID)

	first := &models.CohortAccess{CohortID: c.ID, UserID: viewer.ID, Permission: models.PermissionView}
	require.NoError(t, db.CreateAccessGrant(first))

	second := &models.CohortAccess{CohortID: c.ID, UserID: viewer.ID, Permission: models.PermissionEdit}
	require.NoError(t, db.CreateAccessGrant(second))

	// One row per (cohort, user) pair; the permission was replaced.
	assert.Equal(t, first.ID, second.ID)
	grants, err := db.ListAccessGrants(c.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, models.PermissionEdit, grants[0].Permission)
}

func TestHasCohortAccessExactMatch(t *testing.T) {
	db := NewMemoryDatabase()
	owner := newUser(t, db, "owner@example.com")
	editor := newUser(t, db, "editor@example.com")
	c := newCohort(t, db, "Math101", owner.ID)
	require.NoError(t, db.CreateAccessGrant(&models.CohortAccess{
		CohortID: c.ID, UserID: editor.ID, Permission: models.PermissionEdit,
	}))

	tests := []struct {
		name    string
		userID  string
		perm    models.Permission
		allowed bool
	}{
		{"owner view", owner.ID, models.PermissionView, true},
		{"owner edit", owner.ID, models.PermissionEdit, true},
		{"editor edit", editor.ID, models.PermissionEdit, true},
		{"editor view denied under exact match", editor.ID, models.PermissionView, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := db.HasCohortAccess(tt.userID, c.ID, tt.perm)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
		})
	}

	allowed, err := db.HasCohortAccess(owner.ID, "missing", models.PermissionView)
	require.NoError(t, err)
	assert.False(t, allowed, "missing cohort is a denial, not an error")
}

func TestStudentRoundTrip(t *testing.T) {
	db := NewMemoryDatabase()
	owner := newUser(t, db, "owner@example.com")
	c := newCohort(t, db, "Math101", owner.ID)

	photo := "/uploads/jan.png"
	s := &models.Student{Name: "Jan", Subgroup: 1, PhotoURL: &photo, CohortID: c.ID}
	require.NoError(t, db.CreateStudent(s))
	require.NotEmpty(t, s.ID)

	got, err := db.GetStudentByID(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jan", got.Name)
	assert.Equal(t, 1, got.Subgroup)
	require.NotNil(t, got.PhotoURL)
	assert.Equal(t, photo, *got.PhotoURL)
	assert.Equal(t, c.ID, got.CohortID)

	got.Name = "Jana"
	got.Subgroup = 2
	got.PhotoURL = nil
	require.NoError(t, db.UpdateStudent(got))
	reread, err := db.GetStudentByID(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jana", reread.Name)
	assert.Equal(t, 2, reread.Subgroup)
	assert.Nil(t, reread.PhotoURL)

	require.NoError(t, db.DeleteStudent(s.ID))
	_, err = db.GetStudentByID(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateStudentRequiresExistingCohort(t *testing.T) {
	db := NewMemoryDatabase()
	s := &models.Student{Name: "Jan", Subgroup: 1, CohortID: "missing"}
	assert.ErrorIs(t, db.CreateStudent(s), ErrNotFound)
}

func TestListStudentsByCohortOrderedByName(t *testing.T) {
	db := NewMemoryDatabase()
	owner := newUser(t, db, "owner@example.com")
	c := newCohort(t, db, "Math101", owner.ID)

	for _, name := range []string{"Zoe", "Anna", "Mia"} {
		require.NoError(t, db.CreateStudent(&models.Student{Name: name, Subgroup: 1, CohortID: c.ID}))
	}

	students, err := db.ListStudentsByCohort(c.ID)
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, "Anna", students[0].Name)
	assert.Equal(t, "Mia", students[1].Name)
	assert.Equal(t, "Zoe", students[2].Name)
}
