package database

import (
	"sort"
	"sync"
	"time"

	"cohort-roster-backend/pkg/models"

	"github.com/google/uuid"
)

// MemoryDatabase is an in-memory DatabaseInterface implementation. It backs
// local development without Postgres and the test suite. All methods copy
// values in and out so callers never share memory with the store.
type MemoryDatabase struct {
	mu       sync.RWMutex
	users    map[string]models.User
	cohorts  map[string]models.Cohort
	grants   map[string]models.CohortAccess
	students map[string]models.Student
}

// NewMemoryDatabase creates an empty in-memory store.
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		users:    make(map[string]models.User),
		cohorts:  make(map[string]models.Cohort),
		grants:   make(map[string]models.CohortAccess),
		students: make(map[string]models.Student),
	}
}

// CreateUser stores a user, generating an id and timestamps.
func (m *MemoryDatabase) CreateUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users[user.ID] = *user
	return nil
}

// GetUserByEmail looks a user up by exact email match.
func (m *MemoryDatabase) GetUserByEmail(email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// GetUserByID looks a user up by id.
func (m *MemoryDatabase) GetUserByID(id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := u
	return &user, nil
}

// deleteUserLocked removes a user directly; only tests exercise this path
// through DeleteUserForTest.
func (m *MemoryDatabase) deleteUserLocked(id string) {
	delete(m.users, id)
}

// DeleteUserForTest removes a user so tests can simulate an identity deleted
// after token issuance. No API operation deletes users.
func (m *MemoryDatabase) DeleteUserForTest(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteUserLocked(id)
}

// CreateCohort stores a cohort, generating an id and timestamps.
func (m *MemoryDatabase) CreateCohort(cohort *models.Cohort) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cohort.ID == "" {
		cohort.ID = uuid.New().String()
	}
	now := time.Now()
	cohort.CreatedAt = now
	cohort.UpdatedAt = now
	m.cohorts[cohort.ID] = *cohort
	return nil
}

// GetCohortByID looks a cohort up by id.
func (m *MemoryDatabase) GetCohortByID(id string) (*models.Cohort, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cohorts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cohort := c
	return &cohort, nil
}

// ListCohortsByUser returns every cohort the user owns or holds any grant on,
// newest first.
func (m *MemoryDatabase) ListCohortsByUser(userID string) ([]models.Cohort, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var cohorts []models.Cohort
	for _, c := range m.cohorts {
		if c.OwnerID == userID {
			cohorts = append(cohorts, c)
			seen[c.ID] = true
		}
	}
	for _, g := range m.grants {
		if g.UserID == userID && !seen[g.CohortID] {
			if c, ok := m.cohorts[g.CohortID]; ok {
				cohorts = append(cohorts, c)
				seen[c.ID] = true
			}
		}
	}

	sort.Slice(cohorts, func(i, j int) bool {
		return cohorts[i].CreatedAt.After(cohorts[j].CreatedAt)
	})
	return cohorts, nil
}

// UpdateCohort renames a cohort.
func (m *MemoryDatabase) UpdateCohort(cohort *models.Cohort) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.cohorts[cohort.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = cohort.Name
	existing.UpdatedAt = time.Now()
	m.cohorts[cohort.ID] = existing
	*cohort = existing
	return nil
}

// DeleteCohort removes a cohort along with its students and grants,
// mirroring the schema-level cascade.
func (m *MemoryDatabase) DeleteCohort(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cohorts[id]; !ok {
		return ErrNotFound
	}
	delete(m.cohorts, id)
	for gid, g := range m.grants {
		if g.CohortID == id {
			delete(m.grants, gid)
		}
	}
	for sid, s := range m.students {
		if s.CohortID == id {
			delete(m.students, sid)
		}
	}
	return nil
}

// CreateAccessGrant stores a grant, replacing any existing grant for the
// same (cohort, user) pair.
func (m *MemoryDatabase) CreateAccessGrant(grant *models.CohortAccess) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for gid, g := range m.grants {
		if g.CohortID == grant.CohortID && g.UserID == grant.UserID {
			g.Permission = grant.Permission
			m.grants[gid] = g
			*grant = g
			return nil
		}
	}

	if grant.ID == "" {
		grant.ID = uuid.New().String()
	}
	grant.CreatedAt = time.Now()
	m.grants[grant.ID] = *grant
	return nil
}

// GetAccessGrantByID looks an access grant up by id.
func (m *MemoryDatabase) GetAccessGrantByID(id string) (*models.CohortAccess, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.grants[id]
	if !ok {
		return nil, ErrNotFound
	}
	grant := g
	return &grant, nil
}

// ListAccessGrants returns all grants on a cohort.
func (m *MemoryDatabase) ListAccessGrants(cohortID string) ([]models.CohortAccess, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var grants []models.CohortAccess
	for _, g := range m.grants {
		if g.CohortID == cohortID {
			grants = append(grants, g)
		}
	}
	sort.Slice(grants, func(i, j int) bool {
		return grants[i].CreatedAt.Before(grants[j].CreatedAt)
	})
	return grants, nil
}

// DeleteAccessGrant removes a grant by id.
func (m *MemoryDatabase) DeleteAccessGrant(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.grants[id]; !ok {
		return ErrNotFound
	}
	delete(m.grants, id)
	return nil
}

// HasCohortAccess evaluates owner-or-grant access. The grant side matches
// the permission literally, same as the SQL implementation.
func (m *MemoryDatabase) HasCohortAccess(userID, cohortID string, permission models.Permission) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cohorts[cohortID]
	if !ok {
		return false, nil
	}
	if c.OwnerID == userID {
		return true, nil
	}
	for _, g := range m.grants {
		if g.CohortID == cohortID && g.UserID == userID && g.Permission == permission {
			return true, nil
		}
	}
	return false, nil
}

// CreateStudent stores a student, generating an id and timestamps. The
// cohort must exist, mirroring the foreign key.
func (m *MemoryDatabase) CreateStudent(student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cohorts[student.CohortID]; !ok {
		return ErrNotFound
	}
	if student.ID == "" {
		student.ID = uuid.New().String()
	}
	now := time.Now()
	student.CreatedAt = now
	student.UpdatedAt = now
	m.students[student.ID] = *student
	return nil
}

// GetStudentByID looks a student up by id.
func (m *MemoryDatabase) GetStudentByID(id string) (*models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.students[id]
	if !ok {
		return nil, ErrNotFound
	}
	student := s
	return &student, nil
}

// ListStudentsByCohort returns students in a cohort ordered by name.
func (m *MemoryDatabase) ListStudentsByCohort(cohortID string) ([]models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var students []models.Student
	for _, s := range m.students {
		if s.CohortID == cohortID {
			students = append(students, s)
		}
	}
	sort.Slice(students, func(i, j int) bool {
		return students[i].Name < students[j].Name
	})
	return students, nil
}

// UpdateStudent updates a student's mutable fields.
func (m *MemoryDatabase) UpdateStudent(student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.students[student.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = student.Name
	existing.Subgroup = student.Subgroup
	existing.PhotoURL = student.PhotoURL
	existing.UpdatedAt = time.Now()
	m.students[student.ID] = existing
	*student = existing
	return nil
}

// DeleteStudent removes a student by id.
func (m *MemoryDatabase) DeleteStudent(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[id]; !ok {
		return ErrNotFound
	}
	delete(m.students, id)
	return nil
}

// HealthCheck always succeeds for the in-memory store.
func (m *MemoryDatabase) HealthCheck() error {
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryDatabase) Close() error {
	return nil
}
