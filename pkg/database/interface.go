package database

import (
	"errors"

	"cohort-roster-backend/pkg/models"
)

// ErrNotFound is returned when a lookup resolves no row. Callers map it to
// a 404; every other error is a data-access failure and maps to a 500.
var ErrNotFound = errors.New("not found")

// DatabaseInterface is the storage contract shared by the Postgres and
// in-memory implementations.
type DatabaseInterface interface {
	// Users
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)

	// Cohorts
	CreateCohort(cohort *models.Cohort) error
	GetCohortByID(id string) (*models.Cohort, error)
	ListCohortsByUser(userID string) ([]models.Cohort, error)
	UpdateCohort(cohort *models.Cohort) error
	DeleteCohort(id string) error

	// Access grants
	CreateAccessGrant(grant *models.CohortAccess) error
	GetAccessGrantByID(id string) (*models.CohortAccess, error)
	ListAccessGrants(cohortID string) ([]models.CohortAccess, error)
	DeleteAccessGrant(id string) error

	// HasCohortAccess reports whether userID may act on cohortID at exactly
	// the given permission level: true when the user owns the cohort, or
	// when a grant row matches the permission literally. A missing cohort
	// is a plain false, not an error.
	HasCohortAccess(userID, cohortID string, permission models.Permission) (bool, error)

	// Students
	CreateStudent(student *models.Student) error
	GetStudentByID(id string) (*models.Student, error)
	ListStudentsByCohort(cohortID string) ([]models.Student, error)
	UpdateStudent(student *models.Student) error
	DeleteStudent(id string) error

	HealthCheck() error
	Close() error
}

// DatabaseConfig selects and parameterizes the storage implementation.
type DatabaseConfig struct {
	UseLocalDB  bool
	PostgresDSN string
	Debug       bool
}

// NewDatabase selects the storage implementation from configuration.
// Postgres is the production store; the in-memory store backs local
// development and tests.
func NewDatabase(config DatabaseConfig) (DatabaseInterface, error) {
	if config.UseLocalDB {
		return NewMemoryDatabase(), nil
	}
	return NewPostgresDatabase(config.PostgresDSN)
}
