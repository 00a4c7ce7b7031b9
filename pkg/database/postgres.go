package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cohort-roster-backend/pkg/models"

	_ "github.com/lib/pq"
)

// PostgresDatabase implements DatabaseInterface over database/sql with lib/pq.
type PostgresDatabase struct {
	db *sql.DB
}

// NewPostgresDatabase opens a connection pool against the given DSN and
// verifies it with a ping.
func NewPostgresDatabase(dsn string) (*PostgresDatabase, error) {
	// Sanitize DSN to avoid stray whitespace from env values
	dsn = strings.TrimSpace(dsn)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresDatabase{db: db}, nil
}

// DB exposes the underlying handle for migrations and pool stats.
func (p *PostgresDatabase) DB() *sql.DB {
	return p.db
}

// Stats returns connection pool statistics for the debug endpoint.
func (p *PostgresDatabase) Stats() map[string]interface{} {
	s := p.db.Stats()
	return map[string]interface{}{
		"open_connections": s.OpenConnections,
		"in_use":           s.InUse,
		"idle":             s.Idle,
		"wait_count":       s.WaitCount,
		"wait_duration":    s.WaitDuration.String(),
	}
}

// CreateUser inserts a user and fills the generated id and timestamps.
func (p *PostgresDatabase) CreateUser(user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := p.db.QueryRow(query, user.Email, user.Password).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail looks a user up by exact email match.
func (p *PostgresDatabase) GetUserByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var u models.User
	err := p.db.QueryRow(query, email).Scan(
		&u.ID, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// GetUserByID looks a user up by id.
func (p *PostgresDatabase) GetUserByID(id string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var u models.User
	err := p.db.QueryRow(query, id).Scan(
		&u.ID, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// CreateCohort inserts a cohort and fills the generated id and timestamps.
func (p *PostgresDatabase) CreateCohort(cohort *models.Cohort) error {
	query := `
		INSERT INTO cohorts (name, owner_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := p.db.QueryRow(query, cohort.Name, cohort.OwnerID).
		Scan(&cohort.ID, &cohort.CreatedAt, &cohort.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create cohort: %w", err)
	}
	return nil
}

// GetCohortByID looks a cohort up by id.
func (p *PostgresDatabase) GetCohortByID(id string) (*models.Cohort, error) {
	query := `
		SELECT id, name, owner_id, created_at, updated_at
		FROM cohorts
		WHERE id = $1
	`
	var c models.Cohort
	err := p.db.QueryRow(query, id).Scan(
		&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cohort: %w", err)
	}
	return &c, nil
}

// ListCohortsByUser returns every cohort the user owns or holds any grant on.
func (p *PostgresDatabase) ListCohortsByUser(userID string) ([]models.Cohort, error) {
	query := `
		SELECT DISTINCT c.id, c.name, c.owner_id, c.created_at, c.updated_at
		FROM cohorts c
		LEFT JOIN cohort_access ca ON c.id = ca.cohort_id
		WHERE c.owner_id = $1 OR ca.user_id = $1
		ORDER BY c.created_at DESC
	`
	rows, err := p.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cohorts: %w", err)
	}
	defer rows.Close()

	var cohorts []models.Cohort
	for rows.Next() {
		var c models.Cohort
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cohort: %w", err)
		}
		cohorts = append(cohorts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cohorts: %w", err)
	}
	return cohorts, nil
}

// UpdateCohort renames a cohort. The owner never changes here.
func (p *PostgresDatabase) UpdateCohort(cohort *models.Cohort) error {
	query := `
		UPDATE cohorts
		SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at
	`
	err := p.db.QueryRow(query, cohort.Name, cohort.ID).Scan(&cohort.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update cohort: %w", err)
	}
	return nil
}

// DeleteCohort removes a cohort; students and grants cascade at the schema level.
func (p *PostgresDatabase) DeleteCohort(id string) error {
	result, err := p.db.Exec(`DELETE FROM cohorts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cohort: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateAccessGrant inserts a grant, replacing any existing grant for the
// same (cohort, user) pair.
func (p *PostgresDatabase) CreateAccessGrant(grant *models.CohortAccess) error {
	query := `
		INSERT INTO cohort_access (cohort_id, user_id, permissions, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (cohort_id, user_id)
		DO UPDATE SET permissions = EXCLUDED.permissions
		RETURNING id, created_at
	`
	err := p.db.QueryRow(query, grant.CohortID, grant.UserID, string(grant.Permission)).
		Scan(&grant.ID, &grant.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create access grant: %w", err)
	}
	return nil
}

// GetAccessGrantByID looks an access grant up by id.
func (p *PostgresDatabase) GetAccessGrantByID(id string) (*models.CohortAccess, error) {
	query := `
		SELECT id, cohort_id, user_id, permissions, created_at
		FROM cohort_access
		WHERE id = $1
	`
	var g models.CohortAccess
	err := p.db.QueryRow(query, id).Scan(
		&g.ID, &g.CohortID, &g.UserID, &g.Permission, &g.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get access grant: %w", err)
	}
	return &g, nil
}

// ListAccessGrants returns all grants on a cohort.
func (p *PostgresDatabase) ListAccessGrants(cohortID string) ([]models.CohortAccess, error) {
	query := `
		SELECT id, cohort_id, user_id, permissions, created_at
		FROM cohort_access
		WHERE cohort_id = $1
	`
	rows, err := p.db.Query(query, cohortID)
	if err != nil {
		return nil, fmt.Errorf("failed to list access grants: %w", err)
	}
	defer rows.Close()

	var grants []models.CohortAccess
	for rows.Next() {
		var g models.CohortAccess
		if err := rows.Scan(&g.ID, &g.CohortID, &g.UserID, &g.Permission, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan access grant: %w", err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access grants: %w", err)
	}
	return grants, nil
}

// DeleteAccessGrant removes a grant by id.
func (p *PostgresDatabase) DeleteAccessGrant(id string) error {
	result, err := p.db.Exec(`DELETE FROM cohort_access WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete access grant: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// HasCohortAccess evaluates owner-or-grant access in a single query. The
// grant side matches the permission literally: an edit grant does not
// satisfy a view check.
func (p *PostgresDatabase) HasCohortAccess(userID, cohortID string, permission models.Permission) (bool, error) {
	query := `
		SELECT 1 FROM cohorts c
		LEFT JOIN cohort_access ca ON c.id = ca.cohort_id
		WHERE c.id = $1 AND (c.owner_id = $2 OR (ca.user_id = $2 AND ca.permissions = $3))
		LIMIT 1
	`
	var one int
	err := p.db.QueryRow(query, cohortID, userID, string(permission)).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check cohort access: %w", err)
	}
	return true, nil
}

// CreateStudent inserts a student and fills the generated id and timestamps.
func (p *PostgresDatabase) CreateStudent(student *models.Student) error {
	query := `
		INSERT INTO students (name, subgroup, photo_url, cohort_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := p.db.QueryRow(query, student.Name, student.Subgroup, student.PhotoURL, student.CohortID).
		Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// GetStudentByID looks a student up by id.
func (p *PostgresDatabase) GetStudentByID(id string) (*models.Student, error) {
	query := `
		SELECT id, name, subgroup, photo_url, cohort_id, created_at, updated_at
		FROM students
		WHERE id = $1
	`
	var s models.Student
	err := p.db.QueryRow(query, id).Scan(
		&s.ID, &s.Name, &s.Subgroup, &s.PhotoURL, &s.CohortID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &s, nil
}

// ListStudentsByCohort returns students in a cohort ordered by name.
func (p *PostgresDatabase) ListStudentsByCohort(cohortID string) ([]models.Student, error) {
	query := `
		SELECT id, name, subgroup, photo_url, cohort_id, created_at, updated_at
		FROM students
		WHERE cohort_id = $1
		ORDER BY name
	`
	rows, err := p.db.Query(query, cohortID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Subgroup, &s.PhotoURL, &s.CohortID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating students: %w", err)
	}
	return students, nil
}

// UpdateStudent updates a student's mutable fields.
func (p *PostgresDatabase) UpdateStudent(student *models.Student) error {
	query := `
		UPDATE students
		SET name = $1, subgroup = $2, photo_url = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`
	err := p.db.QueryRow(query, student.Name, student.Subgroup, student.PhotoURL, student.ID).
		Scan(&student.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update student: %w", err)
	}
	return nil
}

// DeleteStudent removes a student by id.
func (p *PostgresDatabase) DeleteStudent(id string) error {
	result, err := p.db.Exec(`DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// HealthCheck pings the database.
func (p *PostgresDatabase) HealthCheck() error {
	if err := p.db.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *PostgresDatabase) Close() error {
	return p.db.Close()
}
