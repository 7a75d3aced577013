package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/drivehub/dsm-api/internal/models"
)

// StudentRepository handles persistence of student authorization records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, user_id, school_id, authorized, request_id, enrollment_date, notes`

// FindByID returns a student record by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserAndSchool returns the record granting a user access to a school.
func (r *StudentRepository) FindByUserAndSchool(ctx context.Context, userID, schoolID string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE user_id = $1 AND school_id = $2`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID, schoolID); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsAuthorized checks whether an authorized record exists for the pair.
func (r *StudentRepository) ExistsAuthorized(ctx context.Context, userID, schoolID string) (bool, error) {
	const query = `SELECT 1 FROM students WHERE user_id = $1 AND school_id = $2 AND authorized LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, schoolID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check authorized student: %w", err)
	}
	return true, nil
}

// UpdateNotes replaces the free-form notes on a student record. A nil value
// clears them.
func (r *StudentRepository) UpdateNotes(ctx context.Context, id string, notes *string) error {
	const query = `UPDATE students SET notes = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, notes)
	if err != nil {
		return fmt.Errorf("update student notes: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
