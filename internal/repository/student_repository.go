package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/scolintra/exam-api/internal/models"
)

// StudentRepository handles reads against the student directory.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Search returns active students matching the free-text query against name,
// email and student number, capped at limit rows for the manual picker.
func (r *StudentRepository) Search(ctx context.Context, search string, limit int) ([]models.Student, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, student_number, full_name, email, active, created_at, updated_at
        FROM students WHERE active = TRUE`
	var args []interface{}
	if search != "" {
		query += ` AND (full_name ILIKE $1 OR email ILIKE $1 OR student_number ILIKE $1)`
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(" ORDER BY full_name LIMIT %d", limit)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return students, nil
}

// FindByIDs returns the students with the given ids.
func (r *StudentRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, student_number, full_name, email, active, created_at, updated_at
        FROM students WHERE id IN (%s)`, strings.Join(placeholders, ","))
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("find students by ids: %w", err)
	}
	return students, nil
}
