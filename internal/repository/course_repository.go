package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/scolintra/exam-api/internal/models"
)

// CourseRepository handles course reads for the authoring flow.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListByProfessor returns the active courses taught by a professor.
func (r *CourseRepository) ListByProfessor(ctx context.Context, professorID string) ([]models.Course, error) {
	const query = `SELECT id, code, name, professor_id, active, created_at, updated_at
        FROM courses WHERE professor_id = $1 AND active = TRUE ORDER BY name`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, professorID); err != nil {
		return nil, fmt.Errorf("list professor courses: %w", err)
	}
	return courses, nil
}

// ListActiveStudents returns the active-enrollment roster of a course, the
// source for the bulk "assign all course students" path.
func (r *CourseRepository) ListActiveStudents(ctx context.Context, courseID string) ([]models.CourseStudent, error) {
	const query = `SELECT st.id AS student_id, st.full_name, st.email, st.student_number
        FROM student_courses sc
        JOIN students st ON st.id = sc.student_id
        WHERE sc.course_id = $1 AND sc.active = TRUE AND st.active = TRUE
        ORDER BY st.full_name`
	var students []models.CourseStudent
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return students, nil
}
