package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scolintra/exam-api/internal/models"
)

// ExamRepository handles persistence of exam headers and their children.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs the repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// Create inserts a new exam header and fills in its generated id. The id
// and timestamps are written back only after the insert succeeds, so a
// failed create never leaves the caller holding an id that was not stored.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	record := *exam
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	const query = `INSERT INTO exams (id, title, description, course_id, professor_id, session_id, center_id,
        scheduled_at, duration_minutes, room, total_points, passing_grade, status, exam_type, created_at, updated_at)
        VALUES (:id, :title, :description, :course_id, :professor_id, :session_id, :center_id,
        :scheduled_at, :duration_minutes, :room, :total_points, :passing_grade, :status, :exam_type, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, &record); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	*exam = record
	return nil
}

// Update overwrites an existing exam header. A missing row surfaces as
// sql.ErrNoRows instead of a silent no-op.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	exam.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exams SET title = :title, description = :description, course_id = :course_id,
        session_id = :session_id, center_id = :center_id, scheduled_at = :scheduled_at,
        duration_minutes = :duration_minutes, room = :room, total_points = :total_points,
        passing_grade = :passing_grade, status = :status, exam_type = :exam_type, updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, exam)
	if err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID returns an exam header.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	const query = `SELECT id, title, description, course_id, professor_id, session_id, center_id,
        scheduled_at, duration_minutes, room, total_points, passing_grade, status, exam_type, created_at, updated_at
        FROM exams WHERE id = $1`
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// FindDetailByID returns an exam header joined with its reference names and
// child counts.
func (r *ExamRepository) FindDetailByID(ctx context.Context, id string) (*models.ExamDetail, error) {
	const query = `SELECT e.id, e.title, e.description, e.course_id, e.professor_id, e.session_id, e.center_id,
        e.scheduled_at, e.duration_minutes, e.room, e.total_points, e.passing_grade, e.status, e.exam_type,
        e.created_at, e.updated_at,
        c.name AS course_name, u.full_name AS professor_name, s.name AS session_name, ct.name AS center_name,
        (SELECT COUNT(*) FROM exam_questions q WHERE q.exam_id = e.id) AS question_count,
        (SELECT COUNT(*) FROM exam_students es WHERE es.exam_id = e.id) AS student_count
        FROM exams e
        JOIN courses c ON c.id = e.course_id
        JOIN users u ON u.id = e.professor_id
        LEFT JOIN exam_sessions s ON s.id = e.session_id
        LEFT JOIN exam_centers ct ON ct.id = e.center_id
        WHERE e.id = $1`
	var detail models.ExamDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns exams filtered by the provided criteria.
func (r *ExamRepository) List(ctx context.Context, filter models.ExamFilter) ([]models.ExamDetail, int, error) {
	base := `FROM exams e
JOIN courses c ON c.id = e.course_id
JOIN users u ON u.id = e.professor_id
LEFT JOIN exam_sessions s ON s.id = e.session_id
LEFT JOIN exam_centers ct ON ct.id = e.center_id`
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.ProfessorID != "" {
		conditions = append(conditions, fmt.Sprintf("e.professor_id = $%d", len(args)+1))
		args = append(args, filter.ProfessorID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("e.exam_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(e.title ILIKE $%d OR c.name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"scheduled_at": "e.scheduled_at",
		"title":        "e.title",
		"created_at":   "e.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.scheduled_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.title, e.description, e.course_id, e.professor_id, e.session_id, e.center_id,
        e.scheduled_at, e.duration_minutes, e.room, e.total_points, e.passing_grade, e.status, e.exam_type,
        e.created_at, e.updated_at,
        c.name AS course_name, u.full_name AS professor_name, s.name AS session_name, ct.name AS center_name,
        (SELECT COUNT(*) FROM exam_questions q WHERE q.exam_id = e.id) AS question_count,
        (SELECT COUNT(*) FROM exam_students es WHERE es.exam_id = e.id) AS student_count
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var exams []models.ExamDetail
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exams: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count exams: %w", err)
	}
	return exams, total, nil
}

// ListQuestions returns the ordered question list of an exam.
func (r *ExamRepository) ListQuestions(ctx context.Context, examID string) ([]models.Question, error) {
	const query = `SELECT id, exam_id, question_number, question_text, question_type, points, options, correct_option_id, rubric
        FROM exam_questions WHERE exam_id = $1 ORDER BY question_number`
	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, query, examID); err != nil {
		return nil, fmt.Errorf("list exam questions: %w", err)
	}
	return questions, nil
}

// ListRoster returns the roster assignments of an exam with student info.
func (r *ExamRepository) ListRoster(ctx context.Context, examID string) ([]models.RosterEntry, error) {
	const query = `SELECT id, exam_id, student_id, seat_number, attendance_status, attempt_status, has_incidents, notes, grade
        FROM exam_students WHERE exam_id = $1 ORDER BY seat_number NULLS LAST, student_id`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, examID); err != nil {
		return nil, fmt.Errorf("list exam roster: %w", err)
	}
	return roster, nil
}

// ListRosterDetail joins roster entries with the student directory.
func (r *ExamRepository) ListRosterDetail(ctx context.Context, examID string) ([]models.RosterEntryDetail, error) {
	const query = `SELECT es.id, es.exam_id, es.student_id, es.seat_number, es.attendance_status, es.attempt_status,
        es.has_incidents, es.notes, es.grade,
        st.full_name AS student_name, st.email AS student_email, st.student_number AS student_number
        FROM exam_students es
        JOIN students st ON st.id = es.student_id
        WHERE es.exam_id = $1
        ORDER BY es.seat_number NULLS LAST, st.full_name`
	var roster []models.RosterEntryDetail
	if err := r.db.SelectContext(ctx, &roster, query, examID); err != nil {
		return nil, fmt.Errorf("list exam roster detail: %w", err)
	}
	return roster, nil
}

// ReplaceQuestions makes the stored question set mirror the authoring
// session exactly: delete-all then bulk-insert, in one transaction so a
// failure cannot leave a half-replaced list.
func (r *ExamRepository) ReplaceQuestions(ctx context.Context, examID string, questions []models.Question) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin question replace: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM exam_questions WHERE exam_id = $1`, examID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear exam questions: %w", err)
	}
	const query = `INSERT INTO exam_questions (id, exam_id, question_number, question_text, question_type, points, options, correct_option_id, rubric)
        VALUES (:id, :exam_id, :question_number, :question_text, :question_type, :points, :options, :correct_option_id, :rubric)`
	for i := range questions {
		questions[i].ExamID = examID
		if questions[i].ID == "" {
			questions[i].ID = uuid.NewString()
		}
		if _, err := tx.NamedExecContext(ctx, query, questions[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert exam question %d: %w", questions[i].Number, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit question replace: %w", err)
	}
	return nil
}

// ReplaceRoster mirrors the session's assignment set into exam_students,
// delete-all then bulk-insert in one transaction.
func (r *ExamRepository) ReplaceRoster(ctx context.Context, examID string, roster []models.RosterEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin roster replace: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM exam_students WHERE exam_id = $1`, examID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear exam roster: %w", err)
	}
	const query = `INSERT INTO exam_students (id, exam_id, student_id, seat_number, attendance_status, attempt_status, has_incidents, notes, grade)
        VALUES (:id, :exam_id, :student_id, :seat_number, :attendance_status, :attempt_status, :has_incidents, :notes, :grade)`
	for i := range roster {
		roster[i].ExamID = examID
		if roster[i].ID == "" {
			roster[i].ID = uuid.NewString()
		}
		if _, err := tx.NamedExecContext(ctx, query, roster[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert roster entry for student %s: %w", roster[i].StudentID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit roster replace: %w", err)
	}
	return nil
}
