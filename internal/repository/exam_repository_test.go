package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolintra/exam-api/internal/models"
)

func newExamRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExamRepositoryCreateMintsID(t *testing.T) {
	db, mock, cleanup := newExamRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectExec("INSERT INTO exams").
		WillReturnResult(sqlmock.NewResult(0, 1))

	exam := models.Exam{Title: "Algebra Final", CourseID: "course-1", ProfessorID: "prof-1", Status: models.ExamStatusDraft, Type: models.ExamTypeFinal}
	require.NoError(t, repo.Create(context.Background(), &exam))
	assert.NotEmpty(t, exam.ID)
	assert.False(t, exam.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryCreateFailureLeavesExamUntouched(t *testing.T) {
	db, mock, cleanup := newExamRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectExec("INSERT INTO exams").
		WillReturnError(errors.New("connection reset"))

	exam := models.Exam{Title: "Algebra Final", CourseID: "course-1", ProfessorID: "prof-1", Status: models.ExamStatusDraft, Type: models.ExamTypeFinal}
	require.Error(t, repo.Create(context.Background(), &exam))
	assert.Empty(t, exam.ID)
	assert.True(t, exam.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newExamRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectExec("UPDATE exams SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	exam := models.Exam{ID: "exam-gone", Title: "Algebra Final", CourseID: "course-1", ProfessorID: "prof-1", Status: models.ExamStatusDraft, Type: models.ExamTypeFinal}
	err := repo.Update(context.Background(), &exam)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newExamRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "course_id", "professor_id", "session_id", "center_id",
		"scheduled_at", "duration_minutes", "room", "total_points", "passing_grade", "status", "exam_type", "created_at", "updated_at"}).
		AddRow("exam-1", "Algebra Final", nil, "course-1", "prof-1", nil, nil, now, 90, nil, 20.0, 10.0, models.ExamStatusDraft, models.ExamTypeFinal, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM exams WHERE id = $1")).
		WithArgs("exam-1").
		WillReturnRows(rows)

	exam, err := repo.FindByID(context.Background(), "exam-1")
	require.NoError(t, err)
	assert.Equal(t, "Algebra Final", exam.Title)
	assert.Equal(t, models.ExamStatusDraft, exam.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newExamRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "course_id", "professor_id", "session_id", "center_id",
		"scheduled_at", "duration_minutes", "room", "total_points", "passing_grade", "status", "exam_type", "created_at", "updated_at",
		"course_name", "professor_name", "session_name", "center_name", "question_count", "student_count"}).
		AddRow("exam-1", "Algebra Final", nil, "course-1", "prof-1", nil, nil, now, 90, nil, 20.0, 10.0, models.ExamStatusPublished, models.ExamTypeFinal, now, now,
			"Algebra", "Prof Marin", nil, nil, 12, 30)
	mock.ExpectQuery(regexp.QuoteMeta("e.professor_id = $1")).
		WithArgs("prof-1", models.ExamStatusPublished).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM exams e")).
		WithArgs("prof-1", models.ExamStatusPublished).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exams, total, err := repo.List(context.Background(), models.ExamFilter{ProfessorID: "prof-1", Status: models.ExamStatusPublished})
	require.NoError(t, err)
	require.Len(t, exams, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Algebra", exams[0].CourseName)
	assert.Equal(t, 12, exams[0].QuestionCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryListQuestionsOrdered(t *testing.T) {
	db, mock, cleanup := newExamRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	rows := sqlmock.NewRows([]string{"id", "exam_id", "question_number", "question_text", "question_type", "points", "options", "correct_option_id", "rubric"}).
		AddRow("q-1", "exam-1", 1, "Pick one", models.QuestionTypeMultipleChoice, 10, []byte(`[{"id":1,"text":"A"},{"id":2,"text":"B"}]`), 1, nil).
		AddRow("q-2", "exam-1", 2, "Explain", models.QuestionTypeEssay, 10, nil, nil, "grade on clarity")
	mock.ExpectQuery(regexp.QuoteMeta("FROM exam_questions WHERE exam_id = $1 ORDER BY question_number")).
		WithArgs("exam-1").
		WillReturnRows(rows)

	questions, err := repo.ListQuestions(context.Background(), "exam-1")
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, 1, questions[0].Number)
	require.Len(t, questions[0].Options, 2)
	assert.Equal(t, "A", questions[0].Options[0].Text)
	assert.Nil(t, questions[1].Options)
	require.NotNil(t, questions[1].Rubric)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryReplaceQuestionsTransactional(t *testing.T) {
	db, mock, cleanup := newExamRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exam_questions WHERE exam_id = $1")).
		WithArgs("exam-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO exam_questions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO exam_questions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	correct := 1
	questions := []models.Question{
		{Number: 1, Text: "Pick one", Type: models.QuestionTypeMultipleChoice, Points: 10,
			Options: models.OptionList{{ID: 1, Text: "A"}, {ID: 2, Text: "B"}}, CorrectOptionID: &correct},
		{Number: 2, Text: "Explain", Type: models.QuestionTypeEssay, Points: 10},
	}
	require.NoError(t, repo.ReplaceQuestions(context.Background(), "exam-1", questions))
	assert.Equal(t, "exam-1", questions[0].ExamID)
	assert.NotEmpty(t, questions[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryReplaceQuestionsRollsBackOnInsertError(t *testing.T) {
	db, mock, cleanup := newExamRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exam_questions WHERE exam_id = $1")).
		WithArgs("exam-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO exam_questions").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	questions := []models.Question{{Number: 1, Text: "Pick one", Type: models.QuestionTypeEssay, Points: 10}}
	err := repo.ReplaceQuestions(context.Background(), "exam-1", questions)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryReplaceRosterEmptySetClears(t *testing.T) {
	db, mock, cleanup := newExamRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exam_students WHERE exam_id = $1")).
		WithArgs("exam-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceRoster(context.Background(), "exam-1", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryReplaceRosterInserts(t *testing.T) {
	db, mock, cleanup := newExamRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exam_students WHERE exam_id = $1")).
		WithArgs("exam-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO exam_students").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	roster := []models.RosterEntry{{StudentID: "s1"}}
	require.NoError(t, repo.ReplaceRoster(context.Background(), "exam-1", roster))
	assert.Equal(t, "exam-1", roster[0].ExamID)
	assert.NotEmpty(t, roster[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
