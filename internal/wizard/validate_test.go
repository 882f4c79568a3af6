package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolintra/exam-api/internal/models"
)

func validExam() models.Exam {
	scheduled := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	return models.Exam{
		Title:           "Algebra Final",
		CourseID:        "course-1",
		ProfessorID:     "prof-1",
		Type:            models.ExamTypeFinal,
		TotalPoints:     20,
		PassingGrade:    10,
		DurationMinutes: 90,
		ScheduledAt:     &scheduled,
		Status:          models.ExamStatusDraft,
	}
}

func mcQuestion(number, points int) models.Question {
	correct := 1
	return models.Question{
		Number: number,
		Text:   "Pick one",
		Type:   models.QuestionTypeMultipleChoice,
		Points: points,
		Options: models.OptionList{
			{ID: 1, Text: "A"},
			{ID: 2, Text: "B"},
		},
		CorrectOptionID: &correct,
	}
}

func TestValidateBasicInfoPasses(t *testing.T) {
	errs := ValidateBasicInfo(validExam())
	assert.Empty(t, errs)
}

func TestValidateBasicInfoMissingTitle(t *testing.T) {
	exam := validExam()
	exam.Title = "   "
	errs := ValidateBasicInfo(exam)
	require.Len(t, errs, 1)
	assert.Contains(t, errs, "title")
}

func TestValidateBasicInfoPassingGradeAboveTotal(t *testing.T) {
	exam := validExam()
	exam.TotalPoints = 10
	exam.PassingGrade = 12
	errs := ValidateBasicInfo(exam)
	assert.Contains(t, errs, "passing_grade")
}

func TestValidateSchedulingRequiresDate(t *testing.T) {
	exam := validExam()
	exam.ScheduledAt = nil
	errs := ValidateScheduling(exam, DefaultPolicy())
	assert.Contains(t, errs, "scheduled_at")
}

func TestValidateSchedulingDurationFloor(t *testing.T) {
	exam := validExam()
	exam.DurationMinutes = 10
	errs := ValidateScheduling(exam, DefaultPolicy())
	assert.Contains(t, errs, "duration_minutes")
}

func TestValidateSchedulingSessionOptionalByDefault(t *testing.T) {
	exam := validExam()
	errs := ValidateScheduling(exam, DefaultPolicy())
	assert.Empty(t, errs)
}

func TestValidateSchedulingSessionRequiredByPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.RequireSession = true
	policy.RequireCenter = true

	errs := ValidateScheduling(validExam(), policy)
	assert.Contains(t, errs, "session_id")
	assert.Contains(t, errs, "center_id")
}

func TestValidateQuestionsEmptyList(t *testing.T) {
	errs := ValidateQuestions(validExam(), nil, DefaultPolicy())
	require.Len(t, errs, 1)
	assert.Contains(t, errs, "questions")
}

func TestValidateQuestionsPointsMismatchStrict(t *testing.T) {
	exam := validExam()
	exam.TotalPoints = 20
	questions := []models.Question{mcQuestion(1, 10), mcQuestion(2, 5)}

	errs := ValidateQuestions(exam, questions, DefaultPolicy())
	require.Contains(t, errs, "total_points")
	assert.Equal(t, "questions add up to 15 points but the exam is worth 20", errs["total_points"])
}

func TestValidateQuestionsPointsMismatchLenient(t *testing.T) {
	policy := DefaultPolicy()
	policy.RequirePointsMatch = false
	exam := validExam()
	exam.TotalPoints = 20
	questions := []models.Question{mcQuestion(1, 10), mcQuestion(2, 5)}

	errs := ValidateQuestions(exam, questions, policy)
	assert.Empty(t, errs)
}

func TestValidateQuestionsPerQuestionErrorsKeyedByNumber(t *testing.T) {
	exam := validExam()
	exam.TotalPoints = 5
	bad := mcQuestion(2, 4)
	bad.Text = ""
	questions := []models.Question{mcQuestion(1, 1), bad}

	errs := ValidateQuestions(exam, questions, DefaultPolicy())
	assert.Contains(t, errs, "question_2")
	assert.NotContains(t, errs, "question_1")
}

func TestValidateQuestionMultipleChoiceRequiresCorrectAnswer(t *testing.T) {
	q := mcQuestion(1, 5)
	q.CorrectOptionID = nil
	errs := ValidateQuestion(q)
	assert.Contains(t, errs, "correct_answer")
}

func TestValidateQuestionCorrectAnswerMustBeAnOption(t *testing.T) {
	q := mcQuestion(1, 5)
	stale := 9
	q.CorrectOptionID = &stale
	errs := ValidateQuestion(q)
	assert.Contains(t, errs, "correct_answer")
}

func TestValidateQuestionBlankOptionBlocked(t *testing.T) {
	q := mcQuestion(1, 5)
	q.Options[1].Text = " "
	errs := ValidateQuestion(q)
	assert.Contains(t, errs, "options")
}

func TestValidateQuestionOpenEndedSkipsOptionChecks(t *testing.T) {
	q := models.Question{Number: 1, Text: "Explain", Type: models.QuestionTypeEssay, Points: 5}
	errs := ValidateQuestion(q)
	assert.Empty(t, errs)
}

func TestValidateRosterOptionalByDefault(t *testing.T) {
	errs := ValidateRoster(nil, DefaultPolicy())
	assert.Empty(t, errs)
}

func TestValidateRosterRequiredByPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.RequireRoster = true
	errs := ValidateRoster(nil, policy)
	assert.Contains(t, errs, "roster")
}
