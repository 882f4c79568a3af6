package wizard

import (
	"fmt"
	"strings"

	"github.com/scolintra/exam-api/internal/models"
)

// ValidateBasicInfo checks the first step of the flow. The returned map is
// keyed by field name; an empty map means the step passes.
func ValidateBasicInfo(exam models.Exam) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(exam.Title) == "" {
		errs["title"] = "title is required"
	}
	if exam.CourseID == "" {
		errs["course_id"] = "course is required"
	}
	if exam.Type == "" {
		errs["exam_type"] = "exam type is required"
	}
	if exam.TotalPoints <= 0 {
		errs["total_points"] = "total points must be greater than zero"
	}
	if exam.PassingGrade < 0 || exam.PassingGrade > exam.TotalPoints {
		errs["passing_grade"] = "passing grade must be between zero and the total points"
	}
	return errs
}

// ValidateScheduling checks the date and duration, plus session and center
// when the policy marks them mandatory.
func ValidateScheduling(exam models.Exam, policy Policy) map[string]string {
	errs := map[string]string{}
	if exam.ScheduledAt == nil || exam.ScheduledAt.IsZero() {
		errs["scheduled_at"] = "exam date is required"
	}
	if exam.DurationMinutes < models.MinDurationMinutes {
		errs["duration_minutes"] = fmt.Sprintf("duration must be at least %d minutes", models.MinDurationMinutes)
	}
	if policy.RequireSession && exam.SessionID == nil {
		errs["session_id"] = "exam session is required"
	}
	if policy.RequireCenter && exam.CenterID == nil {
		errs["center_id"] = "exam center is required"
	}
	return errs
}

// ValidateQuestions checks the question list as a whole. Per-question
// problems are keyed by question number.
func ValidateQuestions(exam models.Exam, questions []models.Question, policy Policy) map[string]string {
	errs := map[string]string{}
	if len(questions) == 0 {
		errs["questions"] = "at least one question is required"
		return errs
	}
	for _, q := range questions {
		if qErrs := ValidateQuestion(q); len(qErrs) > 0 {
			for _, msg := range qErrs {
				errs[fmt.Sprintf("question_%d", q.Number)] = msg
				break
			}
		}
	}
	if policy.RequirePointsMatch {
		sum := TotalPoints(questions)
		if float64(sum) != exam.TotalPoints {
			errs["total_points"] = fmt.Sprintf("questions add up to %d points but the exam is worth %g", sum, exam.TotalPoints)
		}
	}
	return errs
}

// ValidateQuestion runs the question editor's local validation on a single
// entry.
func ValidateQuestion(q models.Question) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(q.Text) == "" {
		errs["question_text"] = "question text is required"
	}
	if q.Points <= 0 {
		errs["points"] = "points must be greater than zero"
	}
	if q.IsMultipleChoice() {
		if len(q.Options) < MinOptions {
			errs["options"] = fmt.Sprintf("at least %d options are required", MinOptions)
		}
		for _, opt := range q.Options {
			if strings.TrimSpace(opt.Text) == "" {
				errs["options"] = "all options must be filled in"
				break
			}
		}
		if q.CorrectOptionID == nil {
			errs["correct_answer"] = "a correct answer must be selected"
		} else if !q.HasOption(*q.CorrectOptionID) {
			errs["correct_answer"] = "the selected answer is not one of the options"
		}
	}
	return errs
}

// ValidateRoster checks the assignment step. Only blocking when the policy
// requires at least one assigned student.
func ValidateRoster(roster []models.RosterEntry, policy Policy) map[string]string {
	errs := map[string]string{}
	if policy.RequireRoster && len(roster) == 0 {
		errs["roster"] = "at least one student must be assigned"
	}
	return errs
}
