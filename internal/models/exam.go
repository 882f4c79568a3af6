package models

import "time"

// ExamStatus tracks the lifecycle of an exam.
type ExamStatus string

const (
	ExamStatusDraft      ExamStatus = "draft"
	ExamStatusPublished  ExamStatus = "published"
	ExamStatusInProgress ExamStatus = "in_progress"
	ExamStatusGrading    ExamStatus = "grading"
	ExamStatusCompleted  ExamStatus = "completed"
	ExamStatusCancelled  ExamStatus = "cancelled"
)

// ExamType enumerates the supported exam formats.
type ExamType string

const (
	ExamTypeMidterm   ExamType = "midterm"
	ExamTypeFinal     ExamType = "final"
	ExamTypeQuiz      ExamType = "quiz"
	ExamTypeProject   ExamType = "project"
	ExamTypeOral      ExamType = "oral"
	ExamTypePractical ExamType = "practical"
)

// DefaultDurationMinutes is applied to newly created exams.
const DefaultDurationMinutes = 120

// MinDurationMinutes is the lower bound enforced at the scheduling step.
const MinDurationMinutes = 15

// Exam is the aggregate root edited by the authoring flow. The ID stays
// empty until the header is first persisted.
type Exam struct {
	ID              string     `db:"id" json:"id"`
	Title           string     `db:"title" json:"title"`
	Description     *string    `db:"description" json:"description,omitempty"`
	CourseID        string     `db:"course_id" json:"course_id"`
	ProfessorID     string     `db:"professor_id" json:"professor_id"`
	SessionID       *string    `db:"session_id" json:"session_id,omitempty"`
	CenterID        *string    `db:"center_id" json:"center_id,omitempty"`
	ScheduledAt     *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	Room            *string    `db:"room" json:"room,omitempty"`
	TotalPoints     float64    `db:"total_points" json:"total_points"`
	PassingGrade    float64    `db:"passing_grade" json:"passing_grade"`
	Status          ExamStatus `db:"status" json:"status"`
	Type            ExamType   `db:"exam_type" json:"exam_type"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// NewDraftExam seeds an exam for the create flow.
func NewDraftExam(professorID string) Exam {
	return Exam{
		ProfessorID:     professorID,
		Status:          ExamStatusDraft,
		DurationMinutes: DefaultDurationMinutes,
	}
}

// ExamDetail enriches an exam header with reference names.
type ExamDetail struct {
	Exam
	CourseName    string  `db:"course_name" json:"course_name"`
	ProfessorName string  `db:"professor_name" json:"professor_name"`
	SessionName   *string `db:"session_name" json:"session_name,omitempty"`
	CenterName    *string `db:"center_name" json:"center_name,omitempty"`
	QuestionCount int     `db:"question_count" json:"question_count"`
	StudentCount  int     `db:"student_count" json:"student_count"`
}

// ExamFilter captures allowed search parameters for listing exams.
type ExamFilter struct {
	CourseID    string
	ProfessorID string
	Status      ExamStatus
	Type        ExamType
	Search      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// ExamStats aggregates grading outcomes for a published exam.
type ExamStats struct {
	ExamID      string   `db:"exam_id" json:"exam_id"`
	Average     *float64 `db:"average" json:"average,omitempty"`
	Highest     *float64 `db:"highest" json:"highest,omitempty"`
	Lowest      *float64 `db:"lowest" json:"lowest,omitempty"`
	GradedCount int      `db:"graded_count" json:"graded_count"`
	PassedCount int      `db:"passed_count" json:"passed_count"`
}
