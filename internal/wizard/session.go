package wizard

import (
	"time"

	"github.com/scolintra/exam-api/internal/models"
)

// Step identifies one stage of the five-step authoring flow.
type Step int

const (
	StepBasicInfo Step = iota
	StepScheduling
	StepQuestions
	StepRoster
	StepFinalize
)

// String returns the wire name of the step.
func (s Step) String() string {
	switch s {
	case StepBasicInfo:
		return "basic_info"
	case StepScheduling:
		return "scheduling"
	case StepQuestions:
		return "questions"
	case StepRoster:
		return "roster"
	case StepFinalize:
		return "finalize"
	default:
		return "unknown"
	}
}

// Mode distinguishes authoring a new exam from editing a draft.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Session is the working copy of one exam's full state during authoring:
// header, ordered question list and assigned roster, edited as one unit and
// persisted only on save or publish. A session belongs to one professor.
type Session struct {
	ID         string               `json:"id"`
	Mode       Mode                 `json:"mode"`
	Step       Step                 `json:"step"`
	Exam       models.Exam          `json:"exam"`
	Questions  []models.Question    `json:"questions"`
	Roster     []models.RosterEntry `json:"roster"`
	Saving     bool                 `json:"saving"`
	Publishing bool                 `json:"publishing"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// NewCreateSession starts a session for a brand new exam, pre-filling the
// professor from the caller's identity.
func NewCreateSession(id, professorID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Mode:      ModeCreate,
		Step:      StepBasicInfo,
		Exam:      models.NewDraftExam(professorID),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewEditSession starts a session over an existing draft exam with its
// children loaded.
func NewEditSession(id string, exam models.Exam, questions []models.Question, roster []models.RosterEntry) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Mode:      ModeEdit,
		Step:      StepBasicInfo,
		Exam:      exam,
		Questions: questions,
		Roster:    roster,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Advance moves to the next step when the current one validates cleanly.
// The returned map is empty on success.
func (s *Session) Advance(policy Policy) map[string]string {
	errs := s.ValidateStep(s.Step, policy)
	if len(errs) > 0 {
		return errs
	}
	if s.Step < StepFinalize {
		s.Step++
	}
	return nil
}

// Back moves to the previous step. Always permitted.
func (s *Session) Back() {
	if s.Step > StepBasicInfo {
		s.Step--
	}
}

// ValidateStep checks a single step's slice of the aggregate.
func (s *Session) ValidateStep(step Step, policy Policy) map[string]string {
	switch step {
	case StepBasicInfo:
		return ValidateBasicInfo(s.Exam)
	case StepScheduling:
		return ValidateScheduling(s.Exam, policy)
	case StepQuestions:
		return ValidateQuestions(s.Exam, s.Questions, policy)
	case StepRoster:
		return ValidateRoster(s.Roster, policy)
	case StepFinalize:
		return s.ValidateAll(policy)
	default:
		return nil
	}
}

// ValidateAll re-runs every gated step, the finalize gate before save or
// publish.
func (s *Session) ValidateAll(policy Policy) map[string]string {
	merged := map[string]string{}
	for _, errs := range []map[string]string{
		ValidateBasicInfo(s.Exam),
		ValidateScheduling(s.Exam, policy),
		ValidateQuestions(s.Exam, s.Questions, policy),
		ValidateRoster(s.Roster, policy),
	} {
		for field, msg := range errs {
			if _, ok := merged[field]; !ok {
				merged[field] = msg
			}
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// Touch refreshes the session's modification timestamp.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}
