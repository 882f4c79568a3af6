package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scolintra/exam-api/internal/models"
	"github.com/scolintra/exam-api/internal/wizard"
	appErrors "github.com/scolintra/exam-api/pkg/errors"
)

type wizardSessionStore interface {
	Get(ctx context.Context, id string) (*wizard.Session, error)
	Put(ctx context.Context, session *wizard.Session) error
	Delete(ctx context.Context, id string) error
}

type wizardExamRepo interface {
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	ListQuestions(ctx context.Context, examID string) ([]models.Question, error)
	ListRoster(ctx context.Context, examID string) ([]models.RosterEntry, error)
	ReplaceQuestions(ctx context.Context, examID string, questions []models.Question) error
	ReplaceRoster(ctx context.Context, examID string, roster []models.RosterEntry) error
}

type wizardCourseReader interface {
	ListActiveStudents(ctx context.Context, courseID string) ([]models.CourseStudent, error)
}

type wizardStudentDirectory interface {
	Search(ctx context.Context, search string, limit int) ([]models.Student, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

// UpdateHeaderRequest carries partial header edits. Nil fields are left
// untouched; optional references clear when set to the empty string.
type UpdateHeaderRequest struct {
	Title           *string          `json:"title"`
	Description     *string          `json:"description"`
	CourseID        *string          `json:"course_id"`
	SessionID       *string          `json:"session_id"`
	CenterID        *string          `json:"center_id"`
	ScheduledAt     *time.Time       `json:"scheduled_at"`
	DurationMinutes *int             `json:"duration_minutes"`
	Room            *string          `json:"room"`
	TotalPoints     *float64         `json:"total_points"`
	PassingGrade    *float64         `json:"passing_grade"`
	Type            *models.ExamType `json:"exam_type"`
}

// QuestionListView is returned by question mutations so the client can show
// the running points total next to the list.
type QuestionListView struct {
	Questions   []models.Question `json:"questions"`
	TotalPoints int               `json:"total_points"`
}

// StudentPickerView caps the manual picker and tells the caller when the
// search needs narrowing.
type StudentPickerView struct {
	Students  []models.Student `json:"students"`
	Truncated bool             `json:"truncated"`
}

// WizardService drives the five-step exam authoring flow: it owns the
// draft sessions, aggregates per-step validation and runs the save/publish
// persistence protocol.
type WizardService struct {
	sessions wizardSessionStore
	exams    wizardExamRepo
	courses  wizardCourseReader
	students wizardStudentDirectory
	policy   wizard.Policy
	logger   *zap.Logger
}

// NewWizardService constructs WizardService.
func NewWizardService(sessions wizardSessionStore, exams wizardExamRepo, courses wizardCourseReader, students wizardStudentDirectory, policy wizard.Policy, logger *zap.Logger) *WizardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardService{
		sessions: sessions,
		exams:    exams,
		courses:  courses,
		students: students,
		policy:   policy,
		logger:   logger,
	}
}

// Policy exposes the active authoring policy, for the handler to surface
// to clients.
func (s *WizardService) Policy() wizard.Policy {
	return s.policy
}

// StartCreate opens a session for a new exam, pre-filling the professor
// from the caller's identity.
func (s *WizardService) StartCreate(ctx context.Context, claims *models.JWTClaims) (*wizard.Session, error) {
	if err := requireProfessor(claims); err != nil {
		return nil, err
	}
	session := wizard.NewCreateSession(uuid.NewString(), claims.UserID)
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open authoring session")
	}
	return session, nil
}

// StartEdit opens a session over an existing draft, loading the exam header
// and both child sets before the first step renders.
func (s *WizardService) StartEdit(ctx context.Context, claims *models.JWTClaims, examID string) (*wizard.Session, error) {
	if err := requireProfessor(claims); err != nil {
		return nil, err
	}
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	if exam.ProfessorID != claims.UserID && claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exam belongs to another professor")
	}
	if exam.Status != models.ExamStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrNotDraft, "only draft exams can be edited")
	}
	questions, err := s.exams.ListQuestions(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	roster, err := s.exams.ListRoster(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	session := wizard.NewEditSession(uuid.NewString(), *exam, questions, roster)
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open authoring session")
	}
	return session, nil
}

// Get returns the current state of a session.
func (s *WizardService) Get(ctx context.Context, claims *models.JWTClaims, sessionID string) (*wizard.Session, error) {
	return s.load(ctx, claims, sessionID)
}

// Advance validates the active step and moves forward on success.
func (s *WizardService) Advance(ctx context.Context, claims *models.JWTClaims, sessionID string) (*wizard.Session, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	if errs := session.Advance(s.policy); len(errs) > 0 {
		return nil, appErrors.WithFields(appErrors.ErrValidation, errs)
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Back moves to the previous step. Always permitted.
func (s *WizardService) Back(ctx context.Context, claims *models.JWTClaims, sessionID string) (*wizard.Session, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	session.Back()
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateHeader applies field edits to the aggregate. Pure assignment:
// validation happens on step transitions, not here.
func (s *WizardService) UpdateHeader(ctx context.Context, claims *models.JWTClaims, sessionID string, req UpdateHeaderRequest) (*wizard.Session, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	applyHeader(&session.Exam, req)
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// NewQuestion seeds the editor form for a fresh question without touching
// the list.
func (s *WizardService) NewQuestion(ctx context.Context, claims *models.JWTClaims, sessionID string) (*models.Question, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	draft := wizard.NewQuestionDraft(session.Questions)
	return &draft, nil
}

// UpsertQuestion validates and merges a question into the list, keyed by
// question number.
func (s *WizardService) UpsertQuestion(ctx context.Context, claims *models.JWTClaims, sessionID string, q models.Question) (*QuestionListView, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	updated, errs := wizard.UpsertQuestion(session.Questions, q)
	if len(errs) > 0 {
		return nil, appErrors.WithFields(appErrors.ErrValidation, errs)
	}
	session.Questions = updated
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return s.questionView(session), nil
}

// DeleteQuestion removes a question and renumbers the remainder.
func (s *WizardService) DeleteQuestion(ctx context.Context, claims *models.JWTClaims, sessionID string, number int) (*QuestionListView, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	session.Questions = wizard.DeleteQuestion(session.Questions, number)
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return s.questionView(session), nil
}

// MoveQuestion swaps a question with its neighbour in the given direction.
func (s *WizardService) MoveQuestion(ctx context.Context, claims *models.JWTClaims, sessionID string, number int, direction string) (*QuestionListView, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	switch direction {
	case "up":
		session.Questions = wizard.MoveUp(session.Questions, number)
	case "down":
		session.Questions = wizard.MoveDown(session.Questions, number)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "direction must be up or down")
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return s.questionView(session), nil
}

// AddQuestionOption appends a blank option to a multiple-choice question.
func (s *WizardService) AddQuestionOption(ctx context.Context, claims *models.JWTClaims, sessionID string, number int) (*models.Question, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	q := findQuestion(session.Questions, number)
	if q == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
	}
	if !q.IsMultipleChoice() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only multiple-choice questions carry options")
	}
	wizard.AddOption(q)
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return q, nil
}

// RemoveQuestionOption deletes an option, clearing the correct answer when
// the removed option was selected. Blocked below the minimum option count.
func (s *WizardService) RemoveQuestionOption(ctx context.Context, claims *models.JWTClaims, sessionID string, number, optionID int) (*models.Question, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	q := findQuestion(session.Questions, number)
	if q == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
	}
	if !wizard.RemoveOption(q, optionID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a multiple-choice question keeps at least two options")
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return q, nil
}

// CourseStudents returns the exam course's active roster, filtered by the
// free-text query and assignment status.
func (s *WizardService) CourseStudents(ctx context.Context, claims *models.JWTClaims, sessionID, query string, status models.RosterStatusFilter) ([]models.CourseStudent, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Exam.CourseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select a course before assigning students")
	}
	students, err := s.courses.ListActiveStudents(ctx, session.Exam.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course students")
	}
	return wizard.FilterCourseStudents(students, query, status, session.Roster), nil
}

// SearchStudents feeds the manual cross-course picker from the full active
// directory, capped at the policy's picker limit.
func (s *WizardService) SearchStudents(ctx context.Context, claims *models.JWTClaims, query string) (*StudentPickerView, error) {
	if err := requireProfessor(claims); err != nil {
		return nil, err
	}
	limit := s.policy.PickerLimit
	students, err := s.students.Search(ctx, query, limit+1)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search students")
	}
	view := &StudentPickerView{Students: students}
	if len(students) > limit {
		view.Students = students[:limit]
		view.Truncated = true
	}
	return view, nil
}

// AssignAllCourseStudents adds every course-enrolled student not already on
// the roster.
func (s *WizardService) AssignAllCourseStudents(ctx context.Context, claims *models.JWTClaims, sessionID string) (*wizard.Session, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Exam.CourseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select a course before assigning students")
	}
	students, err := s.courses.ListActiveStudents(ctx, session.Exam.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course students")
	}
	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.StudentID)
	}
	session.Roster = wizard.AssignStudents(session.Roster, session.Exam.ID, ids)
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// AddStudents assigns the picked students, de-duplicated against the
// current roster. Unknown ids are dropped.
func (s *WizardService) AddStudents(ctx context.Context, claims *models.JWTClaims, sessionID string, studentIDs []string) (*wizard.Session, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	existing, err := s.students.FindByIDs(ctx, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify students")
	}
	ids := make([]string, 0, len(existing))
	for _, st := range existing {
		ids = append(ids, st.ID)
	}
	session.Roster = wizard.AssignStudents(session.Roster, session.Exam.ID, ids)
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RemoveStudent drops one assignment from the roster.
func (s *WizardService) RemoveStudent(ctx context.Context, claims *models.JWTClaims, sessionID, studentID string) (*wizard.Session, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	session.Roster = wizard.RemoveStudent(session.Roster, studentID)
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RemoveAllStudents clears the roster.
func (s *WizardService) RemoveAllStudents(ctx context.Context, claims *models.JWTClaims, sessionID string) (*wizard.Session, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	session.Roster = nil
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// GenerateSeatNumbers assigns sequential seat labels in roster order.
func (s *WizardService) GenerateSeatNumbers(ctx context.Context, claims *models.JWTClaims, sessionID string) (*wizard.Session, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	wizard.GenerateSeatNumbers(session.Roster, s.policy.PadSeatNumbers)
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SaveDraft re-validates the whole aggregate and persists it with status
// draft.
func (s *WizardService) SaveDraft(ctx context.Context, claims *models.JWTClaims, sessionID string) (*models.Exam, error) {
	return s.persist(ctx, claims, sessionID, false)
}

// Publish re-validates every step and persists with status published. The
// transition is one way: a published exam can no longer be edited here.
func (s *WizardService) Publish(ctx context.Context, claims *models.JWTClaims, sessionID string) (*models.Exam, error) {
	return s.persist(ctx, claims, sessionID, true)
}

// persist runs the save protocol: header upsert first, then the question
// replace, then the roster replace. The two child replacements are each
// atomic, but the chain itself is sequential: a failure after the header
// upsert leaves the exam saved with stale children, and the error tells the
// caller which stage failed. The session survives so a retry picks up the
// already-assigned exam id.
func (s *WizardService) persist(ctx context.Context, claims *models.JWTClaims, sessionID string, publish bool) (*models.Exam, error) {
	session, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Saving || session.Publishing {
		return nil, appErrors.ErrSaveInProgress
	}
	if errs := session.ValidateAll(s.policy); len(errs) > 0 {
		return nil, appErrors.WithFields(appErrors.ErrValidation, errs)
	}

	if publish {
		session.Publishing = true
		session.Exam.Status = models.ExamStatusPublished
	} else {
		session.Saving = true
		session.Exam.Status = models.ExamStatusDraft
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	exam, err := s.runPersistChain(ctx, session)
	if err != nil {
		session.Saving = false
		session.Publishing = false
		// keep the assigned id so a retry updates instead of duplicating;
		// a failed create leaves the id empty so the retry inserts again
		if saveErr := s.save(ctx, session); saveErr != nil {
			s.logger.Warn("failed to checkpoint session after save error", zap.String("session_id", session.ID), zap.Error(saveErr))
		}
		return nil, err
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		s.logger.Warn("failed to discard completed session", zap.String("session_id", session.ID), zap.Error(err))
	}
	s.logger.Info("exam persisted",
		zap.String("exam_id", exam.ID),
		zap.String("status", string(exam.Status)),
		zap.Int("questions", len(session.Questions)),
		zap.Int("students", len(session.Roster)))
	return exam, nil
}

func (s *WizardService) runPersistChain(ctx context.Context, session *wizard.Session) (*models.Exam, error) {
	exam := &session.Exam
	if exam.ID == "" {
		if err := s.exams.Create(ctx, exam); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save exam")
		}
	} else {
		if err := s.exams.Update(ctx, exam); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save exam")
		}
	}
	if err := s.exams.ReplaceQuestions(ctx, exam.ID, session.Questions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save questions")
	}
	if err := s.exams.ReplaceRoster(ctx, exam.ID, session.Roster); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save student assignments")
	}
	return exam, nil
}

func (s *WizardService) load(ctx context.Context, claims *models.JWTClaims, sessionID string) (*wizard.Session, error) {
	if err := requireProfessor(claims); err != nil {
		return nil, err
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load authoring session")
	}
	if session.Exam.ProfessorID != claims.UserID && claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "session belongs to another professor")
	}
	return session, nil
}

func (s *WizardService) save(ctx context.Context, session *wizard.Session) error {
	session.Touch()
	if err := s.sessions.Put(ctx, session); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store authoring session")
	}
	return nil
}

func (s *WizardService) questionView(session *wizard.Session) *QuestionListView {
	return &QuestionListView{
		Questions:   session.Questions,
		TotalPoints: wizard.TotalPoints(session.Questions),
	}
}

func requireProfessor(claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleProfessor && claims.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only professors can author exams")
	}
	return nil
}

func applyHeader(exam *models.Exam, req UpdateHeaderRequest) {
	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = optionalString(*req.Description)
	}
	if req.CourseID != nil {
		exam.CourseID = *req.CourseID
	}
	if req.SessionID != nil {
		exam.SessionID = optionalString(*req.SessionID)
	}
	if req.CenterID != nil {
		exam.CenterID = optionalString(*req.CenterID)
	}
	if req.ScheduledAt != nil {
		utc := req.ScheduledAt.UTC()
		exam.ScheduledAt = &utc
	}
	if req.DurationMinutes != nil {
		exam.DurationMinutes = *req.DurationMinutes
	}
	if req.Room != nil {
		exam.Room = optionalString(*req.Room)
	}
	if req.TotalPoints != nil {
		exam.TotalPoints = *req.TotalPoints
	}
	if req.PassingGrade != nil {
		exam.PassingGrade = *req.PassingGrade
	}
	if req.Type != nil {
		exam.Type = *req.Type
	}
}

func findQuestion(list []models.Question, number int) *models.Question {
	for i := range list {
		if list[i].Number == number {
			return &list[i]
		}
	}
	return nil
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
