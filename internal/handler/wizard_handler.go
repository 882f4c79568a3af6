package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scolintra/exam-api/internal/models"
	"github.com/scolintra/exam-api/internal/service"
	"github.com/scolintra/exam-api/internal/wizard"
	appErrors "github.com/scolintra/exam-api/pkg/errors"
	"github.com/scolintra/exam-api/pkg/response"
)

type wizardService interface {
	Policy() wizard.Policy
	StartCreate(ctx context.Context, claims *models.JWTClaims) (*wizard.Session, error)
	StartEdit(ctx context.Context, claims *models.JWTClaims, examID string) (*wizard.Session, error)
	Get(ctx context.Context, claims *models.JWTClaims, sessionID string) (*wizard.Session, error)
	Advance(ctx context.Context, claims *models.JWTClaims, sessionID string) (*wizard.Session, error)
	Back(ctx context.Context, claims *models.JWTClaims, sessionID string) (*wizard.Session, error)
	UpdateHeader(ctx context.Context, claims *models.JWTClaims, sessionID string, req service.UpdateHeaderRequest) (*wizard.Session, error)
	NewQuestion(ctx context.Context, claims *models.JWTClaims, sessionID string) (*models.Question, error)
	UpsertQuestion(ctx context.Context, claims *models.JWTClaims, sessionID string, q models.Question) (*service.QuestionListView, error)
	DeleteQuestion(ctx context.Context, claims *models.JWTClaims, sessionID string, number int) (*service.QuestionListView, error)
	MoveQuestion(ctx context.Context, claims *models.JWTClaims, sessionID string, number int, direction string) (*service.QuestionListView, error)
	AddQuestionOption(ctx context.Context, claims *models.JWTClaims, sessionID string, number int) (*models.Question, error)
	RemoveQuestionOption(ctx context.Context, claims *models.JWTClaims, sessionID string, number, optionID int) (*models.Question, error)
	CourseStudents(ctx context.Context, claims *models.JWTClaims, sessionID, query string, status models.RosterStatusFilter) ([]models.CourseStudent, error)
	SearchStudents(ctx context.Context, claims *models.JWTClaims, query string) (*service.StudentPickerView, error)
	AssignAllCourseStudents(ctx context.Context, claims *models.JWTClaims, sessionID string) (*wizard.Session, error)
	AddStudents(ctx context.Context, claims *models.JWTClaims, sessionID string, studentIDs []string) (*wizard.Session, error)
	RemoveStudent(ctx context.Context, claims *models.JWTClaims, sessionID, studentID string) (*wizard.Session, error)
	RemoveAllStudents(ctx context.Context, claims *models.JWTClaims, sessionID string) (*wizard.Session, error)
	GenerateSeatNumbers(ctx context.Context, claims *models.JWTClaims, sessionID string) (*wizard.Session, error)
	SaveDraft(ctx context.Context, claims *models.JWTClaims, sessionID string) (*models.Exam, error)
	Publish(ctx context.Context, claims *models.JWTClaims, sessionID string) (*models.Exam, error)
}

// WizardHandler exposes the exam authoring flow over HTTP.
type WizardHandler struct {
	service wizardService
	metrics *service.MetricsService
}

// NewWizardHandler creates a new handler.
func NewWizardHandler(svc wizardService, metrics *service.MetricsService) *WizardHandler {
	return &WizardHandler{service: svc, metrics: metrics}
}

type startSessionRequest struct {
	ExamID string `json:"exam_id"`
}

type moveQuestionRequest struct {
	Direction string `json:"direction" binding:"required"`
}

type addStudentsRequest struct {
	StudentIDs        []string `json:"student_ids"`
	AllCourseStudents bool     `json:"all_course_students"`
}

// StartSession godoc
// @Summary Open an authoring session
// @Description Open a session for a new exam, or over an existing draft when exam_id is given
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body startSessionRequest false "Optional draft exam to edit"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /wizard/sessions [post]
func (h *WizardHandler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
			return
		}
	}

	claims := claimsFromContext(c)
	var (
		session *wizard.Session
		err     error
	)
	if req.ExamID != "" {
		session, err = h.service.StartEdit(c.Request.Context(), claims, req.ExamID)
	} else {
		session, err = h.service.StartCreate(c.Request.Context(), claims)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordSessionOpened(string(session.Mode))
	response.Created(c, session)
}

// GetSession godoc
// @Summary Fetch an authoring session
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /wizard/sessions/{id} [get]
func (h *WizardHandler) GetSession(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Next godoc
// @Summary Advance to the next step
// @Description Validates the active step and moves forward on success
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /wizard/sessions/{id}/next [post]
func (h *WizardHandler) Next(c *gin.Context) {
	session, err := h.service.Advance(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Back godoc
// @Summary Return to the previous step
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/back [post]
func (h *WizardHandler) Back(c *gin.Context) {
	session, err := h.service.Back(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// UpdateExam godoc
// @Summary Edit exam header fields
// @Description Applies partial edits to the draft's header. Validation runs on step transitions.
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param payload body service.UpdateHeaderRequest true "Field edits"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/exam [patch]
func (h *WizardHandler) UpdateExam(c *gin.Context) {
	var req service.UpdateHeaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam payload"))
		return
	}
	session, err := h.service.UpdateHeader(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// NewQuestion godoc
// @Summary Seed a blank question
// @Description Returns a pre-filled draft question without adding it to the list
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/questions/new [get]
func (h *WizardHandler) NewQuestion(c *gin.Context) {
	q, err := h.service.NewQuestion(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, q, nil)
}

// UpsertQuestion godoc
// @Summary Add or replace a question
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param payload body models.Question true "Question"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /wizard/sessions/{id}/questions [put]
func (h *WizardHandler) UpsertQuestion(c *gin.Context) {
	var q models.Question
	if err := c.ShouldBindJSON(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid question payload"))
		return
	}
	view, err := h.service.UpsertQuestion(c.Request.Context(), claimsFromContext(c), c.Param("id"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// DeleteQuestion godoc
// @Summary Remove a question
// @Description Removes the question and renumbers the remainder
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param number path int true "Question number"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/questions/{number} [delete]
func (h *WizardHandler) DeleteQuestion(c *gin.Context) {
	number, err := questionNumber(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.DeleteQuestion(c.Request.Context(), claimsFromContext(c), c.Param("id"), number)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// MoveQuestion godoc
// @Summary Reorder a question
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param number path int true "Question number"
// @Param payload body moveQuestionRequest true "Direction: up or down"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/questions/{number}/move [post]
func (h *WizardHandler) MoveQuestion(c *gin.Context) {
	number, err := questionNumber(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req moveQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}
	view, err := h.service.MoveQuestion(c.Request.Context(), claimsFromContext(c), c.Param("id"), number, req.Direction)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// AddOption godoc
// @Summary Add an answer option
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param number path int true "Question number"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/questions/{number}/options [post]
func (h *WizardHandler) AddOption(c *gin.Context) {
	number, err := questionNumber(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	q, err := h.service.AddQuestionOption(c.Request.Context(), claimsFromContext(c), c.Param("id"), number)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, q, nil)
}

// RemoveOption godoc
// @Summary Remove an answer option
// @Description Clears the recorded correct answer when the removed option was selected
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param number path int true "Question number"
// @Param optionId path int true "Option ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /wizard/sessions/{id}/questions/{number}/options/{optionId} [delete]
func (h *WizardHandler) RemoveOption(c *gin.Context) {
	number, err := questionNumber(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	optionID, convErr := strconv.Atoi(c.Param("optionId"))
	if convErr != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "option id must be numeric"))
		return
	}
	q, err := h.service.RemoveQuestionOption(c.Request.Context(), claimsFromContext(c), c.Param("id"), number, optionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, q, nil)
}

// CourseStudents godoc
// @Summary List the course roster for assignment
// @Description Active students of the exam's course, filtered by query and assignment status
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param q query string false "Name, email or student number filter"
// @Param status query string false "all, assigned or not_assigned" default(all)
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/course-students [get]
func (h *WizardHandler) CourseStudents(c *gin.Context) {
	status := models.RosterStatusFilter(c.DefaultQuery("status", string(models.RosterFilterAll)))
	students, err := h.service.CourseStudents(c.Request.Context(), claimsFromContext(c), c.Param("id"), c.Query("q"), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// SearchStudents godoc
// @Summary Search the student directory
// @Description Cross-course picker, capped at the configured limit
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name, email or student number filter"
// @Success 200 {object} response.Envelope
// @Router /wizard/students [get]
func (h *WizardHandler) SearchStudents(c *gin.Context) {
	view, err := h.service.SearchStudents(c.Request.Context(), claimsFromContext(c), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if view.Truncated {
		meta = map[string]interface{}{"truncated": true, "hint": "narrow your search to see more students"}
	}
	response.JSON(c, http.StatusOK, view.Students, nil, meta)
}

// AddStudents godoc
// @Summary Assign students to the exam
// @Description Adds the listed students, or the whole course roster when all_course_students is set
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param payload body addStudentsRequest true "Students to assign"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/students [post]
func (h *WizardHandler) AddStudents(c *gin.Context) {
	var req addStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid students payload"))
		return
	}
	var (
		session *wizard.Session
		err     error
	)
	if req.AllCourseStudents {
		session, err = h.service.AssignAllCourseStudents(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	} else {
		session, err = h.service.AddStudents(c.Request.Context(), claimsFromContext(c), c.Param("id"), req.StudentIDs)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// RemoveStudent godoc
// @Summary Unassign one student
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/students/{studentId} [delete]
func (h *WizardHandler) RemoveStudent(c *gin.Context) {
	session, err := h.service.RemoveStudent(c.Request.Context(), claimsFromContext(c), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// RemoveAllStudents godoc
// @Summary Clear the roster
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/students [delete]
func (h *WizardHandler) RemoveAllStudents(c *gin.Context) {
	session, err := h.service.RemoveAllStudents(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// GenerateSeatNumbers godoc
// @Summary Generate sequential seat numbers
// @Description Assigns seat labels in roster order; running it again yields the same labels
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/seat-numbers [post]
func (h *WizardHandler) GenerateSeatNumbers(c *gin.Context) {
	session, err := h.service.GenerateSeatNumbers(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// SaveDraft godoc
// @Summary Save the exam as a draft
// @Description Validates every step, persists the exam and closes the session
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /wizard/sessions/{id}/save [post]
func (h *WizardHandler) SaveDraft(c *gin.Context) {
	exam, err := h.service.SaveDraft(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordExamPersisted(string(exam.Status))
	response.JSON(c, http.StatusOK, exam, nil)
}

// Publish godoc
// @Summary Publish the exam
// @Description Validates every step, persists the exam as published and closes the session
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /wizard/sessions/{id}/publish [post]
func (h *WizardHandler) Publish(c *gin.Context) {
	exam, err := h.service.Publish(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordExamPersisted(string(exam.Status))
	response.JSON(c, http.StatusOK, exam, nil)
}

// Policy godoc
// @Summary Active authoring policy
// @Description The strictness configuration the form should mirror
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /wizard/policy [get]
func (h *WizardHandler) Policy(c *gin.Context) {
	policy := h.service.Policy()
	response.JSON(c, http.StatusOK, policy, nil)
}

func questionNumber(c *gin.Context) (int, error) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "question number must be numeric")
	}
	return number, nil
}
