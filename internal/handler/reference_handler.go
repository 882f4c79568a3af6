package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scolintra/exam-api/internal/service"
	"github.com/scolintra/exam-api/pkg/response"
)

// ReferenceHandler serves the dropdown data for the authoring form.
type ReferenceHandler struct {
	service *service.ReferenceService
}

// NewReferenceHandler creates a new handler.
func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

// Courses godoc
// @Summary List the caller's courses
// @Tags References
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /references/courses [get]
func (h *ReferenceHandler) Courses(c *gin.Context) {
	courses, err := h.service.Courses(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Sessions godoc
// @Summary List exam sessions
// @Tags References
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /references/sessions [get]
func (h *ReferenceHandler) Sessions(c *gin.Context) {
	sessions, err := h.service.Sessions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Centers godoc
// @Summary List exam centers
// @Tags References
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /references/centers [get]
func (h *ReferenceHandler) Centers(c *gin.Context) {
	centers, err := h.service.Centers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, centers, nil)
}
