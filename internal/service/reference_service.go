package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/scolintra/exam-api/internal/models"
	appErrors "github.com/scolintra/exam-api/pkg/errors"
)

type referenceRepo interface {
	ListSessions(ctx context.Context) ([]models.ExamSession, error)
	ListCenters(ctx context.Context) ([]models.ExamCenter, error)
}

type courseListReader interface {
	ListByProfessor(ctx context.Context, professorID string) ([]models.Course, error)
}

// ReferenceService serves the dropdown data the authoring form needs:
// the professor's courses, exam sessions and exam centers.
type ReferenceService struct {
	refs    referenceRepo
	courses courseListReader
	logger  *zap.Logger
}

// NewReferenceService constructs ReferenceService.
func NewReferenceService(refs referenceRepo, courses courseListReader, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{refs: refs, courses: courses, logger: logger}
}

// Courses lists the courses taught by the calling professor.
func (s *ReferenceService) Courses(ctx context.Context, claims *models.JWTClaims) ([]models.Course, error) {
	if err := requireProfessor(claims); err != nil {
		return nil, err
	}
	courses, err := s.courses.ListByProfessor(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Sessions lists the available exam sessions.
func (s *ReferenceService) Sessions(ctx context.Context) ([]models.ExamSession, error) {
	sessions, err := s.refs.ListSessions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam sessions")
	}
	return sessions, nil
}

// Centers lists the available exam centers.
func (s *ReferenceService) Centers(ctx context.Context) ([]models.ExamCenter, error) {
	centers, err := s.refs.ListCenters(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam centers")
	}
	return centers, nil
}
