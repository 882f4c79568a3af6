package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scolintra/exam-api/internal/models"
	appErrors "github.com/scolintra/exam-api/pkg/errors"
)

type examQueryRepo interface {
	FindDetailByID(ctx context.Context, id string) (*models.ExamDetail, error)
	List(ctx context.Context, filter models.ExamFilter) ([]models.ExamDetail, int, error)
	ListQuestions(ctx context.Context, examID string) ([]models.Question, error)
	ListRosterDetail(ctx context.Context, examID string) ([]models.RosterEntryDetail, error)
}

type examStatsRepo interface {
	ExamStats(ctx context.Context, examID string) (*models.ExamStats, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ExamView is the full read model of a single exam.
type ExamView struct {
	Exam      models.ExamDetail          `json:"exam"`
	Questions []models.Question          `json:"questions"`
	Roster    []models.RosterEntryDetail `json:"students"`
}

// ExamService serves the read side: exam listings, detail views and
// grading statistics.
type ExamService struct {
	repo     examQueryRepo
	stats    examStatsRepo
	cache    statsCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewExamService constructs ExamService.
func NewExamService(repo examQueryRepo, stats examStatsRepo, cache statsCache, cacheTTL time.Duration, logger *zap.Logger) *ExamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, stats: stats, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// List returns exams visible to the caller. Professors only see their own.
func (s *ExamService) List(ctx context.Context, claims *models.JWTClaims, filter models.ExamFilter) ([]models.ExamDetail, *models.Pagination, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleProfessor {
		filter.ProfessorID = claims.UserID
	}
	exams, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return exams, pagination, nil
}

// Get loads the full exam view: header, questions and roster.
func (s *ExamService) Get(ctx context.Context, claims *models.JWTClaims, examID string) (*ExamView, error) {
	detail, err := s.authorize(ctx, claims, examID)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	roster, err := s.repo.ListRosterDetail(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	return &ExamView{Exam: *detail, Questions: questions, Roster: roster}, nil
}

// Stats returns grading statistics for an exam, cached for a short window.
func (s *ExamService) Stats(ctx context.Context, claims *models.JWTClaims, examID string) (*models.ExamStats, error) {
	if _, err := s.authorize(ctx, claims, examID); err != nil {
		return nil, err
	}

	key := statsCacheKey(examID)
	if s.cache != nil {
		var cached models.ExamStats
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("stats cache read failed", zap.String("exam_id", examID), zap.Error(err))
		}
	}

	stats, err := s.stats.ExamStats(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute exam statistics")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, stats, s.cacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.String("exam_id", examID), zap.Error(err))
		}
	}
	return stats, nil
}

func (s *ExamService) authorize(ctx context.Context, claims *models.JWTClaims, examID string) (*models.ExamDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	detail, err := s.repo.FindDetailByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	if claims.Role == models.RoleProfessor && detail.ProfessorID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exam belongs to another professor")
	}
	return detail, nil
}

func statsCacheKey(examID string) string {
	return fmt.Sprintf("exam:stats:%s", examID)
}
