package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/scolintra/exam-api/internal/models"
)

// ReferenceRepository serves the session and center lookup tables the
// scheduling step presents.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// ListSessions returns all examination sessions, newest first.
func (r *ReferenceRepository) ListSessions(ctx context.Context) ([]models.ExamSession, error) {
	const query = `SELECT id, name, starts_on, ends_on FROM exam_sessions ORDER BY starts_on DESC`
	var sessions []models.ExamSession
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, fmt.Errorf("list exam sessions: %w", err)
	}
	return sessions, nil
}

// ListCenters returns all exam centers.
func (r *ReferenceRepository) ListCenters(ctx context.Context) ([]models.ExamCenter, error) {
	const query = `SELECT id, name, city FROM exam_centers ORDER BY name`
	var centers []models.ExamCenter
	if err := r.db.SelectContext(ctx, &centers, query); err != nil {
		return nil, fmt.Errorf("list exam centers: %w", err)
	}
	return centers, nil
}
