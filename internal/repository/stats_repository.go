package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/scolintra/exam-api/internal/models"
)

// StatsRepository computes grading aggregates, the backend of the stats
// endpoint a results view calls for class average, high and low.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// ExamStats aggregates the graded roster entries of one exam.
func (r *StatsRepository) ExamStats(ctx context.Context, examID string) (*models.ExamStats, error) {
	const query = `SELECT e.id AS exam_id,
        AVG(es.grade) AS average,
        MAX(es.grade) AS highest,
        MIN(es.grade) AS lowest,
        COUNT(es.grade) AS graded_count,
        COUNT(es.grade) FILTER (WHERE es.grade >= e.passing_grade) AS passed_count
        FROM exams e
        LEFT JOIN exam_students es ON es.exam_id = e.id AND es.grade IS NOT NULL
        WHERE e.id = $1
        GROUP BY e.id`
	var stats models.ExamStats
	if err := r.db.GetContext(ctx, &stats, query, examID); err != nil {
		return nil, fmt.Errorf("exam stats: %w", err)
	}
	return &stats, nil
}
