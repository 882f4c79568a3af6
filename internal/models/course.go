package models

import "time"

// Course represents a taught course a professor can attach an exam to.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	ProfessorID string    `db:"professor_id" json:"professor_id"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ExamSession groups exams into an examination period.
type ExamSession struct {
	ID       string    `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	StartsOn time.Time `db:"starts_on" json:"starts_on"`
	EndsOn   time.Time `db:"ends_on" json:"ends_on"`
}

// ExamCenter is a physical location where an exam can be sat.
type ExamCenter struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	City string `db:"city" json:"city"`
}
