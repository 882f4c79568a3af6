package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID            string    `db:"id" json:"id"`
	StudentNumber string    `db:"student_number" json:"student_number"`
	FullName      string    `db:"full_name" json:"full_name"`
	Email         string    `db:"email" json:"email"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CourseStudent is a student row scoped to one course's active enrollment.
type CourseStudent struct {
	StudentID     string `db:"student_id" json:"student_id"`
	FullName      string `db:"full_name" json:"full_name"`
	Email         string `db:"email" json:"email"`
	StudentNumber string `db:"student_number" json:"student_number"`
}
