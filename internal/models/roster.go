package models

// AttendanceStatus is recorded on exam day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// AttemptStatus tracks the student's progress through the exam.
type AttemptStatus string

const (
	AttemptNotStarted AttemptStatus = "not_started"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
)

// RosterEntry assigns one student to one exam. At most one entry exists per
// (exam, student) pair; the assigner de-duplicates on insert. Attendance,
// attempt and grade stay nil until exam day.
type RosterEntry struct {
	ID           string            `db:"id" json:"id"`
	ExamID       string            `db:"exam_id" json:"exam_id"`
	StudentID    string            `db:"student_id" json:"student_id"`
	SeatNumber   *string           `db:"seat_number" json:"seat_number,omitempty"`
	Attendance   *AttendanceStatus `db:"attendance_status" json:"attendance_status,omitempty"`
	Attempt      *AttemptStatus    `db:"attempt_status" json:"attempt_status,omitempty"`
	HasIncidents bool              `db:"has_incidents" json:"has_incidents"`
	Notes        *string           `db:"notes" json:"notes,omitempty"`
	Grade        *float64          `db:"grade" json:"grade,omitempty"`
}

// RosterEntryDetail enriches a roster entry with student info for display.
type RosterEntryDetail struct {
	RosterEntry
	StudentName   string `db:"student_name" json:"student_name"`
	StudentEmail  string `db:"student_email" json:"student_email"`
	StudentNumber string `db:"student_number" json:"student_number"`
}

// RosterStatusFilter restricts the course roster view.
type RosterStatusFilter string

const (
	RosterFilterAll         RosterStatusFilter = "all"
	RosterFilterAssigned    RosterStatusFilter = "assigned"
	RosterFilterNotAssigned RosterStatusFilter = "not_assigned"
)
