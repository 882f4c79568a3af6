package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scolintra/exam-api/internal/models"
)

// seedEntry is how every input path creates an assignment: seat, attendance
// and attempt unset, no incidents.
func seedEntry(examID, studentID string) models.RosterEntry {
	return models.RosterEntry{
		ExamID:       examID,
		StudentID:    studentID,
		HasIncidents: false,
	}
}

// AssignStudents adds the given students to the roster, skipping any already
// present so the (exam, student) pair stays unique. Used by both the
// bulk-by-course path and the manual picker.
func AssignStudents(roster []models.RosterEntry, examID string, studentIDs []string) []models.RosterEntry {
	present := make(map[string]bool, len(roster))
	for _, entry := range roster {
		present[entry.StudentID] = true
	}
	for _, id := range studentIDs {
		if id == "" || present[id] {
			continue
		}
		roster = append(roster, seedEntry(examID, id))
		present[id] = true
	}
	return roster
}

// RemoveStudent drops a single assignment from the roster.
func RemoveStudent(roster []models.RosterEntry, studentID string) []models.RosterEntry {
	kept := make([]models.RosterEntry, 0, len(roster))
	for _, entry := range roster {
		if entry.StudentID == studentID {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

// GenerateSeatNumbers assigns sequential seat labels in current roster
// order. Re-running it on an unchanged roster yields the same labels.
func GenerateSeatNumbers(roster []models.RosterEntry, padded bool) {
	for i := range roster {
		var label string
		if padded {
			label = fmt.Sprintf("%03d", i+1)
		} else {
			label = strconv.Itoa(i + 1)
		}
		roster[i].SeatNumber = &label
	}
}

// FilterCourseStudents narrows the course roster table: free-text match
// against name, email and student number, plus the assigned/not-assigned
// status filter.
func FilterCourseStudents(students []models.CourseStudent, query string, status models.RosterStatusFilter, roster []models.RosterEntry) []models.CourseStudent {
	assigned := make(map[string]bool, len(roster))
	for _, entry := range roster {
		assigned[entry.StudentID] = true
	}
	query = strings.ToLower(strings.TrimSpace(query))
	matched := make([]models.CourseStudent, 0, len(students))
	for _, s := range students {
		if query != "" && !matchesQuery(s, query) {
			continue
		}
		switch status {
		case models.RosterFilterAssigned:
			if !assigned[s.StudentID] {
				continue
			}
		case models.RosterFilterNotAssigned:
			if assigned[s.StudentID] {
				continue
			}
		}
		matched = append(matched, s)
	}
	return matched
}

func matchesQuery(s models.CourseStudent, query string) bool {
	return strings.Contains(strings.ToLower(s.FullName), query) ||
		strings.Contains(strings.ToLower(s.Email), query) ||
		strings.Contains(strings.ToLower(s.StudentNumber), query)
}
