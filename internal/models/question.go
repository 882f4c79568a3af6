package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// QuestionType discriminates the question payload shape.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
	QuestionTypeEssay          QuestionType = "essay"
)

// QuestionOption is one answer choice of a multiple-choice question.
type QuestionOption struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// OptionList stores the ordered answer choices as a JSONB column.
type OptionList []QuestionOption

// Value implements driver.Valuer.
func (o OptionList) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	return json.Marshal(o)
}

// Scan implements sql.Scanner.
func (o *OptionList) Scan(src interface{}) error {
	if src == nil {
		*o = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	default:
		return fmt.Errorf("unsupported options column type %T", src)
	}
}

// Question is an ordered child of an exam. Number is dense, starting at 1,
// and is the ordering key. The payload is tagged by Type: multiple-choice
// questions carry Options and CorrectOptionID, open-ended questions carry
// a Rubric.
type Question struct {
	ID              string       `db:"id" json:"id"`
	ExamID          string       `db:"exam_id" json:"exam_id"`
	Number          int          `db:"question_number" json:"question_number"`
	Text            string       `db:"question_text" json:"question_text"`
	Type            QuestionType `db:"question_type" json:"question_type"`
	Points          int          `db:"points" json:"points"`
	Options         OptionList   `db:"options" json:"options,omitempty"`
	CorrectOptionID *int         `db:"correct_option_id" json:"correct_option_id,omitempty"`
	Rubric          *string      `db:"rubric" json:"rubric,omitempty"`
}

// IsMultipleChoice reports whether the question carries an option payload.
func (q Question) IsMultipleChoice() bool {
	return q.Type == QuestionTypeMultipleChoice
}

// NormalizePayload clears the fields that do not belong to the question's
// tagged shape, so a type switch in the editor cannot leave stale data.
func (q *Question) NormalizePayload() {
	if q.IsMultipleChoice() {
		q.Rubric = nil
		return
	}
	q.Options = nil
	q.CorrectOptionID = nil
}

// HasOption reports whether the given option id exists on the question.
func (q Question) HasOption(optionID int) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}
