package wizard

import (
	"sort"

	"github.com/scolintra/exam-api/internal/models"
)

// MinOptions is the minimum number of answer choices on a multiple-choice
// question.
const MinOptions = 2

// DraftOptionCount is how many blank options a fresh question form seeds.
const DraftOptionCount = 4

// NewQuestionDraft seeds a question for the editor form: provisional number
// one past the current list, multiple choice by default, blank options.
func NewQuestionDraft(existing []models.Question) models.Question {
	options := make(models.OptionList, 0, DraftOptionCount)
	for i := 1; i <= DraftOptionCount; i++ {
		options = append(options, models.QuestionOption{ID: i})
	}
	return models.Question{
		Number:  len(existing) + 1,
		Type:    models.QuestionTypeMultipleChoice,
		Points:  1,
		Options: options,
	}
}

// NextOptionID returns the id for the next added option: one past the
// highest existing id, so removed ids are never reused within an edit.
func NextOptionID(q models.Question) int {
	max := 0
	for _, opt := range q.Options {
		if opt.ID > max {
			max = opt.ID
		}
	}
	return max + 1
}

// AddOption appends a blank option with a fresh id.
func AddOption(q *models.Question) {
	q.Options = append(q.Options, models.QuestionOption{ID: NextOptionID(*q)})
}

// RemoveOption deletes an option. Blocked when only the minimum remains.
// Removing the option selected as correct clears the correct answer;
// removing any other option leaves it untouched.
func RemoveOption(q *models.Question, optionID int) bool {
	if len(q.Options) <= MinOptions {
		return false
	}
	kept := make(models.OptionList, 0, len(q.Options)-1)
	found := false
	for _, opt := range q.Options {
		if opt.ID == optionID {
			found = true
			continue
		}
		kept = append(kept, opt)
	}
	if !found {
		return false
	}
	q.Options = kept
	if q.CorrectOptionID != nil && *q.CorrectOptionID == optionID {
		q.CorrectOptionID = nil
	}
	return true
}

// UpsertQuestion validates the entry and merges it into the list keyed by
// question number, keeping the list sorted. Returns the untouched list and
// the field errors when validation fails.
func UpsertQuestion(list []models.Question, q models.Question) ([]models.Question, map[string]string) {
	if errs := ValidateQuestion(q); len(errs) > 0 {
		return list, errs
	}
	q.NormalizePayload()
	if q.Number < 1 || q.Number > len(list)+1 {
		q.Number = len(list) + 1
	}
	updated := make([]models.Question, len(list))
	copy(updated, list)
	replaced := false
	for i := range updated {
		if updated[i].Number == q.Number {
			updated[i] = q
			replaced = true
			break
		}
	}
	if !replaced {
		updated = append(updated, q)
	}
	sort.Slice(updated, func(i, j int) bool { return updated[i].Number < updated[j].Number })
	return updated, nil
}

// DeleteQuestion removes the entry with the given number and renumbers the
// remainder back to a dense 1..N sequence.
func DeleteQuestion(list []models.Question, number int) []models.Question {
	kept := make([]models.Question, 0, len(list))
	for _, q := range list {
		if q.Number == number {
			continue
		}
		kept = append(kept, q)
	}
	return renumber(kept)
}

// MoveUp swaps the question with its predecessor. No-op at the top.
func MoveUp(list []models.Question, number int) []models.Question {
	return swapAdjacent(list, number, -1)
}

// MoveDown swaps the question with its successor. No-op at the bottom.
func MoveDown(list []models.Question, number int) []models.Question {
	return swapAdjacent(list, number, 1)
}

// TotalPoints is the running sum of question points.
func TotalPoints(list []models.Question) int {
	sum := 0
	for _, q := range list {
		sum += q.Points
	}
	return sum
}

func swapAdjacent(list []models.Question, number, direction int) []models.Question {
	idx := -1
	for i, q := range list {
		if q.Number == number {
			idx = i
			break
		}
	}
	other := idx + direction
	if idx < 0 || other < 0 || other >= len(list) {
		return list
	}
	updated := make([]models.Question, len(list))
	copy(updated, list)
	updated[idx], updated[other] = updated[other], updated[idx]
	updated[idx].Number, updated[other].Number = updated[other].Number, updated[idx].Number
	return updated
}

func renumber(list []models.Question) []models.Question {
	for i := range list {
		list[i].Number = i + 1
	}
	return list
}
