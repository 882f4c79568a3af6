package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolintra/exam-api/internal/models"
)

func TestNewQuestionDraftSeedsForm(t *testing.T) {
	draft := NewQuestionDraft([]models.Question{mcQuestion(1, 5), mcQuestion(2, 5)})

	assert.Equal(t, 3, draft.Number)
	assert.Equal(t, models.QuestionTypeMultipleChoice, draft.Type)
	assert.Equal(t, 1, draft.Points)
	require.Len(t, draft.Options, DraftOptionCount)
	assert.Equal(t, 1, draft.Options[0].ID)
	assert.Equal(t, 4, draft.Options[3].ID)
	assert.Nil(t, draft.CorrectOptionID)
}

func TestAddOptionMintsFreshID(t *testing.T) {
	q := mcQuestion(1, 5)
	AddOption(&q)

	require.Len(t, q.Options, 3)
	assert.Equal(t, 3, q.Options[2].ID)

	// ids below the high-water mark are not reused
	ok := RemoveOption(&q, 2)
	require.True(t, ok)
	AddOption(&q)
	assert.Equal(t, 4, q.Options[2].ID)
}

func TestRemoveOptionBlockedAtMinimum(t *testing.T) {
	q := mcQuestion(1, 5)
	require.Len(t, q.Options, MinOptions)

	ok := RemoveOption(&q, 1)
	assert.False(t, ok)
	assert.Len(t, q.Options, MinOptions)
}

func TestRemoveOptionClearsSelectedCorrectAnswer(t *testing.T) {
	q := mcQuestion(1, 5)
	AddOption(&q)
	require.NotNil(t, q.CorrectOptionID)
	require.Equal(t, 1, *q.CorrectOptionID)

	ok := RemoveOption(&q, 1)
	require.True(t, ok)
	assert.Nil(t, q.CorrectOptionID)
}

func TestRemoveOptionKeepsUnrelatedCorrectAnswer(t *testing.T) {
	q := mcQuestion(1, 5)
	AddOption(&q)

	ok := RemoveOption(&q, 2)
	require.True(t, ok)
	require.NotNil(t, q.CorrectOptionID)
	assert.Equal(t, 1, *q.CorrectOptionID)
}

func TestUpsertQuestionAppends(t *testing.T) {
	list, errs := UpsertQuestion(nil, mcQuestion(1, 10))
	require.Empty(t, errs)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Number)
}

func TestUpsertQuestionReplacesByNumber(t *testing.T) {
	list := []models.Question{mcQuestion(1, 10), mcQuestion(2, 5)}
	replacement := mcQuestion(2, 8)
	replacement.Text = "Updated"

	updated, errs := UpsertQuestion(list, replacement)
	require.Empty(t, errs)
	require.Len(t, updated, 2)
	assert.Equal(t, "Updated", updated[1].Text)
	assert.Equal(t, 8, updated[1].Points)
	// original list untouched
	assert.Equal(t, 5, list[1].Points)
}

func TestUpsertQuestionRejectsInvalid(t *testing.T) {
	bad := mcQuestion(1, 0)
	list, errs := UpsertQuestion(nil, bad)
	assert.Empty(t, list)
	assert.Contains(t, errs, "points")
}

func TestUpsertQuestionNormalizesPayload(t *testing.T) {
	rubric := "grade on clarity"
	q := models.Question{
		Number:  1,
		Text:    "Explain photosynthesis",
		Type:    models.QuestionTypeEssay,
		Points:  10,
		Rubric:  &rubric,
		Options: models.OptionList{{ID: 1, Text: "stale"}},
	}

	list, errs := UpsertQuestion(nil, q)
	require.Empty(t, errs)
	assert.Nil(t, list[0].Options)
	assert.Nil(t, list[0].CorrectOptionID)
	require.NotNil(t, list[0].Rubric)

	mc := mcQuestion(1, 10)
	mc.Rubric = &rubric
	list, errs = UpsertQuestion(nil, mc)
	require.Empty(t, errs)
	assert.Nil(t, list[0].Rubric)
	assert.NotEmpty(t, list[0].Options)
}

func TestDeleteQuestionRenumbersDensely(t *testing.T) {
	list := []models.Question{mcQuestion(1, 5), mcQuestion(2, 5), mcQuestion(3, 5)}

	updated := DeleteQuestion(list, 2)
	require.Len(t, updated, 2)
	assert.Equal(t, 1, updated[0].Number)
	assert.Equal(t, 2, updated[1].Number)
}

func TestMoveUpSwapsNumbersAndPositions(t *testing.T) {
	first := mcQuestion(1, 5)
	first.Text = "first"
	second := mcQuestion(2, 5)
	second.Text = "second"

	updated := MoveUp([]models.Question{first, second}, 2)
	require.Len(t, updated, 2)
	assert.Equal(t, "second", updated[0].Text)
	assert.Equal(t, 1, updated[0].Number)
	assert.Equal(t, "first", updated[1].Text)
	assert.Equal(t, 2, updated[1].Number)
}

func TestMoveUpNoOpAtTop(t *testing.T) {
	list := []models.Question{mcQuestion(1, 5), mcQuestion(2, 5)}
	updated := MoveUp(list, 1)
	assert.Equal(t, list, updated)
}

func TestMoveDownNoOpAtBottom(t *testing.T) {
	list := []models.Question{mcQuestion(1, 5), mcQuestion(2, 5)}
	updated := MoveDown(list, 2)
	assert.Equal(t, list, updated)
}

func TestTotalPoints(t *testing.T) {
	assert.Equal(t, 0, TotalPoints(nil))
	assert.Equal(t, 15, TotalPoints([]models.Question{mcQuestion(1, 10), mcQuestion(2, 5)}))
}
