package grading

import (
	"fmt"
	"testing"

	"github.com/stemsi/certifypro-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenQuestionExam has correct answer 0 for every question.
func tenQuestionExam(passScore float64) *model.Exam {
	qs := make([]model.Question, 10)
	for i := range qs {
		qs[i] = model.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Text:          "?",
			Options:       []string{"right", "wrong"},
			CorrectAnswer: 0,
		}
	}
	return &model.Exam{ID: "ten", Title: "Ten", DurationMinutes: 10, PassScore: passScore, Questions: qs}
}

func answersWith(correct, wrong int) model.Answers {
	a := model.Answers{}
	n := 1
	for i := 0; i < correct; i++ {
		a[fmt.Sprintf("q%d", n)] = 0
		n++
	}
	for i := 0; i < wrong; i++ {
		a[fmt.Sprintf("q%d", n)] = 1
		n++
	}
	return a
}

func TestGradeScenarios(t *testing.T) {
	exam := tenQuestionExam(70)

	t.Run("seven of ten passes at threshold", func(t *testing.T) {
		r, err := Grade(exam, answersWith(7, 3))
		require.NoError(t, err)
		assert.Equal(t, 70.0, r.Score)
		assert.True(t, r.Passed)
		assert.Equal(t, "70.0", FormatScore(r.Score))
	})

	t.Run("six correct four unanswered fails", func(t *testing.T) {
		r, err := Grade(exam, answersWith(6, 0))
		require.NoError(t, err)
		assert.Equal(t, 60.0, r.Score)
		assert.False(t, r.Passed)
		assert.Equal(t, 6, r.Correct)
		assert.Equal(t, 10, r.Total)
	})

	t.Run("empty answer sheet", func(t *testing.T) {
		r, err := Grade(exam, nil)
		require.NoError(t, err)
		assert.Equal(t, 0.0, r.Score)
		assert.False(t, r.Passed)
	})

	t.Run("answers for unknown questions are ignored", func(t *testing.T) {
		a := answersWith(10, 0)
		a["q99"] = 0
		r, err := Grade(exam, a)
		require.NoError(t, err)
		assert.Equal(t, 100.0, r.Score)
	})
}

func TestGradeUsesUnroundedScore(t *testing.T) {
	exam := &model.Exam{
		ID:        "three",
		PassScore: 66.7,
		Questions: []model.Question{
			{ID: "a", Options: []string{"x", "y"}, CorrectAnswer: 0},
			{ID: "b", Options: []string{"x", "y"}, CorrectAnswer: 0},
			{ID: "c", Options: []string{"x", "y"}, CorrectAnswer: 0},
		},
	}

	r, err := Grade(exam, model.Answers{"a": 0, "b": 0})
	require.NoError(t, err)
	// 66.666... displays as 66.7 but is below the threshold.
	assert.Equal(t, "66.7", FormatScore(r.Score))
	assert.False(t, r.Passed)
}

func TestGradeIsDeterministic(t *testing.T) {
	exam := tenQuestionExam(50)
	answers := answersWith(4, 5)

	first, err := Grade(exam, answers)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Grade(exam, answers)
		require.NoError(t, err)
		assert.Equal(t, first, again)
		assert.Equal(t, again.Score >= exam.PassScore, again.Passed)
	}
}

func TestGradeZeroQuestions(t *testing.T) {
	_, err := Grade(&model.Exam{ID: "empty"}, model.Answers{})
	assert.ErrorIs(t, err, ErrNoQuestions)
}
