package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stemsi/certifypro-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validExam(id string) model.Exam {
	return model.Exam{
		ID:              id,
		Title:           "Exam " + id,
		DurationMinutes: 10,
		PassScore:       70,
		Price:           10,
		Questions: []model.Question{
			{ID: "q1", Text: "one?", Options: []string{"a", "b"}, CorrectAnswer: 0},
			{ID: "q2", Text: "two?", Options: []string{"a", "b", "c"}, CorrectAnswer: 2},
		},
	}
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	exam, err := c.Get("web-dev-fundamentals")
	require.NoError(t, err)
	assert.Len(t, exam.Questions, 10)
	assert.Equal(t, 60, exam.DurationMinutes)
	assert.Equal(t, float64(70), exam.PassScore)

	list := c.List()
	assert.Equal(t, []string{"web-dev-fundamentals", "react-fundamentals", "cloud-computing"},
		[]string{list[0].ID, list[1].ID, list[2].ID})
}

func TestGet(t *testing.T) {
	c, err := New([]model.Exam{validExam("a")})
	require.NoError(t, err)

	t.Run("unknown exam", func(t *testing.T) {
		_, err := c.Get("missing")
		assert.ErrorIs(t, err, ErrExamNotFound)
		assert.False(t, c.Has("missing"))
	})

	t.Run("returns an independent copy", func(t *testing.T) {
		e, err := c.Get("a")
		require.NoError(t, err)
		e.Questions[0].Options[0] = "mutated"
		e.Title = "mutated"

		again, err := c.Get("a")
		require.NoError(t, err)
		assert.Equal(t, "a", again.Questions[0].Options[0])
		assert.Equal(t, "Exam a", again.Title)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *model.Exam)
		problem string
	}{
		{"zero questions", func(e *model.Exam) { e.Questions = nil }, "has no questions"},
		{"correct answer out of range", func(e *model.Exam) { e.Questions[0].CorrectAnswer = 2 }, "correct answer 2 outside 2 options"},
		{"negative correct answer", func(e *model.Exam) { e.Questions[1].CorrectAnswer = -1 }, "correct answer -1"},
		{"duplicate question", func(e *model.Exam) { e.Questions[1].ID = "q1" }, "duplicate question id"},
		{"pass score above 100", func(e *model.Exam) { e.PassScore = 101 }, "PassScore"},
		{"zero duration", func(e *model.Exam) { e.DurationMinutes = 0 }, "DurationMinutes"},
		{"single option", func(e *model.Exam) { e.Questions[0].Options = []string{"a"}; e.Questions[0].CorrectAnswer = 0 }, "Options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExam("a")
			tt.mutate(&e)

			_, err := New([]model.Exam{e})
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "want ConfigurationError, got %v", err)
			assert.Contains(t, cfgErr.Error(), tt.problem)
		})
	}

	t.Run("duplicate exam id", func(t *testing.T) {
		err := Validate([]model.Exam{validExam("a"), validExam("a")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate id")
	})

	t.Run("empty catalog", func(t *testing.T) {
		assert.Error(t, Validate(nil))
	})
}

func TestLoad(t *testing.T) {
	t.Run("malformed document", func(t *testing.T) {
		_, err := Load(strings.NewReader(`{"exams": [`))
		var cfgErr *ConfigurationError
		assert.True(t, errors.As(err, &cfgErr))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := Load(strings.NewReader(`{"exams": [], "extra": 1}`))
		assert.Error(t, err)
	})
}
