// Package grading scores an answer sheet against an exam.
package grading

import (
	"errors"
	"strconv"

	"github.com/stemsi/certifypro-backend/internal/model"
)

// ErrNoQuestions is returned for an exam without questions, which the catalog
// rejects at load time.
var ErrNoQuestions = errors.New("exam has no questions")

// Result is the outcome of grading one answer sheet.
type Result struct {
	Score   float64 `json:"score"`
	Passed  bool    `json:"passed"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
}

// Grade counts the questions whose recorded answer equals the correct option.
// Unanswered questions and answers to unknown question ids count as wrong.
// The pass verdict uses the unrounded score.
func Grade(exam *model.Exam, answers model.Answers) (Result, error) {
	total := len(exam.Questions)
	if total == 0 {
		return Result{}, ErrNoQuestions
	}

	correct := 0
	for _, q := range exam.Questions {
		if ans, ok := answers[q.ID]; ok && ans == q.CorrectAnswer {
			correct++
		}
	}

	score := float64(correct) * 100 / float64(total)
	return Result{
		Score:   score,
		Passed:  score >= exam.PassScore,
		Correct: correct,
		Total:   total,
	}, nil
}

// FormatScore renders a score with one decimal place, e.g. "66.7".
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 1, 64)
}
