package model

import (
	"time"

	"github.com/google/uuid"
)

// Answers maps question id to the selected option index.
type Answers map[string]int

// Clone returns an independent copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// ExamResult is one graded attempt. Immutable once created.
type ExamResult struct {
	ID      uuid.UUID `json:"id" validate:"required"`
	ExamID  string    `json:"exam_id" validate:"required"`
	UserID  uuid.UUID `json:"user_id" validate:"required"`
	Score   float64   `json:"score" validate:"min=0,max=100"`
	Passed  bool      `json:"passed"`
	Date    time.Time `json:"date" validate:"required"`
	Answers Answers   `json:"answers" validate:"dive,min=0"`
}
