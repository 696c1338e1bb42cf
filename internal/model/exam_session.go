package model

import "time"

// SessionState enumerates the exam session states.
type SessionState string

const (
	SessionStateNotStarted SessionState = "NOT_STARTED"
	SessionStateInProgress SessionState = "IN_PROGRESS"
	SessionStateSubmitted  SessionState = "SUBMITTED"
	SessionStateAbandoned  SessionState = "ABANDONED"
)

// Terminal reports whether no further transitions are possible.
func (s SessionState) Terminal() bool {
	return s == SessionStateSubmitted || s == SessionStateAbandoned
}

// ExamSessionState is a point-in-time view of a live exam session.
type ExamSessionState struct {
	ExamID           string              `json:"exam_id"`
	State            SessionState        `json:"state"`
	CurrentIndex     int                 `json:"current_index"`
	QuestionCount    int                 `json:"question_count"`
	CurrentQuestion  *QuestionForStudent `json:"current_question,omitempty"`
	Answers          Answers             `json:"answers"`
	AnsweredCount    int                 `json:"answered_count"`
	ProgressPercent  int                 `json:"progress_percent"`
	RemainingSeconds int                 `json:"remaining_seconds"`
	RemainingDisplay string              `json:"remaining_display"`
	CreatedAt        time.Time           `json:"created_at"`
	StartedAt        *time.Time          `json:"started_at,omitempty"`
}

// AnswerRequest records an answer for one question.
type AnswerRequest struct {
	QuestionID  string `json:"question_id" binding:"required,max=64"`
	OptionIndex *int   `json:"option_index" binding:"required,min=0"`
}

// NavigateRequest moves the question cursor.
type NavigateRequest struct {
	Index *int `json:"index" binding:"required"`
}

// SubmitResponse is returned after grading.
type SubmitResponse struct {
	Result       ExamResult `json:"result"`
	ScoreDisplay string     `json:"score_display"`
	Correct      int        `json:"correct"`
	Total        int        `json:"total"`
	PassScore    float64    `json:"pass_score"`
}
