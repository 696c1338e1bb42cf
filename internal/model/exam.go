package model

// Question is a single multiple-choice question of a catalog exam.
type Question struct {
	ID            string   `json:"id" validate:"required,max=64"`
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"min=2,dive,required"`
	CorrectAnswer int      `json:"correct_answer" validate:"min=0"`
}

// Exam is an immutable catalog entry. Question order is presentation order.
type Exam struct {
	ID              string     `json:"id" validate:"required,max=64"`
	Title           string     `json:"title" validate:"required,max=255"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"duration_minutes" validate:"min=1,max=480"`
	PassScore       float64    `json:"pass_score" validate:"min=0,max=100"`
	Price           float64    `json:"price" validate:"min=0"`
	Questions       []Question `json:"questions" validate:"required,min=1,dive"`
}

// DurationSeconds is the full time allowance of an attempt.
func (e *Exam) DurationSeconds() int {
	return e.DurationMinutes * 60
}

// QuestionByID returns the question with the given id, or nil.
func (e *Exam) QuestionByID(id string) *Question {
	for i := range e.Questions {
		if e.Questions[i].ID == id {
			return &e.Questions[i]
		}
	}
	return nil
}

// ExamSummary is the catalog listing entry sent to clients.
type ExamSummary struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes"`
	PassScore       float64 `json:"pass_score"`
	Price           float64 `json:"price"`
	QuestionCount   int     `json:"question_count"`
}

// QuestionForStudent is a question without the correct answer, sent to students.
type QuestionForStudent struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// ExamPayload is the exam detail sent to students (no correct answers).
type ExamPayload struct {
	ExamSummary
	Questions []QuestionForStudent `json:"questions"`
}

// Summary builds the listing entry for an exam.
func (e *Exam) Summary() ExamSummary {
	return ExamSummary{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		DurationMinutes: e.DurationMinutes,
		PassScore:       e.PassScore,
		Price:           e.Price,
		QuestionCount:   len(e.Questions),
	}
}

// Payload builds the student-facing exam detail.
func (e *Exam) Payload() ExamPayload {
	questions := make([]QuestionForStudent, len(e.Questions))
	for i, q := range e.Questions {
		questions[i] = q.ForStudent()
	}
	return ExamPayload{ExamSummary: e.Summary(), Questions: questions}
}

// ForStudent strips the correct answer.
func (q Question) ForStudent() QuestionForStudent {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return QuestionForStudent{ID: q.ID, Text: q.Text, Options: options}
}
