// Package examsession implements the state machine of a single exam attempt:
// question navigation, answer capture, the countdown and grading on submit.
package examsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/certifypro-backend/internal/catalog"
	"github.com/stemsi/certifypro-backend/internal/grading"
	"github.com/stemsi/certifypro-backend/internal/model"
)

// Session errors.
var (
	ErrSessionNotActive = errors.New("exam session is not in progress")
	ErrAlreadyStarted   = errors.New("exam session already started")
	ErrUnknownQuestion  = errors.New("question does not belong to this exam")
	ErrOptionOutOfRange = errors.New("option index out of range")
)

// ResultSink receives the graded result of a submitted session.
type ResultSink interface {
	SaveResult(ctx context.Context, result *model.ExamResult) error
}

// Options tunes a session. Zero values select production defaults.
type Options struct {
	// TickInterval drives the countdown. Zero disables the internal timer so
	// the owner must call Tick itself.
	TickInterval time.Duration
	Now          func() time.Time
	NewID        func() uuid.UUID
	Log          zerolog.Logger
}

// Session is one exam attempt. All methods are safe for concurrent use; ticks
// and user actions are serialized on the session mutex.
type Session struct {
	mu sync.Mutex

	exam   *model.Exam
	userID uuid.UUID
	sink   ResultSink
	opts   Options
	log    zerolog.Logger

	state        model.SessionState
	cursor       int
	answers      model.Answers
	remaining    int
	createdAt    time.Time
	startedAt    *time.Time
	lastActivity time.Time

	result *model.ExamResult
	grade  grading.Result
	timer  *Timer

	subs    map[int]chan Event
	nextSub int
}

// New creates a session in NotStarted state.
func New(exam *model.Exam, userID uuid.UUID, sink ResultSink, opts Options) (*Session, error) {
	if exam == nil || len(exam.Questions) == 0 {
		id := ""
		if exam != nil {
			id = exam.ID
		}
		return nil, &catalog.ConfigurationError{Problems: []string{fmt.Sprintf("exam %s: has no questions", id)}}
	}
	if sink == nil {
		return nil, errors.New("result sink is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.New
	}

	now := opts.Now()
	return &Session{
		exam:   exam,
		userID: userID,
		sink:   sink,
		opts:   opts,
		log: opts.Log.With().
			Str("component", "exam_session").
			Str("exam_id", exam.ID).
			Str("user_id", userID.String()).
			Logger(),
		state:        model.SessionStateNotStarted,
		answers:      model.Answers{},
		remaining:    exam.DurationSeconds(),
		createdAt:    now,
		lastActivity: now,
		subs:         make(map[int]chan Event),
	}, nil
}

// ExamID returns the exam of this session.
func (s *Session) ExamID() string { return s.exam.ID }

// UserID returns the owner of this session.
func (s *Session) UserID() uuid.UUID { return s.userID }

// State returns the current state.
func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastActivity is the time of the last accepted transition or action.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Touch records client activity on a session that has not ended.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Terminal() {
		s.lastActivity = s.opts.Now()
	}
}

// Start moves NotStarted to InProgress and starts the countdown. The timer
// lives until ctx is cancelled or the session leaves InProgress.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case model.SessionStateNotStarted:
	case model.SessionStateInProgress:
		return ErrAlreadyStarted
	default:
		return ErrSessionNotActive
	}

	now := s.opts.Now()
	s.state = model.SessionStateInProgress
	s.remaining = s.exam.DurationSeconds()
	s.cursor = 0
	s.startedAt = &now
	s.lastActivity = now

	if s.opts.TickInterval > 0 {
		s.timer = StartTimer(ctx, s.opts.TickInterval, func(ctx context.Context) bool {
			_, err := s.Tick(ctx)
			return !errors.Is(err, ErrSessionNotActive)
		})
	}

	s.log.Info().Int("remaining_seconds", s.remaining).Msg("Exam session started")
	return nil
}

// Answer records or replaces the selected option for a question.
func (s *Session) Answer(questionID string, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != model.SessionStateInProgress {
		return ErrSessionNotActive
	}

	q := s.exam.QuestionByID(questionID)
	if q == nil {
		return ErrUnknownQuestion
	}
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return ErrOptionOutOfRange
	}

	s.answers[questionID] = optionIndex
	s.lastActivity = s.opts.Now()
	return nil
}

// Navigate moves the cursor. Out-of-range targets leave it unchanged.
// Returns the cursor after the call.
func (s *Session) Navigate(target int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != model.SessionStateInProgress {
		return s.cursor, ErrSessionNotActive
	}
	if target >= 0 && target < len(s.exam.Questions) {
		s.cursor = target
		s.lastActivity = s.opts.Now()
	}
	return s.cursor, nil
}

// Tick consumes one second. When the countdown reaches zero the session is
// submitted with the answers present at that instant. If that submit fails
// the session stays InProgress at zero and the next tick retries it.
func (s *Session) Tick(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != model.SessionStateInProgress {
		return 0, ErrSessionNotActive
	}

	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		s.publishLocked(Event{Type: EventTick, RemainingSeconds: s.remaining})
		return s.remaining, nil
	}

	if _, err := s.submitLocked(ctx); err != nil {
		s.log.Error().Err(err).Msg("Timeout submit failed, will retry on next tick")
		return 0, err
	}
	s.log.Info().Msg("Exam session submitted on timeout")
	return 0, nil
}

// Submit grades the session and hands the result to the sink. Only the first
// successful call emits a result; later calls return ErrSessionNotActive.
func (s *Session) Submit(ctx context.Context) (*model.ExamResult, grading.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != model.SessionStateInProgress {
		return nil, grading.Result{}, ErrSessionNotActive
	}

	result, err := s.submitLocked(ctx)
	if err != nil {
		return nil, grading.Result{}, err
	}
	return result, s.grade, nil
}

func (s *Session) submitLocked(ctx context.Context) (*model.ExamResult, error) {
	grade, err := grading.Grade(s.exam, s.answers)
	if err != nil {
		return nil, err
	}

	result := &model.ExamResult{
		ID:      s.opts.NewID(),
		ExamID:  s.exam.ID,
		UserID:  s.userID,
		Score:   grade.Score,
		Passed:  grade.Passed,
		Date:    s.opts.Now().UTC(),
		Answers: s.answers.Clone(),
	}

	if err := s.sink.SaveResult(ctx, result); err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}

	s.state = model.SessionStateSubmitted
	s.result = result
	s.grade = grade
	s.lastActivity = s.opts.Now()
	s.stopTimerLocked()

	s.log.Info().
		Float64("score", grade.Score).
		Bool("passed", grade.Passed).
		Int("correct", grade.Correct).
		Int("total", grade.Total).
		Msg("Exam session graded")

	s.publishLocked(Event{Type: EventSubmitted, Result: result, Grade: &grade})
	s.closeSubsLocked()
	return result, nil
}

// Abandon discards the session without writing a result. Returns false when
// the session was already terminal.
func (s *Session) Abandon() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return false
	}

	s.state = model.SessionStateAbandoned
	s.lastActivity = s.opts.Now()
	s.stopTimerLocked()
	s.publishLocked(Event{Type: EventAbandoned})
	s.closeSubsLocked()

	s.log.Info().Msg("Exam session abandoned")
	return true
}

// Result returns the graded result once the session is submitted.
func (s *Session) Result() (*model.ExamResult, grading.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil, grading.Result{}, false
	}
	return s.result, s.grade, true
}

// Snapshot returns a view of the session for clients.
func (s *Session) Snapshot() model.ExamSessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.exam.Questions)
	answered := 0
	for _, q := range s.exam.Questions {
		if _, ok := s.answers[q.ID]; ok {
			answered++
		}
	}

	state := model.ExamSessionState{
		ExamID:           s.exam.ID,
		State:            s.state,
		CurrentIndex:     s.cursor,
		QuestionCount:    total,
		Answers:          s.answers.Clone(),
		AnsweredCount:    answered,
		ProgressPercent:  int(float64(answered)*100/float64(total) + 0.5),
		RemainingSeconds: s.remaining,
		RemainingDisplay: FormatRemaining(s.remaining),
		CreatedAt:        s.createdAt,
		StartedAt:        s.startedAt,
	}
	if s.state == model.SessionStateInProgress {
		q := s.exam.Questions[s.cursor].ForStudent()
		state.CurrentQuestion = &q
	}
	return state
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// FormatRemaining renders seconds as m:ss.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
