package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/certifypro-backend/internal/examsession"
	"github.com/stemsi/certifypro-backend/internal/grading"
	"github.com/stemsi/certifypro-backend/internal/model"
)

// ErrSessionNotFound is returned when the user has no live session for an exam.
var ErrSessionNotFound = errors.New("exam session not found")

type sessionKey struct {
	userID uuid.UUID
	examID string
}

// ExamSessionService is the registry of live exam sessions, at most one per
// (user, exam).
type ExamSessionService struct {
	// ctx bounds every session timer; cancelling it stops all countdowns.
	ctx          context.Context
	exams        *ExamService
	sink         examsession.ResultSink
	tickInterval time.Duration
	log          zerolog.Logger

	mu       sync.Mutex
	sessions map[sessionKey]*examsession.Session
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	ctx context.Context,
	exams *ExamService,
	sink examsession.ResultSink,
	tickInterval time.Duration,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		ctx:          ctx,
		exams:        exams,
		sink:         sink,
		tickInterval: tickInterval,
		log:          log.With().Str("component", "exam_session_service").Logger(),
		sessions:     make(map[sessionKey]*examsession.Session),
	}
}

// Open returns the live session for the pair, creating a NotStarted one when
// none exists or the previous attempt has ended.
func (s *ExamSessionService) Open(userID uuid.UUID, examID string) (*model.ExamSessionState, error) {
	sess, err := s.open(userID, examID)
	if err != nil {
		return nil, err
	}
	state := sess.Snapshot()
	return &state, nil
}

func (s *ExamSessionService) open(userID uuid.UUID, examID string) (*examsession.Session, error) {
	exam, err := s.exams.Exam(examID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey{userID: userID, examID: examID}
	if sess, ok := s.sessions[key]; ok && !sess.State().Terminal() {
		sess.Touch()
		return sess, nil
	}

	sess, err := examsession.New(exam, userID, s.sink, examsession.Options{
		TickInterval: s.tickInterval,
		Log:          s.log,
	})
	if err != nil {
		return nil, err
	}
	s.sessions[key] = sess
	return sess, nil
}

// Start begins the countdown, opening the session first if needed. Starting
// a running session returns its current state.
func (s *ExamSessionService) Start(userID uuid.UUID, examID string) (*model.ExamSessionState, error) {
	sess, err := s.open(userID, examID)
	if err != nil {
		return nil, err
	}
	if err := sess.Start(s.ctx); err != nil && !errors.Is(err, examsession.ErrAlreadyStarted) {
		return nil, err
	}
	state := sess.Snapshot()
	return &state, nil
}

// Answer records an answer on the live session.
func (s *ExamSessionService) Answer(userID uuid.UUID, examID, questionID string, optionIndex int) (*model.ExamSessionState, error) {
	sess, err := s.get(userID, examID)
	if err != nil {
		return nil, err
	}
	if err := sess.Answer(questionID, optionIndex); err != nil {
		return nil, err
	}
	state := sess.Snapshot()
	return &state, nil
}

// Navigate moves the question cursor of the live session.
func (s *ExamSessionService) Navigate(userID uuid.UUID, examID string, index int) (*model.ExamSessionState, error) {
	sess, err := s.get(userID, examID)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Navigate(index); err != nil {
		return nil, err
	}
	state := sess.Snapshot()
	return &state, nil
}

// State returns the current view of the session. Reading it counts as
// activity for the idle sweep.
func (s *ExamSessionService) State(userID uuid.UUID, examID string) (*model.ExamSessionState, error) {
	sess, err := s.get(userID, examID)
	if err != nil {
		return nil, err
	}
	sess.Touch()
	state := sess.Snapshot()
	return &state, nil
}

// Submit grades the live session and records the result.
func (s *ExamSessionService) Submit(ctx context.Context, userID uuid.UUID, examID string) (*model.SubmitResponse, error) {
	sess, err := s.get(userID, examID)
	if err != nil {
		return nil, err
	}
	result, grade, err := sess.Submit(ctx)
	if err != nil {
		return nil, err
	}
	return s.submitResponse(examID, result, grade)
}

// SubmittedResult rebuilds the response for an already submitted session.
// It stays available until the sweeper drops the session.
func (s *ExamSessionService) SubmittedResult(userID uuid.UUID, examID string) (*model.SubmitResponse, error) {
	sess, err := s.get(userID, examID)
	if err != nil {
		return nil, err
	}
	result, grade, ok := sess.Result()
	if !ok {
		return nil, examsession.ErrSessionNotActive
	}
	return s.submitResponse(examID, result, grade)
}

func (s *ExamSessionService) submitResponse(examID string, result *model.ExamResult, grade grading.Result) (*model.SubmitResponse, error) {
	exam, err := s.exams.Exam(examID)
	if err != nil {
		return nil, err
	}
	return &model.SubmitResponse{
		Result:       *result,
		ScoreDisplay: grading.FormatScore(result.Score),
		Correct:      grade.Correct,
		Total:        grade.Total,
		PassScore:    exam.PassScore,
	}, nil
}

// Abandon discards the live session without recording a result.
func (s *ExamSessionService) Abandon(userID uuid.UUID, examID string) error {
	s.mu.Lock()
	key := sessionKey{userID: userID, examID: examID}
	sess, ok := s.sessions[key]
	if ok {
		delete(s.sessions, key)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	if !sess.Abandon() {
		return examsession.ErrSessionNotActive
	}
	return nil
}

// Subscribe attaches to the event stream of the live session.
func (s *ExamSessionService) Subscribe(userID uuid.UUID, examID string) (<-chan examsession.Event, func(), error) {
	sess, err := s.get(userID, examID)
	if err != nil {
		return nil, nil, err
	}
	events, cancel := sess.Subscribe()
	return events, cancel, nil
}

// Sweep drops terminal sessions and abandons sessions left NotStarted longer
// than idleTTL. Returns the number of sessions removed.
func (s *ExamSessionService) Sweep(now time.Time, idleTTL time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, sess := range s.sessions {
		state := sess.State()
		switch {
		case state.Terminal() && now.Sub(sess.LastActivity()) >= idleTTL:
		case state == model.SessionStateNotStarted && now.Sub(sess.LastActivity()) >= idleTTL:
			sess.Abandon()
		default:
			continue
		}
		delete(s.sessions, key)
		removed++
	}
	return removed
}

// Count is the number of sessions in the registry.
func (s *ExamSessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown abandons every live session. Unsubmitted answers are lost.
func (s *ExamSessionService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	abandoned := 0
	for key, sess := range s.sessions {
		if sess.Abandon() {
			abandoned++
		}
		delete(s.sessions, key)
	}
	if abandoned > 0 {
		s.log.Warn().Int("abandoned", abandoned).Msg("Live exam sessions abandoned on shutdown")
	}
}

func (s *ExamSessionService) get(userID uuid.UUID, examID string) (*examsession.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionKey{userID: userID, examID: examID}]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}
