package examsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/certifypro-backend/internal/catalog"
	"github.com/stemsi/certifypro-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	results []*model.ExamResult
	failN   int
}

func (r *recordingSink) SaveResult(_ context.Context, result *model.ExamResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failN > 0 {
		r.failN--
		return errors.New("store unavailable")
	}
	r.results = append(r.results, result)
	return nil
}

func (r *recordingSink) saved() []*model.ExamResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.ExamResult(nil), r.results...)
}

// tenQuestionExam has correct answer 0 on every question.
func tenQuestionExam(minutes int) *model.Exam {
	e := &model.Exam{ID: "exam-1", Title: "Exam", DurationMinutes: minutes, PassScore: 70}
	for i := 0; i < 10; i++ {
		e.Questions = append(e.Questions, model.Question{
			ID:      fmt.Sprintf("q%d", i+1),
			Text:    "?",
			Options: []string{"a", "b", "c", "d"},
		})
	}
	return e
}

func newStarted(t *testing.T, exam *model.Exam, sink ResultSink) *Session {
	t.Helper()
	s, err := New(exam, uuid.New(), sink, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	return s
}

func TestNewRejectsExamWithoutQuestions(t *testing.T) {
	_, err := New(&model.Exam{ID: "empty", DurationMinutes: 1}, uuid.New(), &recordingSink{}, Options{})
	var cfgErr *catalog.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestStart(t *testing.T) {
	s, err := New(tenQuestionExam(60), uuid.New(), &recordingSink{}, Options{})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Answer("q1", 0), ErrSessionNotActive)

	require.NoError(t, s.Start(context.Background()))
	snap := s.Snapshot()
	assert.Equal(t, model.SessionStateInProgress, snap.State)
	assert.Equal(t, 3600, snap.RemainingSeconds)
	assert.Equal(t, "60:00", snap.RemainingDisplay)
	assert.Equal(t, 0, snap.CurrentIndex)
	require.NotNil(t, snap.CurrentQuestion)
	assert.Equal(t, "q1", snap.CurrentQuestion.ID)

	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)
}

func TestAnswer(t *testing.T) {
	s := newStarted(t, tenQuestionExam(60), &recordingSink{})

	require.NoError(t, s.Answer("q1", 2))
	require.NoError(t, s.Answer("q1", 3))
	assert.Equal(t, model.Answers{"q1": 3}, s.Snapshot().Answers)

	assert.ErrorIs(t, s.Answer("nope", 0), ErrUnknownQuestion)
	assert.ErrorIs(t, s.Answer("q2", 4), ErrOptionOutOfRange)
	assert.ErrorIs(t, s.Answer("q2", -1), ErrOptionOutOfRange)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.AnsweredCount)
	assert.Equal(t, 10, snap.ProgressPercent)
}

func TestNavigate(t *testing.T) {
	s := newStarted(t, tenQuestionExam(60), &recordingSink{})

	cur, err := s.Navigate(3)
	require.NoError(t, err)
	assert.Equal(t, 3, cur)

	cur, err = s.Navigate(10)
	require.NoError(t, err)
	assert.Equal(t, 3, cur)

	cur, err = s.Navigate(-1)
	require.NoError(t, err)
	assert.Equal(t, 3, cur)

	cur, err = s.Navigate(9)
	require.NoError(t, err)
	assert.Equal(t, 9, cur)
	assert.Equal(t, "q10", s.Snapshot().CurrentQuestion.ID)
}

func TestSubmit(t *testing.T) {
	t.Run("seven of ten correct passes", func(t *testing.T) {
		sink := &recordingSink{}
		s := newStarted(t, tenQuestionExam(60), sink)
		for i := 1; i <= 10; i++ {
			opt := 0
			if i > 7 {
				opt = 1
			}
			require.NoError(t, s.Answer(fmt.Sprintf("q%d", i), opt))
		}

		result, grade, err := s.Submit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 70.0, result.Score)
		assert.True(t, result.Passed)
		assert.Equal(t, 7, grade.Correct)
		assert.Equal(t, s.UserID(), result.UserID)
		assert.Equal(t, "exam-1", result.ExamID)
		assert.Equal(t, model.SessionStateSubmitted, s.State())
		assert.Len(t, sink.saved(), 1)
	})

	t.Run("second submit is rejected and emits nothing", func(t *testing.T) {
		sink := &recordingSink{}
		s := newStarted(t, tenQuestionExam(60), sink)

		_, _, err := s.Submit(context.Background())
		require.NoError(t, err)
		_, _, err = s.Submit(context.Background())
		assert.ErrorIs(t, err, ErrSessionNotActive)
		assert.Len(t, sink.saved(), 1)

		assert.ErrorIs(t, s.Answer("q1", 0), ErrSessionNotActive)
		_, err = s.Navigate(1)
		assert.ErrorIs(t, err, ErrSessionNotActive)
	})

	t.Run("concurrent submits emit exactly one result", func(t *testing.T) {
		sink := &recordingSink{}
		s := newStarted(t, tenQuestionExam(60), sink)

		var wg sync.WaitGroup
		var mu sync.Mutex
		ok := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, _, err := s.Submit(context.Background()); err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, ok)
		assert.Len(t, sink.saved(), 1)
	})

	t.Run("sink failure keeps the session open", func(t *testing.T) {
		sink := &recordingSink{failN: 1}
		s := newStarted(t, tenQuestionExam(60), sink)
		require.NoError(t, s.Answer("q1", 0))

		_, _, err := s.Submit(context.Background())
		require.Error(t, err)
		assert.Equal(t, model.SessionStateInProgress, s.State())

		result, _, err := s.Submit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, model.Answers{"q1": 0}, result.Answers)
	})

	t.Run("result answers are detached from the session", func(t *testing.T) {
		s := newStarted(t, tenQuestionExam(60), &recordingSink{})
		require.NoError(t, s.Answer("q1", 0))
		result, _, err := s.Submit(context.Background())
		require.NoError(t, err)

		result.Answers["q1"] = 3
		assert.Equal(t, 0, s.Snapshot().Answers["q1"])
	})
}

func TestTick(t *testing.T) {
	t.Run("countdown decreases then submits once at zero", func(t *testing.T) {
		sink := &recordingSink{}
		s := newStarted(t, tenQuestionExam(1), sink)
		for i := 1; i <= 3; i++ {
			require.NoError(t, s.Answer(fmt.Sprintf("q%d", i), 0))
		}

		prev := 60
		for i := 0; i < 59; i++ {
			rem, err := s.Tick(context.Background())
			require.NoError(t, err)
			assert.Equal(t, prev-1, rem)
			prev = rem
		}
		assert.Empty(t, sink.saved())

		_, err := s.Tick(context.Background())
		require.NoError(t, err)
		assert.Equal(t, model.SessionStateSubmitted, s.State())

		saved := sink.saved()
		require.Len(t, saved, 1)
		assert.Equal(t, 30.0, saved[0].Score)
		assert.False(t, saved[0].Passed)
		assert.Len(t, saved[0].Answers, 3)

		_, err = s.Tick(context.Background())
		assert.ErrorIs(t, err, ErrSessionNotActive)
		assert.Len(t, sink.saved(), 1)
	})

	t.Run("failed timeout submit retries on next tick", func(t *testing.T) {
		sink := &recordingSink{failN: 1}
		s := newStarted(t, tenQuestionExam(1), sink)
		for i := 0; i < 59; i++ {
			_, err := s.Tick(context.Background())
			require.NoError(t, err)
		}

		_, err := s.Tick(context.Background())
		require.Error(t, err)
		assert.Equal(t, model.SessionStateInProgress, s.State())
		assert.Equal(t, 0, s.Snapshot().RemainingSeconds)

		_, err = s.Tick(context.Background())
		require.NoError(t, err)
		assert.Equal(t, model.SessionStateSubmitted, s.State())
		assert.Len(t, sink.saved(), 1)
	})
}

func TestTimerAutoSubmit(t *testing.T) {
	sink := &recordingSink{}
	s, err := New(tenQuestionExam(1), uuid.New(), sink, Options{TickInterval: time.Millisecond})
	require.NoError(t, err)

	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Answer("q1", 0))

	var last EventType
	timeout := time.After(5 * time.Second)
loop:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			last = ev.Type
		case <-timeout:
			t.Fatal("session was not submitted by the timer")
		}
	}

	assert.Equal(t, EventSubmitted, last)
	assert.Equal(t, model.SessionStateSubmitted, s.State())
	assert.Len(t, sink.saved(), 1)
}

func TestAbandon(t *testing.T) {
	sink := &recordingSink{}
	s, err := New(tenQuestionExam(1), uuid.New(), sink, Options{TickInterval: time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	s.mu.Lock()
	timer := s.timer
	s.mu.Unlock()
	require.NotNil(t, timer)

	assert.True(t, s.Abandon())
	assert.False(t, s.Abandon())

	select {
	case <-timer.Done():
	case <-time.After(time.Second):
		t.Fatal("timer kept running after abandon")
	}

	assert.Equal(t, model.SessionStateAbandoned, s.State())
	assert.Empty(t, sink.saved())
	_, _, err = s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSessionNotActive)

	events, _ := s.Subscribe()
	ev := <-events
	assert.Equal(t, EventAbandoned, ev.Type)
}

func TestTouch(t *testing.T) {
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	s, err := New(tenQuestionExam(1), uuid.New(), &recordingSink{}, Options{Now: now})
	require.NoError(t, err)

	clock = clock.Add(10 * time.Minute)
	s.Touch()
	assert.Equal(t, clock, s.LastActivity())

	require.True(t, s.Abandon())
	ended := s.LastActivity()
	clock = clock.Add(10 * time.Minute)
	s.Touch()
	assert.Equal(t, ended, s.LastActivity(), "terminal sessions keep their end time")
}

func TestTimerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	timer := StartTimer(ctx, time.Millisecond, func(context.Context) bool { return true })
	cancel()

	select {
	case <-timer.Done():
	case <-time.After(time.Second):
		t.Fatal("timer did not exit on cancel")
	}
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "0:00", FormatRemaining(0))
	assert.Equal(t, "0:59", FormatRemaining(59))
	assert.Equal(t, "1:05", FormatRemaining(65))
	assert.Equal(t, "90:00", FormatRemaining(5400))
	assert.Equal(t, "0:00", FormatRemaining(-3))
}
