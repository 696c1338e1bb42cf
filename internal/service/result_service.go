package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/certifypro-backend/internal/catalog"
	"github.com/stemsi/certifypro-backend/internal/model"
	"github.com/stemsi/certifypro-backend/internal/repository"
)

// ErrResultNotFound is returned when a user has no attempt at an exam.
var ErrResultNotFound = errors.New("no result for this exam")

// MarkerSyncer refreshes the cached user snapshot of a login session.
type MarkerSyncer interface {
	SyncMarker(ctx context.Context, userID uuid.UUID) error
}

// ResultService records graded attempts and answers questions about them.
type ResultService struct {
	users   repository.UserRepository
	results repository.ResultRepository
	catalog *catalog.Catalog
	markers MarkerSyncer
	locks   *keyedMutex
	log     zerolog.Logger
}

// NewResultService creates a new ResultService. markers may be nil.
func NewResultService(
	users repository.UserRepository,
	results repository.ResultRepository,
	cat *catalog.Catalog,
	markers MarkerSyncer,
	log zerolog.Logger,
) *ResultService {
	return &ResultService{
		users:   users,
		results: results,
		catalog: cat,
		markers: markers,
		locks:   newKeyedMutex(),
		log:     log.With().Str("component", "result_service").Logger(),
	}
}

// SaveResult appends the attempt and, when it passed, adds the exam to the
// user's completed list. Writes for the same (user, exam) are serialized.
func (s *ResultService) SaveResult(ctx context.Context, res *model.ExamResult) error {
	if !s.catalog.Has(res.ExamID) {
		return ErrExamNotFound
	}

	unlock := s.locks.Lock(res.UserID.String() + "|" + res.ExamID)
	defer unlock()

	if err := s.results.Append(ctx, res); err != nil {
		return fmt.Errorf("append result: %w", err)
	}

	s.log.Info().
		Str("result_id", res.ID.String()).
		Str("user_id", res.UserID.String()).
		Str("exam_id", res.ExamID).
		Float64("score", res.Score).
		Bool("passed", res.Passed).
		Msg("Exam result recorded")

	if !res.Passed {
		return nil
	}

	// The log already proves the pass, so a failure here only delays the
	// completed list; access checks read the log.
	if err := s.users.AddCompletedExam(ctx, res.UserID, res.ExamID); err != nil {
		s.log.Error().Err(err).
			Str("user_id", res.UserID.String()).
			Str("exam_id", res.ExamID).
			Msg("Failed to add completed exam")
		return nil
	}
	if s.markers != nil {
		if err := s.markers.SyncMarker(ctx, res.UserID); err != nil {
			s.log.Warn().Err(err).Str("user_id", res.UserID.String()).Msg("Failed to refresh session marker")
		}
	}
	return nil
}

// GetExamResult returns the most recent attempt of a user at an exam.
func (s *ResultService) GetExamResult(ctx context.Context, userID uuid.UUID, examID string) (*model.ExamResult, error) {
	attempts, err := s.results.ListByUserAndExam(ctx, userID, examID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	if len(attempts) == 0 {
		return nil, ErrResultNotFound
	}
	return &attempts[0], nil
}

// ListExamAttempts returns a user's attempts at one exam, newest first.
func (s *ResultService) ListExamAttempts(ctx context.Context, userID uuid.UUID, examID string) ([]model.ExamResult, error) {
	return s.results.ListByUserAndExam(ctx, userID, examID)
}

// ListResults returns all attempts of a user, newest first.
func (s *ResultService) ListResults(ctx context.Context, userID uuid.UUID) ([]model.ExamResult, error) {
	results, err := s.results.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	if results == nil {
		results = []model.ExamResult{}
	}
	return results, nil
}

// HasPassed reports whether any attempt of the user at the exam passed.
func (s *ResultService) HasPassed(ctx context.Context, userID uuid.UUID, examID string) (bool, error) {
	best, err := s.BestPassing(ctx, userID, examID)
	if err != nil {
		if errors.Is(err, ErrResultNotFound) {
			return false, nil
		}
		return false, err
	}
	return best != nil, nil
}

// BestPassing returns the highest scoring passed attempt. Ties go to the
// earliest attempt.
func (s *ResultService) BestPassing(ctx context.Context, userID uuid.UUID, examID string) (*model.ExamResult, error) {
	attempts, err := s.results.ListByUserAndExam(ctx, userID, examID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	best := bestPassing(attempts)
	if best == nil {
		return nil, ErrResultNotFound
	}
	return best, nil
}

// bestPassing picks the highest scoring passed attempt of a newest-first
// list, or nil when none passed.
func bestPassing(attempts []model.ExamResult) *model.ExamResult {
	var best *model.ExamResult
	for i := range attempts {
		a := &attempts[i]
		if !a.Passed {
			continue
		}
		// Newest first, so >= moves ties toward the earliest attempt.
		if best == nil || a.Score >= best.Score {
			best = a
		}
	}
	return best
}

// firstPassing returns the earliest passed attempt of a newest-first list.
func firstPassing(attempts []model.ExamResult) *model.ExamResult {
	var first *model.ExamResult
	for i := range attempts {
		if attempts[i].Passed {
			first = &attempts[i]
		}
	}
	return first
}
