package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/certifypro-backend/internal/model"
)

// DashboardService assembles a user's progress across the catalog.
type DashboardService struct {
	exams   *ExamService
	auth    *AuthService
	results *ResultService
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(exams *ExamService, auth *AuthService, results *ResultService) *DashboardService {
	return &DashboardService{exams: exams, auth: auth, results: results}
}

// GetDashboard splits the catalog into completed and available exams. An exam
// is completed when the user's completed list names it or a passing attempt
// exists in the log.
func (s *DashboardService) GetDashboard(ctx context.Context, userID uuid.UUID) (*model.Dashboard, error) {
	user, err := s.auth.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	attempts, err := s.results.ListResults(ctx, userID)
	if err != nil {
		return nil, err
	}

	passed := make(map[string]bool, len(user.CompletedExams))
	for _, id := range user.CompletedExams {
		passed[id] = true
	}
	for _, a := range attempts {
		if a.Passed {
			passed[a.ExamID] = true
		}
	}

	d := &model.Dashboard{
		User:         user.Public(),
		Available:    []model.ExamSummary{},
		Completed:    []model.ExamSummary{},
		Certificates: []model.ExamSummary{},
		Attempts:     attempts,
	}
	for _, e := range s.exams.List() {
		if passed[e.ID] {
			d.Completed = append(d.Completed, e)
			d.Certificates = append(d.Certificates, e)
		} else {
			d.Available = append(d.Available, e)
		}
	}
	return d, nil
}
