package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/certifypro-backend/internal/catalog"
	"github.com/stemsi/certifypro-backend/internal/config"
	"github.com/stemsi/certifypro-backend/internal/model"
	"github.com/stemsi/certifypro-backend/internal/repository"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fixture wires the services over in-memory repositories.
type fixture struct {
	cfg          *config.Config
	catalog      *catalog.Catalog
	users        *repository.MemoryUserRepository
	results      *repository.MemoryResultRepository
	markers      *repository.MemorySessionMarkerRepository
	auth         *AuthService
	exams        *ExamService
	resultSvc    *ResultService
	certificates *CertificateService
	dashboard    *DashboardService
	sessions     *ExamSessionService
}

// testCatalog has two exams: "go-basics" (4 questions, pass 50) and
// "sql-basics" (2 questions, pass 100). Correct answer is 1 everywhere.
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	q := func(id string) model.Question {
		return model.Question{ID: id, Text: id + "?", Options: []string{"a", "b", "c"}, CorrectAnswer: 1}
	}
	cat, err := catalog.New([]model.Exam{
		{
			ID: "go-basics", Title: "Go Basics", DurationMinutes: 30, PassScore: 50, Price: 49,
			Questions: []model.Question{q("q1"), q("q2"), q("q3"), q("q4")},
		},
		{
			ID: "sql-basics", Title: "SQL Basics", DurationMinutes: 10, PassScore: 100, Price: 19,
			Questions: []model.Question{q("s1"), q("s2")},
		},
	})
	require.NoError(t, err)
	return cat
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		cfg: &config.Config{
			JWTSecret:         "test-secret",
			JWTExpiry:         time.Hour,
			BcryptCost:        bcrypt.MinCost,
			CertificateIssuer: "CertifyPro",
		},
		catalog: testCatalog(t),
		users:   repository.NewMemoryUserRepository(),
		results: repository.NewMemoryResultRepository(),
		markers: repository.NewMemorySessionMarkerRepository(),
	}
	log := zerolog.Nop()

	f.auth = NewAuthService(f.cfg, f.users, f.markers, log)
	f.exams = NewExamService(f.catalog, log)
	f.resultSvc = NewResultService(f.users, f.results, f.catalog, f.auth, log)
	f.certificates = NewCertificateService(f.exams, f.auth, f.resultSvc, f.cfg.CertificateIssuer, log)
	f.dashboard = NewDashboardService(f.exams, f.auth, f.resultSvc)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	f.sessions = NewExamSessionService(ctx, f.exams, f.resultSvc, 0, log)
	t.Cleanup(f.sessions.Shutdown)

	return f
}

func (f *fixture) register(t *testing.T, email string) (*model.AuthResponse, *Claims) {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), &model.RegisterRequest{
		Email:     email,
		Password:  "secret123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	claims, err := f.auth.ValidateToken(resp.Token)
	require.NoError(t, err)
	return resp, claims
}

// attempt builds a result taken at base + minutes.
func attempt(userID uuid.UUID, examID string, score float64, passed bool, minutes int) *model.ExamResult {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return &model.ExamResult{
		ID:      uuid.New(),
		ExamID:  examID,
		UserID:  userID,
		Score:   score,
		Passed:  passed,
		Date:    base.Add(time.Duration(minutes) * time.Minute),
		Answers: model.Answers{},
	}
}

// failingCompletedList simulates a store whose completed-list write fails.
type failingCompletedList struct {
	repository.UserRepository
}

func (failingCompletedList) AddCompletedExam(context.Context, uuid.UUID, string) error {
	return errors.New("connection reset")
}
