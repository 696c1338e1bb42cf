package service

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/stemsi/certifypro-backend/internal/catalog"
	"github.com/stemsi/certifypro-backend/internal/model"
)

// ErrExamNotFound is returned for ids outside the catalog.
var ErrExamNotFound = catalog.ErrExamNotFound

// ExamService exposes the exam catalog to clients.
type ExamService struct {
	catalog *catalog.Catalog
	log     zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(cat *catalog.Catalog, log zerolog.Logger) *ExamService {
	return &ExamService{
		catalog: cat,
		log:     log.With().Str("component", "exam_service").Logger(),
	}
}

// List returns the exam summaries in catalog order.
func (s *ExamService) List() []model.ExamSummary {
	return s.catalog.List()
}

// GetPayload returns the student-facing exam detail without correct answers.
func (s *ExamService) GetPayload(id string) (*model.ExamPayload, error) {
	exam, err := s.Exam(id)
	if err != nil {
		return nil, err
	}
	p := exam.Payload()
	return &p, nil
}

// Exam returns the full exam definition.
func (s *ExamService) Exam(id string) (*model.Exam, error) {
	exam, err := s.catalog.Get(id)
	if err != nil {
		if errors.Is(err, catalog.ErrExamNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}
	return exam, nil
}
