package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/certifypro-backend/internal/response"
	"github.com/stemsi/certifypro-backend/internal/service"
)

// ExamHandler serves the public exam catalog.
type ExamHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService: examService,
		log:         log.With().Str("component", "exam_handler").Logger(),
	}
}

// ListExams godoc
// GET /api/v1/exams
func (h *ExamHandler) ListExams(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"exams": h.examService.List()})
}

// GetExam godoc
// GET /api/v1/exams/:exam_id
// Returns the exam with its questions but without correct answers.
func (h *ExamHandler) GetExam(c *gin.Context) {
	payload, err := h.examService.GetPayload(c.Param("exam_id"))
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, payload)
}
