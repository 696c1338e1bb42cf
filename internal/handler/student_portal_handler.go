package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/certifypro-backend/internal/middleware"
	"github.com/stemsi/certifypro-backend/internal/model"
	"github.com/stemsi/certifypro-backend/internal/response"
	"github.com/stemsi/certifypro-backend/internal/service"
	"github.com/stemsi/certifypro-backend/internal/validator"
)

// StudentPortalHandler handles student-facing endpoints (exam taking,
// results, certificates).
type StudentPortalHandler struct {
	sessionService     *service.ExamSessionService
	resultService      *service.ResultService
	certificateService *service.CertificateService
	log                zerolog.Logger
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	sessionService *service.ExamSessionService,
	resultService *service.ResultService,
	certificateService *service.CertificateService,
	log zerolog.Logger,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		sessionService:     sessionService,
		resultService:      resultService,
		certificateService: certificateService,
		log:                log.With().Str("component", "student_portal_handler").Logger(),
	}
}

// OpenSession godoc
// POST /api/v1/student/exams/:exam_id/session
// Opens a session in NOT_STARTED state, or returns the running one.
func (h *StudentPortalHandler) OpenSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	state, err := h.sessionService.Open(claims.UserID, c.Param("exam_id"))
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// GetSession godoc
// GET /api/v1/student/exams/:exam_id/session
// Returns the current state of the session. Covers page reloads, so the
// client gets its answers and remaining time back.
func (h *StudentPortalHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	state, err := h.sessionService.State(claims.UserID, c.Param("exam_id"))
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// StartSession godoc
// POST /api/v1/student/exams/:exam_id/session/start
func (h *StudentPortalHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	state, err := h.sessionService.Start(claims.UserID, c.Param("exam_id"))
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// Answer godoc
// PUT /api/v1/student/exams/:exam_id/session/answers
// Records or replaces the selected option for one question.
func (h *StudentPortalHandler) Answer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.Answer(claims.UserID, c.Param("exam_id"), req.QuestionID, *req.OptionIndex)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// Navigate godoc
// POST /api/v1/student/exams/:exam_id/session/navigate
// Moves to a question index. Indexes outside the exam leave the cursor as is.
func (h *StudentPortalHandler) Navigate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.Navigate(claims.UserID, c.Param("exam_id"), *req.Index)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// Submit godoc
// POST /api/v1/student/exams/:exam_id/session/submit
// Grades the session and records the result.
func (h *StudentPortalHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	resp, err := h.sessionService.Submit(c.Request.Context(), claims.UserID, c.Param("exam_id"))
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// GetSubmittedResult godoc
// GET /api/v1/student/exams/:exam_id/session/result
// Returns the graded result of a submitted session, including one submitted
// by the timer. Answers SESSION_NOT_ACTIVE while the session is still open.
func (h *StudentPortalHandler) GetSubmittedResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	resp, err := h.sessionService.SubmittedResult(claims.UserID, c.Param("exam_id"))
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// AbandonSession godoc
// DELETE /api/v1/student/exams/:exam_id/session
// Discards the session. No result is recorded.
func (h *StudentPortalHandler) AbandonSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.sessionService.Abandon(claims.UserID, c.Param("exam_id")); err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ListResults godoc
// GET /api/v1/student/results
func (h *StudentPortalHandler) ListResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.resultService.ListResults(c.Request.Context(), claims.UserID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// GetExamResult godoc
// GET /api/v1/student/exams/:exam_id/result
// Returns the most recent attempt at the exam.
func (h *StudentPortalHandler) GetExamResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	result, err := h.resultService.GetExamResult(c.Request.Context(), claims.UserID, c.Param("exam_id"))
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetCertificate godoc
// GET /api/v1/student/exams/:exam_id/certificate
// Returns certificate data if the user has passed the exam.
func (h *StudentPortalHandler) GetCertificate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	cert, err := h.certificateService.Issue(c.Request.Context(), claims.UserID, c.Param("exam_id"))
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, cert)
}

// DownloadCertificate godoc
// GET /api/v1/student/exams/:exam_id/certificate.pdf
func (h *StudentPortalHandler) DownloadCertificate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	cert, err := h.certificateService.Issue(c.Request.Context(), claims.UserID, c.Param("exam_id"))
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	// Render fully before writing so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.certificateService.RenderPDF(cert, &buf); err != nil {
		failFromError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="certificate-%s.pdf"`, cert.Number))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
