package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/certifypro-backend/internal/catalog"
	"github.com/stemsi/certifypro-backend/internal/examsession"
	"github.com/stemsi/certifypro-backend/internal/repository"
	"github.com/stemsi/certifypro-backend/internal/response"
	"github.com/stemsi/certifypro-backend/internal/service"
)

// classify maps a service error to its HTTP status and API code.
func classify(err error) (int, response.ErrCode) {
	var corrupt *repository.CorruptStateError
	var cfgErr *catalog.ConfigurationError

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.ErrInvalidCredentials
	case errors.Is(err, service.ErrDuplicateRegistration):
		return http.StatusConflict, response.ErrDuplicateRegistration
	case errors.Is(err, service.ErrSessionInvalidated):
		return http.StatusUnauthorized, response.ErrSessionInvalidated
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, response.ErrUserNotFound
	case errors.Is(err, service.ErrExamNotFound):
		return http.StatusNotFound, response.ErrExamNotFound
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden, response.ErrAccessDenied
	case errors.Is(err, service.ErrResultNotFound):
		return http.StatusNotFound, response.ErrResultNotFound
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, response.ErrSessionNotFound
	case errors.Is(err, examsession.ErrSessionNotActive):
		return http.StatusConflict, response.ErrSessionNotActive
	case errors.Is(err, examsession.ErrUnknownQuestion):
		return http.StatusBadRequest, response.ErrUnknownQuestion
	case errors.Is(err, examsession.ErrOptionOutOfRange):
		return http.StatusBadRequest, response.ErrOptionOutOfRange
	case errors.As(err, &corrupt):
		return http.StatusInternalServerError, response.ErrCorruptState
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, response.ErrInternal
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// failFromError writes the error response and logs server-side failures.
func failFromError(c *gin.Context, log zerolog.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("path", c.FullPath()).
			Str("code", string(code)).
			Msg("Request failed")
	}
	response.Fail(c, status, code)
}
