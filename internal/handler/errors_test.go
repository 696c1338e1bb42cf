package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stemsi/certifypro-backend/internal/catalog"
	"github.com/stemsi/certifypro-backend/internal/examsession"
	"github.com/stemsi/certifypro-backend/internal/repository"
	"github.com/stemsi/certifypro-backend/internal/response"
	"github.com/stemsi/certifypro-backend/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   response.ErrCode
	}{
		{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
		{service.ErrDuplicateRegistration, http.StatusConflict, response.ErrDuplicateRegistration},
		{service.ErrAccessDenied, http.StatusForbidden, response.ErrAccessDenied},
		{fmt.Errorf("issue: %w", service.ErrExamNotFound), http.StatusNotFound, response.ErrExamNotFound},
		{service.ErrSessionNotFound, http.StatusNotFound, response.ErrSessionNotFound},
		{examsession.ErrSessionNotActive, http.StatusConflict, response.ErrSessionNotActive},
		{examsession.ErrOptionOutOfRange, http.StatusBadRequest, response.ErrOptionOutOfRange},
		{
			fmt.Errorf("list: %w", &repository.CorruptStateError{Store: "exam_results", Key: "x", Err: errors.New("bad json")}),
			http.StatusInternalServerError, response.ErrCorruptState,
		},
		{&catalog.ConfigurationError{Problems: []string{"no questions"}}, http.StatusInternalServerError, response.ErrInternal},
		{errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}
	for _, tt := range tests {
		status, code := classify(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m 42s", formatDuration(42*time.Second))
	assert.Equal(t, "3h 5m 0s", formatDuration(3*time.Hour+5*time.Minute))
	assert.Equal(t, "2d 1h 0m 9s", formatDuration(49*time.Hour+9*time.Second))
}
