package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/certifypro-backend/internal/repository"
	"github.com/stemsi/certifypro-backend/internal/response"
	"github.com/stemsi/certifypro-backend/internal/service"
)

// CheckCurrentSession rejects tokens whose JTI no longer matches the user's
// session marker, which happens after a newer login or a logout.
func CheckCurrentSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := authService.ValidateSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			var corrupt *repository.CorruptStateError
			switch {
			case errors.Is(err, service.ErrSessionInvalidated):
				response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			case errors.As(err, &corrupt):
				response.AbortFail(c, http.StatusInternalServerError, response.ErrCorruptState)
			default:
				response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			}
			return
		}

		c.Next()
	}
}
