package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/certify-backend/internal/response"
	"github.com/stemsi/certify-backend/internal/service"
)

// CheckActiveSession rejects tokens replaced by a newer login, tokens of
// blocked accounts and tokens of deleted accounts. On success the account
// is stored in the context.
func CheckActiveSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		user, err := authService.ValidateSession(c.Request.Context(), claims)
		if err != nil {
			if errors.Is(err, service.ErrUserBlocked) {
				response.AbortFail(c, http.StatusForbidden, response.ErrAccountBlocked)
				return
			}
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Set(ContextKeyUser, user)
		c.Next()
	}
}
