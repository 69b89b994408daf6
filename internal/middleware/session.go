package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/kidquest-backend/internal/response"
	"github.com/stemsi/kidquest-backend/internal/service"
)

// RequireRegisteredPlayer rejects tokens whose guest registration has expired
// or was never stored. Must run after RequirePlayerJWT or RequirePlayerWSAuth.
func RequireRegisteredPlayer(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := authService.ValidatePlayer(c.Request.Context(), claims.PlayerID); err != nil {
			if errors.Is(err, service.ErrUnknownPlayer) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
				return
			}
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		c.Next()
	}
}
