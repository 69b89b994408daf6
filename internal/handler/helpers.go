package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/kidquest-backend/internal/middleware"
	"github.com/stemsi/kidquest-backend/internal/response"
	"github.com/stemsi/kidquest-backend/internal/service"
)

// currentPlayer returns the authenticated player ID or writes a 401.
func currentPlayer(c *gin.Context) (uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return uuid.Nil, false
	}
	return claims.PlayerID, true
}

// sessionParam parses the :session_id path parameter or writes a 400.
func sessionParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// errorStatus maps a service error to its HTTP status and error code.
func errorStatus(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return http.StatusNotFound, response.ErrGameNotFound
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, response.ErrSessionNotFound
	case errors.Is(err, service.ErrNotSessionOwner):
		return http.StatusForbidden, response.ErrNotSessionOwner
	case errors.Is(err, service.ErrWrongGameKind):
		return http.StatusConflict, response.ErrWrongGameKind
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// failService writes the mapped error response, logging unexpected errors.
func failService(c *gin.Context, log zerolog.Logger, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("path", c.FullPath()).
			Str("request_id", response.RequestID(c)).
			Msg("Request failed")
	}
	response.Fail(c, status, code)
}
