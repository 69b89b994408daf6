package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/kidquest-backend/internal/model"
	"github.com/stemsi/kidquest-backend/internal/response"
	"github.com/stemsi/kidquest-backend/internal/service"
	"github.com/stemsi/kidquest-backend/internal/validator"
)

// SessionHandler drives a live play session over plain HTTP.
// Rejected input is not an error: the response carries accepted=false.
type SessionHandler struct {
	playService *service.PlayService
	log         zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(playService *service.PlayService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		playService: playService,
		log:         log.With().Str("component", "session_handler").Logger(),
	}
}

type sessionAction func(ctx context.Context, sessionID, playerID uuid.UUID) (service.ActionResult, error)

// GetState godoc
// GET /api/v1/sessions/:session_id
func (h *SessionHandler) GetState(c *gin.Context) {
	playerID, sessionID, ok := sessionIDs(c)
	if !ok {
		return
	}

	session, err := h.playService.State(c.Request.Context(), sessionID, playerID)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, session)
}

// Answer godoc
// POST /api/v1/sessions/:session_id/answer
func (h *SessionHandler) Answer(c *gin.Context) {
	var req model.AnswerRequest
	if !bindBody(c, &req) {
		return
	}
	h.run(c, func(ctx context.Context, sid, pid uuid.UUID) (service.ActionResult, error) {
		return h.playService.Answer(ctx, sid, pid, req.OptionID)
	})
}

// Journal godoc
// POST /api/v1/sessions/:session_id/journal
func (h *SessionHandler) Journal(c *gin.Context) {
	var req model.JournalRequest
	if !bindBody(c, &req) {
		return
	}
	h.run(c, func(ctx context.Context, sid, pid uuid.UUID) (service.ActionResult, error) {
		return h.playService.Journal(ctx, sid, pid, req.Text)
	})
}

// Toggle godoc
// POST /api/v1/sessions/:session_id/toggle
func (h *SessionHandler) Toggle(c *gin.Context) {
	var req model.AnswerRequest
	if !bindBody(c, &req) {
		return
	}
	h.run(c, func(ctx context.Context, sid, pid uuid.UUID) (service.ActionResult, error) {
		return h.playService.Toggle(ctx, sid, pid, req.OptionID)
	})
}

// Submit godoc
// POST /api/v1/sessions/:session_id/submit
func (h *SessionHandler) Submit(c *gin.Context) {
	h.run(c, h.playService.SubmitSelection)
}

// Flip godoc
// POST /api/v1/sessions/:session_id/flip
func (h *SessionHandler) Flip(c *gin.Context) {
	var req model.FlipRequest
	if !bindBody(c, &req) {
		return
	}
	h.run(c, func(ctx context.Context, sid, pid uuid.UUID) (service.ActionResult, error) {
		return h.playService.Flip(ctx, sid, pid, *req.Index)
	})
}

// Next godoc
// POST /api/v1/sessions/:session_id/next
func (h *SessionHandler) Next(c *gin.Context) {
	h.run(c, h.playService.Next)
}

// End godoc
// DELETE /api/v1/sessions/:session_id
func (h *SessionHandler) End(c *gin.Context) {
	playerID, sessionID, ok := sessionIDs(c)
	if !ok {
		return
	}

	if err := h.playService.End(c.Request.Context(), sessionID, playerID); err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

func (h *SessionHandler) run(c *gin.Context, action sessionAction) {
	playerID, sessionID, ok := sessionIDs(c)
	if !ok {
		return
	}

	result, err := action(c.Request.Context(), sessionID, playerID)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

func sessionIDs(c *gin.Context) (playerID, sessionID uuid.UUID, ok bool) {
	if playerID, ok = currentPlayer(c); !ok {
		return
	}
	sessionID, ok = sessionParam(c)
	return
}

func bindBody(c *gin.Context, dst any) bool {
	if fields := validator.Bind(c, dst); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return false
	}
	return true
}
