package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/kidquest-backend/internal/middleware"
	"github.com/stemsi/kidquest-backend/internal/model"
	"github.com/stemsi/kidquest-backend/internal/response"
	"github.com/stemsi/kidquest-backend/internal/service"
	"github.com/stemsi/kidquest-backend/internal/validator"
)

// PlayerHandler handles guest players and their progress.
type PlayerHandler struct {
	authService   *service.AuthService
	resultService *service.ResultService
	log           zerolog.Logger
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(authService *service.AuthService, resultService *service.ResultService, log zerolog.Logger) *PlayerHandler {
	return &PlayerHandler{
		authService:   authService,
		resultService: resultService,
		log:           log.With().Str("component", "player_handler").Logger(),
	}
}

// CreateGuest godoc
// POST /api/v1/players/guest
// Registers a guest nickname and returns a JWT for it.
func (h *PlayerHandler) CreateGuest(c *gin.Context) {
	var req model.GuestLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	tok, err := h.authService.CreateGuest(c.Request.Context(), req.Nickname)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create guest")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.log.Info().Str("player_id", tok.PlayerID.String()).Msg("Guest player created")
	response.Success(c, http.StatusCreated, tok)
}

// GetProfile godoc
// GET /api/v1/players/me
func (h *PlayerHandler) GetProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"player": gin.H{
			"id":       claims.PlayerID,
			"nickname": claims.Nickname,
		},
	})
}

// GetWallet godoc
// GET /api/v1/players/me/wallet
func (h *PlayerHandler) GetWallet(c *gin.Context) {
	playerID, ok := currentPlayer(c)
	if !ok {
		return
	}

	wallet, err := h.resultService.Wallet(c.Request.Context(), playerID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, wallet)
}

// ListResults godoc
// GET /api/v1/players/me/results?page=1&per_page=10
// Returns the player's completed sessions, newest first.
func (h *PlayerHandler) ListResults(c *gin.Context) {
	playerID, ok := currentPlayer(c)
	if !ok {
		return
	}

	var q model.PageQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	q = q.Normalize()

	results, total, err := h.resultService.History(c.Request.Context(), playerID, q.Page, q.PerPage)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	if results == nil {
		results = []model.PlayResult{}
	}

	response.SuccessWithPagination(c, http.StatusOK, results, response.NewPagination(q.Page, q.PerPage, total))
}
