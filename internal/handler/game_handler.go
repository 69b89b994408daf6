package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/kidquest-backend/internal/model"
	"github.com/stemsi/kidquest-backend/internal/response"
	"github.com/stemsi/kidquest-backend/internal/service"
	"github.com/stemsi/kidquest-backend/internal/validator"
)

const defaultLeaderboardLimit = 10

// GameHandler serves the game catalog and starts play sessions.
type GameHandler struct {
	catalogService *service.CatalogService
	playService    *service.PlayService
	resultService  *service.ResultService
	log            zerolog.Logger
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(
	catalogService *service.CatalogService,
	playService *service.PlayService,
	resultService *service.ResultService,
	log zerolog.Logger,
) *GameHandler {
	return &GameHandler{
		catalogService: catalogService,
		playService:    playService,
		resultService:  resultService,
		log:            log.With().Str("component", "game_handler").Logger(),
	}
}

// ListGames godoc
// GET /api/v1/games
func (h *GameHandler) ListGames(c *gin.Context) {
	response.Success(c, http.StatusOK, h.catalogService.List())
}

// GetGame godoc
// GET /api/v1/games/:game_id
func (h *GameHandler) GetGame(c *gin.Context) {
	g, err := h.catalogService.Get(c.Param("game_id"))
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, g.Summary())
}

// GetPrompts godoc
// GET /api/v1/games/:game_id/prompts?count=3
// Suggests journal prompts drawn from the game's pool.
func (h *GameHandler) GetPrompts(c *gin.Context) {
	var q model.PromptQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if q.Count == 0 {
		q.Count = service.DefaultPromptCount
	}

	prompts, err := h.catalogService.Prompts(c.Param("game_id"), q.Count)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"prompts": prompts})
}

// StartSession godoc
// POST /api/v1/games/:game_id/sessions
// Body is optional: {"coins_per_level": 10, "total_coins": 120, "total_xp": 300}
func (h *GameHandler) StartSession(c *gin.Context) {
	playerID, ok := currentPlayer(c)
	if !ok {
		return
	}

	var in model.RewardConfigInput
	if fields := validator.BindOptional(c, &in); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.playService.Start(c.Request.Context(), playerID, c.Param("game_id"), in)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, session)
}

// GetLeaderboard godoc
// GET /api/v1/games/:game_id/leaderboard?limit=10
func (h *GameHandler) GetLeaderboard(c *gin.Context) {
	var q model.LeaderboardQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultLeaderboardLimit
	}

	rows, err := h.resultService.Leaderboard(c.Request.Context(), c.Param("game_id"), q.Limit)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	if rows == nil {
		rows = []model.BestScore{}
	}
	response.Success(c, http.StatusOK, rows)
}
