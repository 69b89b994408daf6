package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/kidquest-backend/internal/config"
	"github.com/stemsi/kidquest-backend/internal/handler"
	"github.com/stemsi/kidquest-backend/internal/metrics"
	"github.com/stemsi/kidquest-backend/internal/middleware"
	"github.com/stemsi/kidquest-backend/internal/response"
	"github.com/stemsi/kidquest-backend/internal/service"
)

// catalogMaxAge is how long clients may cache catalog reads, in seconds.
const catalogMaxAge = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Player  *handler.PlayerHandler
	Game    *handler.GameHandler
	Session *handler.SessionHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background work owned by middlewares.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	m *metrics.Metrics,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Prometheus negotiates its own encoding.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality: middleware.DefaultBrotliConfig.Quality,
		Skipper: middleware.SkipPaths("/metrics"),
	}))

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// ─── 1. Public Group (Catalog) ─────────────────────────────────────
	games := router.Group("/api/v1/games")
	games.Use(middleware.CacheControl(catalogMaxAge))
	{
		games.GET("", handlers.Game.ListGames)
		games.GET("/:game_id", handlers.Game.GetGame)
		games.GET("/:game_id/prompts", handlers.Game.GetPrompts)
		games.GET("/:game_id/leaderboard", handlers.Game.GetLeaderboard)
	}

	// Rate limiter for guest creation, per IP.
	guestLimiter := middleware.NewRateLimiter(ctx, cfg.GuestRatePerMinute, time.Minute)

	// ─── 2. Guest Group (Public, Rate Limited) ─────────────────────────
	router.POST("/api/v1/players/guest", guestLimiter.Middleware(), handlers.Player.CreateGuest)

	// ─── 3. Player Group (JWT + Registered Guest) ──────────────────────
	playerAuth := []gin.HandlerFunc{
		middleware.RequirePlayerJWT(authService),
		middleware.RequireRegisteredPlayer(authService),
		middleware.NoStore(),
	}

	players := router.Group("/api/v1/players/me", playerAuth...)
	{
		players.GET("", handlers.Player.GetProfile)
		players.GET("/wallet", handlers.Player.GetWallet)
		players.GET("/results", handlers.Player.ListResults)
	}

	router.POST("/api/v1/games/:game_id/sessions", append(playerAuth, handlers.Game.StartSession)...)

	sessions := router.Group("/api/v1/sessions/:session_id", playerAuth...)
	{
		sessions.GET("", handlers.Session.GetState)
		sessions.DELETE("", handlers.Session.End)
		sessions.POST("/answer", handlers.Session.Answer)
		sessions.POST("/journal", handlers.Session.Journal)
		sessions.POST("/toggle", handlers.Session.Toggle)
		sessions.POST("/submit", handlers.Session.Submit)
		sessions.POST("/flip", handlers.Session.Flip)
		sessions.POST("/next", handlers.Session.Next)
	}

	// ─── 4. WebSocket Group (Player WS Auth) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequirePlayerWSAuth(authService),
		middleware.RequireRegisteredPlayer(authService),
	)
	{
		ws.GET("/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	return router
}
