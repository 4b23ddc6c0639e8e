package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/paperforge/paperforge-backend/internal/config"
	"github.com/paperforge/paperforge-backend/internal/handler"
	"github.com/paperforge/paperforge-backend/internal/middleware"
	"github.com/paperforge/paperforge-backend/internal/response"
	"github.com/paperforge/paperforge-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Paper        *handler.PaperHandler
	PaperBlock   *handler.PaperBlockHandler
	QuestionItem *handler.QuestionItemHandler
	Media        *handler.MediaHandler
	EditSession  *handler.EditSessionHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve uploaded media files statically with aggressive caching (1 year).
	// Stable image references never change content, so long cache is safe.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", "./uploads")
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireAuthorJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireAuthorJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Author API (JWT) ───────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireAuthorJWT(authService))
	{
		// Papers
		api.GET("/papers", handlers.Paper.List)
		api.POST("/papers", handlers.Paper.Create)
		api.GET("/papers/:paper_id", handlers.Paper.Get)
		api.GET("/papers/:paper_id/edit", handlers.Paper.GetForEdit)
		api.PUT("/papers/:paper_id", handlers.Paper.Update)
		api.DELETE("/papers/:paper_id", handlers.Paper.Delete)

		// Question blocks
		api.GET("/papers/:paper_id/blocks", handlers.PaperBlock.List)
		api.POST("/papers/:paper_id/blocks", handlers.PaperBlock.Create)
		api.PUT("/papers/:paper_id/blocks/order", handlers.PaperBlock.Reorder)
		api.PATCH("/papers/:paper_id/blocks/:block_id", handlers.PaperBlock.Update)
		api.DELETE("/papers/:paper_id/blocks/:block_id", handlers.PaperBlock.Delete)

		// Paper images
		api.POST("/papers/:paper_id/images", handlers.Media.UploadPaperImage)

		// Question library
		api.GET("/question-items", handlers.QuestionItem.List)
		api.POST("/question-items", handlers.QuestionItem.Create)
		api.GET("/question-items/:item_id", handlers.QuestionItem.Get)
		api.PUT("/question-items/:item_id", handlers.QuestionItem.Update)
		api.DELETE("/question-items/:item_id", handlers.QuestionItem.Delete)
	}

	// ─── 3. WebSocket Group (Author WS Auth) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAuthorWSAuth(authService))
	{
		ws.GET("/papers/:paper_id/edit", handlers.EditSession.Stream)
	}

	return router
}
