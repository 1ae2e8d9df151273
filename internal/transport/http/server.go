package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/syncwatch-server/internal/auth"
	"github.com/vovakirdan/syncwatch-server/internal/config"
)

// NewServer builds an HTTP server with the protocol endpoint, health check,
// static files and the admin REST API.
func NewServer(hub Hub, authService *auth.Service, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, authService, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter builds the gin engine behind NewServer.
func NewRouter(hub Hub, authService *auth.Service, cfg config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	limiter := NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillInterval)
	ws := NewWSHandler(hub, limiter, cfg.TrustForwardedFor, cfg.MaxMessageBytes, logger)
	api := NewAPIHandlers(hub, logger)

	router.GET("/health", api.Health)
	router.GET("/ws", gin.WrapH(ws))

	admin := router.Group("/api/admin")
	admin.Use(AdminAuthMiddleware(authService, hub, logger))
	admin.GET("/rooms", api.Rooms)

	if cfg.StaticDir != "" {
		router.Static("/static", cfg.StaticDir)
		router.StaticFile("/", cfg.StaticDir+"/index.html")
	}

	return router
}
