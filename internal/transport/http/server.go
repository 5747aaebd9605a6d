package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collegechat-server/internal/config"
	"github.com/vovakirdan/collegechat-server/internal/core"
)

const rootBanner = "College Chat Backend is running"

// NewServer builds an HTTP server with health, presence and WebSocket routes.
// The WebSocket endpoint sits on a plain mux in front of gin because gin's
// writer refuses to hijack a connection once the upgrade headers are written.
func NewServer(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/", rootHandler)
	router.GET("/health", healthHandler)

	presence := NewPresenceHandlers(hub)
	api := router.Group("/api")
	api.GET("/users", presence.ListUsers)

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func rootHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, rootBanner)
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
