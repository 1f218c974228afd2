package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/auth"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
)

// NewServer builds the HTTP server: REST endpoints for auth and history plus
// the WebSocket upgrade route for the live channel.
func NewServer(hub *core.Hub, authService *auth.Service, history *core.History, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	api := NewAPIHandlers(authService, cfg.TokenTTL, logger)
	router.POST("/api/register", api.Register)
	router.POST("/api/login", api.Login)
	router.GET("/api/auth/socket-token", api.SocketToken)

	messages := NewMessageHandlers(history, logger)
	authed := router.Group("/api", AuthMiddleware(authService, logger))
	authed.GET("/messages", messages.ListMessages)

	// The upgrade is served off a plain mux: gin's response writer cannot be
	// hijacked, which websocket.Accept requires.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, authService, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
