// Package handler exposes the matching and chat services over HTTP and
// websockets.
package handler

import (
	"errors"
	"net/http"
	"time"

	"devmatch/backend/internal/auth"
	"devmatch/backend/internal/chathub"
	"devmatch/backend/internal/localization"
	"devmatch/backend/internal/match"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	errMissingEngine    = errors.New("match engine dependency required")
	errMissingRelay     = errors.New("chat relay dependency required")
	errMissingHub       = errors.New("chat hub dependency required")
	errMissingTokens    = errors.New("token manager dependency required")
	errMissingLocalizer = errors.New("localizer dependency required")
)

// TokenValidator resolves a bearer token to the caller's user id.
type TokenValidator interface {
	Validate(token string) (string, error)
}

var _ TokenValidator = (*auth.TokenManager)(nil)

// Dependencies wires the handler.
type Dependencies struct {
	Engine         *match.Engine
	Relay          *chathub.Relay
	Hub            *chathub.ManagerService
	Tokens         TokenValidator
	Localizer      *localization.Localizer
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Handler holds the services behind the HTTP surface.
type Handler struct {
	Engine    *match.Engine
	Relay     *chathub.Relay
	Hub       *chathub.ManagerService
	Tokens    TokenValidator
	Localizer *localization.Localizer
	Logger    *zap.Logger

	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewHandler validates deps and builds a Handler.
func NewHandler(deps Dependencies) (*Handler, error) {
	switch {
	case deps.Engine == nil:
		return nil, errMissingEngine
	case deps.Relay == nil:
		return nil, errMissingRelay
	case deps.Hub == nil:
		return nil, errMissingHub
	case deps.Tokens == nil:
		return nil, errMissingTokens
	case deps.Localizer == nil:
		return nil, errMissingLocalizer
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handler{
		Engine:         deps.Engine,
		Relay:          deps.Relay,
		Hub:            deps.Hub,
		Tokens:         deps.Tokens,
		Localizer:      deps.Localizer,
		Logger:         logger,
		allowedOrigins: deps.AllowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h, nil
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(h.requestLogger)
	router.Use(cors.New(corsConfig(h.allowedOrigins)))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := router.Group("/")
	protected.Use(h.authorizeRequest)

	protected.POST("/requests/swipe/:intent/:recipientID", h.Swipe)
	protected.PUT("/requests/review/:decision/:requestID", h.Review)

	protected.GET("/network/feed", h.Feed)
	protected.GET("/network/requests/pending", h.PendingRequests)
	protected.GET("/network/matches", h.Matches)

	protected.GET("/chat/:targetUserID", h.ChatHistory)
	protected.GET("/ws", h.ServeWebSocket)

	return router
}

// corsConfig allows credentials only for an explicit origin list.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", "Accept-Language"},
		MaxAge:       12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.Logger.Info("http request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("latency", time.Since(start)))
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
