package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/auth"
)

// sessionCookie carries the identity token for browser clients. The WebSocket
// handshake still expects a bearer token, so /api/auth/socket-token exchanges
// the cookie for one.
const sessionCookie = "token"

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// APIHandlers serves the auth endpoints.
type APIHandlers struct {
	auth     *auth.Service
	tokenTTL time.Duration
	log      *zerolog.Logger
}

// NewAPIHandlers creates handlers for registration and login.
func NewAPIHandlers(authService *auth.Service, tokenTTL time.Duration, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		auth:     authService,
		tokenTTL: tokenTTL,
		log:      logger,
	}
}

// Register handles POST /api/register.
func (h *APIHandlers) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username and password are required"})
		return
	}

	token, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already exists"})
		case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Msg("register failed")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusCreated, tokenResponse{Token: token})
}

// Login handles POST /api/login.
func (h *APIHandlers) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username and password are required"})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// SocketToken handles GET /api/auth/socket-token. It reads the HttpOnly
// session cookie and hands the token back so a browser script can present it
// on the WebSocket handshake.
func (h *APIHandlers) SocketToken(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "not authenticated"})
		return
	}
	if _, err := h.auth.ValidateToken(token); err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (h *APIHandlers) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(sessionCookie, token, int(h.tokenTTL.Seconds()), "/", "", false, true)
}
