package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

const defaultRoom = "general"

// MessageHandlers serves the message history endpoint.
type MessageHandlers struct {
	history *core.History
	log     *zerolog.Logger
}

// NewMessageHandlers creates handlers for message history queries.
func NewMessageHandlers(history *core.History, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		history: history,
		log:     logger,
	}
}

type historyResponse struct {
	Room     string              `json:"room"`
	Messages []proto.MessageData `json:"messages"`
}

// ListMessages handles GET /api/messages?room=&limit=&before=.
// Messages are returned oldest first; before (RFC 3339) pages backwards,
// returning only messages created strictly earlier.
func (h *MessageHandlers) ListMessages(c *gin.Context) {
	room := c.DefaultQuery("room", defaultRoom)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before timestamp"})
			return
		}
		before = &parsed
	}

	messages, err := h.history.Load(c.Request.Context(), room, limit, before)
	if err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("failed to load messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	payload := make([]proto.MessageData, 0, len(messages))
	for _, m := range messages {
		payload = append(payload, proto.MessageData{
			ID:        m.ID,
			Room:      m.Room,
			Sender:    m.Sender,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, historyResponse{Room: room, Messages: payload})
}
