package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/auth"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

const writeTimeout = 10 * time.Second

// WSHandler upgrades authenticated requests to WebSocket sessions and bridges
// frames to hub commands and events. The token is verified before the upgrade;
// a bad token is rejected with 401 and no session or membership ever exists.
type WSHandler struct {
	hub  *core.Hub
	auth *auth.Service
	cfg  config.Config
	log  *zerolog.Logger
}

// NewWSHandler creates the WebSocket endpoint handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, cfg config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:  hub,
		auth: authService,
		cfg:  cfg,
		log:  logger,
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}
	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket handshake rejected")
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // origin checks are delegated to the deployment proxy
	})
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket accept failed")
		return
	}
	conn.SetReadLimit(h.cfg.MaxMessageBytes)

	client := core.NewClient(uuid.NewString(), claims.UserID, claims.Username)
	h.hub.RegisterClient(client)

	// Transport-level rejections (bad frames, rate limits) bypass the hub and
	// go straight to the write loop.
	rejects := make(chan *proto.Outbound, 4)

	ctx := r.Context()
	go h.writeLoop(ctx, conn, client, rejects)
	h.readLoop(ctx, conn, client, rejects)

	h.hub.UnregisterClient(client)
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, rejects chan<- *proto.Outbound) {
	limiter := newRateLimiter(h.cfg.MessageRateLimit)

	for {
		var in proto.Inbound
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			return
		}

		cmd, err := inboundToCommand(&in)
		if err != nil {
			h.log.Debug().Err(err).Str("session_id", client.SessionID).Msg("bad frame")
			reject(rejects, core.ErrCodeBadRequest, "malformed message")
			continue
		}

		if cmd.Kind == core.CommandSendRoomMessage && !limiter.allow() {
			reject(rejects, core.ErrCodeRateLimited, "too many messages")
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-client.Done():
			return
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, rejects <-chan *proto.Outbound) {
	for {
		var out *proto.Outbound
		select {
		case ev, ok := <-client.Events:
			if !ok {
				// Session torn down; unblock the read loop.
				conn.Close(websocket.StatusNormalClosure, "session closed")
				return
			}
			out = outboundFromEvent(ev)
		case out = <-rejects:
		}
		if out == nil {
			continue
		}

		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := wsjson.Write(writeCtx, conn, out)
		cancel()
		if err != nil {
			h.log.Debug().Err(err).Str("session_id", client.SessionID).Msg("write failed")
			return
		}
	}
}

func reject(rejects chan<- *proto.Outbound, code, msg string) {
	out := &proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: code, Msg: msg},
	}
	select {
	case rejects <- out:
	default:
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}
