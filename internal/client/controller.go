package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/proto"
)

var (
	// ErrNotAuthenticated is returned when connecting without a token.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAuthFailed is returned when the server rejects the credentials.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrNotConnected is returned for live operations without a connection.
	ErrNotConnected = errors.New("not connected")
	// ErrNotInRoom is returned when sending before joining a room.
	ErrNotInRoom = errors.New("not in a room")
	// ErrClosed is returned after Close; a closed controller never reconnects.
	ErrClosed = errors.New("controller closed")
)

// State is the controller's connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateReconnecting
	StateClosed
)

const (
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second
	writeTimeout          = 10 * time.Second
)

// Options tune the controller. Zero values fall back to defaults.
type Options struct {
	HTTPClient     *http.Client
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// OnMessage fires for every broadcast folded into the view, own echoes
	// included. Called from the read loop; keep it fast.
	OnMessage func(Entry)
	// OnHistory fires when a join reseeds the view.
	OnHistory func(room string, entries []Entry)
	// OnPresence fires on user-joined and user-left notifications.
	OnPresence func(room, user string, joined bool)
}

// Controller drives one chat session end to end: REST authentication, the
// WebSocket connection with automatic reconnect, room membership, and the
// optimistic message view.
type Controller struct {
	baseURL        string
	httpc          *http.Client
	log            *zerolog.Logger
	initialBackoff time.Duration
	maxBackoff     time.Duration

	onMessage  func(Entry)
	onHistory  func(room string, entries []Entry)
	onPresence func(room, user string, joined bool)

	view *View

	mu       sync.Mutex
	state    State
	token    string
	username string
	room     string
	conn     *websocket.Conn
	cancel   context.CancelFunc

	wmu sync.Mutex // serializes frame writes
}

// New creates a controller for the server at baseURL (http or https).
func New(baseURL string, logger *zerolog.Logger, opts Options) *Controller {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	initial := opts.InitialBackoff
	if initial <= 0 {
		initial = defaultInitialBackoff
	}
	maximum := opts.MaxBackoff
	if maximum <= 0 {
		maximum = defaultMaxBackoff
	}
	return &Controller{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpc:          httpc,
		log:            logger,
		initialBackoff: initial,
		maxBackoff:     maximum,
		onMessage:      opts.OnMessage,
		onHistory:      opts.OnHistory,
		onPresence:     opts.OnPresence,
		view:           NewView(),
	}
}

// View exposes the message view for rendering.
func (c *Controller) View() *View {
	return c.view
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Room reports the active room, empty when none is joined.
func (c *Controller) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// Register creates an account and stores the returned token.
func (c *Controller) Register(ctx context.Context, username, password string) error {
	return c.authenticate(ctx, "/api/register", http.StatusCreated, username, password)
}

// Login exchanges credentials for a token.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	return c.authenticate(ctx, "/api/login", http.StatusOK, username, password)
}

func (c *Controller) authenticate(ctx context.Context, path string, wantStatus int, username, password string) error {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusConflict {
			return ErrAuthFailed
		}
		return fmt.Errorf("auth request: unexpected status %d", resp.StatusCode)
	}

	var tr struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}

	c.mu.Lock()
	c.token = tr.Token
	c.username = username
	c.mu.Unlock()
	return nil
}

// Connect dials the live channel and starts the read loop. The connection is
// kept alive across failures with exponential backoff until ctx is cancelled
// or Close is called.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return ErrClosed
	}
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return ErrNotAuthenticated
	}

	runCtx, cancel := context.WithCancel(ctx)
	conn, _, err := websocket.Dial(runCtx, c.wsURL(token), nil)
	if err != nil {
		cancel()
		return fmt.Errorf("dial: %w", err)
	}

	c.mu.Lock()
	c.state = StateConnected
	c.conn = conn
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(runCtx, conn)
	return nil
}

// Join switches the active room. The server reseeds history on join, which
// resets the view.
func (c *Controller) Join(ctx context.Context, room string) error {
	c.mu.Lock()
	conn := c.conn
	if conn == nil || c.state != StateConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.room = room
	c.mu.Unlock()

	return c.writeFrame(ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: room})
}

// Leave exits the active room and clears the view.
func (c *Controller) Leave(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	room := c.room
	if conn == nil || c.state != StateConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.room = ""
	c.mu.Unlock()

	if room == "" {
		return nil
	}
	c.view.Reset("", nil)
	return c.writeFrame(ctx, conn, proto.InboundTypeLeaveRoom, proto.RoomData{Room: room})
}

// Send submits a message to the active room. The view gains a pending entry
// immediately; the entry is confirmed in place when the broadcast returns with
// the same correlation id. Returns the correlation id.
func (c *Controller) Send(ctx context.Context, content string) (string, error) {
	c.mu.Lock()
	conn := c.conn
	room := c.room
	username := c.username
	if conn == nil || c.state != StateConnected {
		c.mu.Unlock()
		return "", ErrNotConnected
	}
	if room == "" {
		c.mu.Unlock()
		return "", ErrNotInRoom
	}
	c.mu.Unlock()

	clientID := uuid.NewString()
	c.view.AppendPending(clientID, username, content)

	err := c.writeFrame(ctx, conn, proto.InboundTypeSendMessage, proto.SendMessageData{
		Room:     room,
		Content:  content,
		ClientID: clientID,
	})
	if err != nil {
		return "", err
	}
	return clientID, nil
}

// Close shuts the controller down for good. A voluntary close never retries.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosed
	conn := c.conn
	cancel := c.cancel
	c.conn = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "client closed")
	}
	return nil
}

func (c *Controller) run(ctx context.Context, conn *websocket.Conn) {
	for {
		err := c.readLoop(ctx, conn)
		if c.State() == StateClosed || ctx.Err() != nil {
			return
		}
		c.log.Warn().Err(err).Msg("connection lost, reconnecting")

		c.mu.Lock()
		c.state = StateReconnecting
		c.conn = nil
		c.mu.Unlock()

		next, err := c.redial(ctx)
		if err != nil {
			c.mu.Lock()
			if c.state == StateReconnecting {
				c.state = StateDisconnected
			}
			c.mu.Unlock()
			return
		}

		c.mu.Lock()
		if c.state == StateClosed {
			c.mu.Unlock()
			next.Close(websocket.StatusNormalClosure, "client closed")
			return
		}
		c.state = StateConnected
		c.conn = next
		room := c.room
		c.mu.Unlock()
		conn = next

		// Re-join the active room; the server reseeds history, which replaces
		// the view and drops any stale pending entries.
		if room != "" {
			if err := c.writeFrame(ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: room}); err != nil {
				c.log.Warn().Err(err).Msg("rejoin failed")
			}
		}
	}
}

func (c *Controller) redial(ctx context.Context) (*websocket.Conn, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = c.maxBackoff
	b.MaxElapsedTime = 0

	var conn *websocket.Conn
	op := func() error {
		var err error
		conn, _, err = websocket.Dial(ctx, c.wsURL(token), nil)
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Controller) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return err
		}

		switch env.Type {
		case proto.OutboundTypeHistory:
			var page proto.HistoryData
			if err := json.Unmarshal(env.Data, &page); err != nil {
				c.log.Warn().Err(err).Msg("bad history frame")
				continue
			}
			c.view.Reset(page.Room, page.Messages)
			if c.onHistory != nil {
				c.onHistory(page.Room, c.view.Entries())
			}

		case proto.OutboundTypeNewMessage:
			var msg proto.MessageData
			if err := json.Unmarshal(env.Data, &msg); err != nil {
				c.log.Warn().Err(err).Msg("bad message frame")
				continue
			}
			c.view.Apply(msg)
			if c.onMessage != nil {
				c.onMessage(Entry{
					ClientID:  msg.ClientID,
					ID:        msg.ID,
					Room:      msg.Room,
					Sender:    msg.Sender,
					Content:   msg.Content,
					CreatedAt: msg.CreatedAt,
					Status:    StatusConfirmed,
				})
			}

		case proto.OutboundTypeUserJoined, proto.OutboundTypeUserLeft:
			var presence proto.PresenceData
			if err := json.Unmarshal(env.Data, &presence); err != nil {
				c.log.Warn().Err(err).Msg("bad presence frame")
				continue
			}
			if c.onPresence != nil {
				c.onPresence(presence.Room, presence.User, env.Type == proto.OutboundTypeUserJoined)
			}

		case proto.OutboundTypeError:
			if env.Error != nil {
				c.log.Warn().Str("code", env.Error.Code).Str("msg", env.Error.Msg).Msg("server error")
			}

		default:
			c.log.Debug().Str("type", env.Type).Msg("unknown frame")
		}
	}
}

func (c *Controller) writeFrame(ctx context.Context, conn *websocket.Conn, msgType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msgType, err)
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(writeCtx, conn, proto.Inbound{Type: msgType, Data: raw}); err != nil {
		return fmt.Errorf("write %s: %w", msgType, err)
	}
	return nil
}

func (c *Controller) wsURL(token string) string {
	url := c.baseURL
	switch {
	case strings.HasPrefix(url, "https"):
		url = "wss" + strings.TrimPrefix(url, "https")
	case strings.HasPrefix(url, "http"):
		url = "ws" + strings.TrimPrefix(url, "http")
	}
	return url + "/ws?token=" + token
}
