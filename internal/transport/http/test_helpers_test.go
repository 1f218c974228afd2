package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/auth"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/proto"
	"github.com/vovakirdan/roomchat-server/internal/store/sqlite"
)

type testEnv struct {
	ts      *httptest.Server
	st      *sqlite.SQLiteStore
	hub     *core.Hub
	auth    *auth.Service
	history *core.History
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.JWTSecret = "test-secret"
	return cfg
}

func newTestEnv(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()

	logger := zerolog.Nop()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	jwtCfg := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	}
	authService := auth.NewService(st, jwtCfg)
	history := core.NewHistory(st, cfg.HistoryLimit, cfg.HistoryMaxLimit)
	hub := core.NewHub(st, history, &logger)

	srv := NewServer(hub, authService, history, cfg, &logger)
	ts := httptest.NewServer(srv.Handler)

	t.Cleanup(func() {
		hub.Shutdown()
		ts.Close()
		st.Close()
	})

	return &testEnv{ts: ts, st: st, hub: hub, auth: authService, history: history}
}

func registerUser(t *testing.T, env *testEnv, username, password string) string {
	t.Helper()

	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		t.Fatalf("marshal credentials: %v", err)
	}
	resp, err := http.Post(env.ts.URL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status: %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if tr.Token == "" {
		t.Fatal("empty token from register")
	}
	return tr.Token
}

func dialWS(t *testing.T, env *testEnv, token string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() {
		conn.Close(websocket.StatusNormalClosure, "")
	})
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal frame data: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: raw}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

// mustReadType reads frames until one of the wanted type arrives, failing the
// test on timeout or read error. Interleaved presence traffic is skipped.
func mustReadType(t *testing.T, conn *websocket.Conn, want string) proto.Envelope {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for {
		ctx, cancel := context.WithDeadline(context.Background(), deadline)
		var env proto.Envelope
		err := wsjson.Read(ctx, conn, &env)
		cancel()
		if err != nil {
			t.Fatalf("waiting for %q: %v", want, err)
		}
		if env.Type == want {
			return env
		}
	}
}

func joinRoom(t *testing.T, conn *websocket.Conn, room string) {
	t.Helper()
	sendFrame(t, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: room})
	mustReadType(t, conn, proto.OutboundTypeHistory)
}

func decodeData(t *testing.T, env proto.Envelope, into any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, into); err != nil {
		t.Fatalf("decode %s data: %v", env.Type, err)
	}
}
