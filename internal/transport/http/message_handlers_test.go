package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/vovakirdan/roomchat-server/internal/store"
)

func seedMessages(t *testing.T, env *testEnv, room string, contents ...string) {
	t.Helper()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range contents {
		msg := &store.Message{
			Room:      room,
			Sender:    "alice",
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := env.st.SaveMessage(context.Background(), msg); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}
}

func getMessages(t *testing.T, env *testEnv, token, query string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, env.ts.URL+"/api/messages"+query, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("messages request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestListMessagesRequiresAuth(t *testing.T) {
	env := newTestEnv(t, testConfig())

	if resp := getMessages(t, env, "", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if resp := getMessages(t, env, "not-a-token", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.StatusCode)
	}
}

func TestListMessagesDefaultRoomAndOrder(t *testing.T) {
	env := newTestEnv(t, testConfig())
	token := registerUser(t, env, "alice", "password")
	seedMessages(t, env, "general", "first", "second", "third")
	seedMessages(t, env, "random", "elsewhere")

	resp := getMessages(t, env, token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("messages status: %d", resp.StatusCode)
	}

	var page historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Room != "general" {
		t.Fatalf("expected default room general, got %q", page.Room)
	}
	if len(page.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(page.Messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if page.Messages[i].Content != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, page.Messages[i].Content)
		}
	}
}

func TestListMessagesBeforePagination(t *testing.T) {
	env := newTestEnv(t, testConfig())
	token := registerUser(t, env, "alice", "password")
	seedMessages(t, env, "general", "first", "second", "third")

	// Cutoff at the third message excludes it and anything newer.
	cutoff := time.Date(2025, 6, 1, 12, 2, 0, 0, time.UTC).Format(time.RFC3339)
	resp := getMessages(t, env, token, "?before="+cutoff)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("messages status: %d", resp.StatusCode)
	}

	var page historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Messages) != 2 {
		t.Fatalf("expected 2 messages before cutoff, got %d", len(page.Messages))
	}
	if page.Messages[len(page.Messages)-1].Content != "second" {
		t.Fatalf("unexpected newest message: %+v", page.Messages)
	}
}

func TestListMessagesRejectsBadParams(t *testing.T) {
	env := newTestEnv(t, testConfig())
	token := registerUser(t, env, "alice", "password")

	if resp := getMessages(t, env, token, "?limit=abc"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad limit: expected 400, got %d", resp.StatusCode)
	}
	if resp := getMessages(t, env, token, "?limit=-1"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("negative limit: expected 400, got %d", resp.StatusCode)
	}
	if resp := getMessages(t, env, token, "?before=yesterday"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad before: expected 400, got %d", resp.StatusCode)
	}
}
