package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/vkotusenko/wordduel/internal/directory"
	"github.com/vkotusenko/wordduel/internal/dispatcher"
	"github.com/vkotusenko/wordduel/internal/history"
	"github.com/vkotusenko/wordduel/internal/session"
	"github.com/vkotusenko/wordduel/internal/store"
	"github.com/vkotusenko/wordduel/internal/transport"
)

// nullTransport swallows all game output; the gateway tests only care about
// HTTP behavior.
type nullTransport struct {
	mu   sync.Mutex
	sent []string // handles
}

func (n *nullTransport) Send(_ context.Context, handle, _ string) (transport.MessageRef, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, handle)
	return "ref", nil
}
func (n *nullTransport) SendAnimation(context.Context, string, string) error { return nil }
func (n *nullTransport) Delete(context.Context, string, transport.MessageRef) error {
	return nil
}

func newTestServer(t *testing.T) (*Server, *nullTransport) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	schema := []string{
		`CREATE TABLE users (
            id TEXT PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            created_at TEXT NOT NULL,
            games_played INTEGER NOT NULL DEFAULT 0,
            wins INTEGER NOT NULL DEFAULT 0,
            streak INTEGER NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE rounds (
            id TEXT PRIMARY KEY,
            setter TEXT NOT NULL,
            guesser TEXT NOT NULL,
            language TEXT NOT NULL,
            word_len INTEGER NOT NULL,
            attempts INTEGER NOT NULL,
            max_attempts INTEGER NOT NULL,
            outcome TEXT NOT NULL,
            finished_at TEXT NOT NULL
        )`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("schema: %v", err)
		}
	}

	dir, err := directory.Open(filepath.Join(t.TempDir(), "directory.json"), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	tr := &nullTransport{}
	engine := session.NewEngine(store.NewMemory(), session.Config{}, zerolog.Nop())
	hist := history.NewStore(db)
	disp := dispatcher.New(engine, dir, tr, hist, session.Config{}, "", zerolog.Nop())
	return New(db, disp, dir, hist), tr
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func register(t *testing.T, s *Server, username string) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/register", "", map[string]string{
		"username": username,
		"password": "correct horse",
		"callback": "https://callbacks.test/" + username,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: status %d, body %s", username, w.Code, w.Body)
	}
	var resp struct{ Token string }
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Fatal("register returned no token")
	}
	return resp.Token
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Errorf("404 body is not JSON: %s", w.Body)
	}
}

func TestRegisterValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing callback", map[string]string{"username": "alice", "password": "correct horse"}, http.StatusBadRequest},
		{"relative callback", map[string]string{"username": "alice", "password": "correct horse", "callback": "/hook"}, http.StatusBadRequest},
		{"short username", map[string]string{"username": "al", "password": "correct horse", "callback": "https://cb.test/a"}, http.StatusBadRequest},
		{"short password", map[string]string{"username": "alice", "password": "short", "callback": "https://cb.test/a"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/register", "", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	s, _ := newTestServer(t)
	register(t, s, "alice")

	w := doJSON(t, s, http.MethodPost, "/register", "", map[string]string{
		"username": "Alice", // case-insensitive clash
		"password": "correct horse",
		"callback": "https://callbacks.test/alice2",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestLogin(t *testing.T) {
	s, _ := newTestServer(t)
	register(t, s, "alice")

	w := doJSON(t, s, http.MethodPost, "/login", "", map[string]string{
		"username": "alice", "password": "correct horse",
	})
	if w.Code != http.StatusOK {
		t.Errorf("login: status = %d, body %s", w.Code, w.Body)
	}

	w = doJSON(t, s, http.MethodPost, "/login", "", map[string]string{
		"username": "alice", "password": "wrong password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d", w.Code)
	}
}

func TestMessageRequiresAuth(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/message", "", map[string]string{"text": "/start"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", w.Code)
	}
	w = doJSON(t, s, http.MethodPost, "/message", "garbage.token.here", map[string]string{"text": "/start"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d", w.Code)
	}
}

func TestMessageDispatches(t *testing.T) {
	s, tr := newTestServer(t)
	token := register(t, s, "alice")

	w := doJSON(t, s, http.MethodPost, "/message", token, map[string]string{"text": "/start"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	// The welcome reply goes out to the registered callback handle.
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.sent) != 1 || tr.sent[0] != "https://callbacks.test/alice" {
		t.Errorf("transport deliveries = %v", tr.sent)
	}
}

func TestStatsAndRounds(t *testing.T) {
	s, _ := newTestServer(t)
	token := register(t, s, "alice")

	w := doJSON(t, s, http.MethodGet, "/stats/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status = %d, body %s", w.Code, w.Body)
	}
	var st history.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.GamesPlayed != 0 || st.Wins != 0 {
		t.Errorf("fresh account stats = %+v", st)
	}

	w = doJSON(t, s, http.MethodGet, "/rounds/mine", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rounds: status = %d", w.Code)
	}
	var rounds []history.Round
	if err := json.Unmarshal(w.Body.Bytes(), &rounds); err != nil {
		t.Fatal(err)
	}
	if len(rounds) != 0 {
		t.Errorf("fresh account rounds = %+v", rounds)
	}
}
