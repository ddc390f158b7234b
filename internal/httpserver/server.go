// internal/httpserver/server.go
//
// HTTP chat gateway for the word-duel engine.
// Responsibilities:
//   - Router + middleware (JSON, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", POST /register, POST /login.
//   - Gated endpoints (require auth): POST /message (inbound chat line),
//     GET /stats/me, GET /rounds/mine.
//
// A participant registers with a name, a password, and a callback URL; the
// callback becomes their delivery handle in the directory. Inbound lines are
// authenticated with a JWT and routed to the dispatcher; all game output
// flows back out through the transport to the callback URLs.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/vkotusenko/wordduel/internal/directory"
	"github.com/vkotusenko/wordduel/internal/dispatcher"
	"github.com/vkotusenko/wordduel/internal/history"
)

// Server bundles router, dispatcher, directory, history, and the DB handle.
type Server struct {
	r    *chi.Mux
	db   *sql.DB
	disp *dispatcher.Dispatcher
	dir  directory.Directory
	hist *history.Store
}

// New constructs a Server, installs middleware, and registers routes.
func New(db *sql.DB, disp *dispatcher.Dispatcher, dir directory.Directory, hist *history.Store) *Server {
	s := &Server{r: chi.NewRouter(), db: db, disp: disp, dir: dir, hist: hist}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(30 * time.Second))
	s.r.Use(jsonContentType)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"wordduel","endpoints":["/health","POST /register","POST /login","POST /message"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Post("/register", s.handleRegister)
	s.r.Post("/login", s.handleLogin)

	s.r.With(s.requireAuth()).Post("/message", s.handleMessage)
	s.r.With(s.requireAuth()).Get("/stats/me", s.handleStats)
	s.r.With(s.requireAuth()).Get("/rounds/mine", s.handleRounds)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// ----------------------------- participants --------------------------------

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Callback string `json:"callback"` // delivery handle: where game output is POSTed
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Callback string `json:"callback,omitempty"` // optional handle refresh
}

// handleRegister creates a participant account and records their callback
// URL as the delivery handle.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	if err := validateCallback(body.Callback); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	u, err := createUser(s.db, body.Username, body.Password)
	if err != nil {
		if err.Error() == "username taken" {
			http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	if err := s.dir.Record(u.Username, body.Callback, ""); err != nil {
		log.Error().Err(err).Str("name", u.Username).Msg("record handle")
		http.Error(w, `{"error":"directory_write_failed"}`, http.StatusInternalServerError)
		return
	}
	tok, exp, err := signJWT(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id": u.ID, "username": u.Username, "token": tok, "expiresAt": exp,
	})
}

// handleLogin authenticates a participant and optionally refreshes their
// callback handle.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := findUserByUsername(s.db, strings.TrimSpace(body.Username))
	if err != nil || !checkPassword(u.PasswordHash, body.Password) {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	if body.Callback != "" {
		if err := validateCallback(body.Callback); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}
		if err := s.dir.Record(u.Username, body.Callback, ""); err != nil {
			log.Warn().Err(err).Str("name", u.Username).Msg("refresh handle")
		}
	}
	tok, exp, err := signJWT(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id": u.ID, "username": u.Username, "token": tok, "expiresAt": exp,
	})
}

// ------------------------------ chat line ----------------------------------

type messageReq struct {
	Text string `json:"text"`
}

// handleMessage feeds one inbound chat line into the dispatcher on behalf of
// the authenticated participant.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var body messageReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	handle, ok := s.dir.Resolve(me.Username)
	if !ok {
		http.Error(w, `{"error":"no_handle_on_record"}`, http.StatusConflict)
		return
	}
	from := dispatcher.Participant{Name: me.Username, Handle: handle}
	if err := s.disp.HandleInbound(r.Context(), from, body.Text); err != nil {
		log.Error().Err(err).Str("name", me.Username).Msg("dispatch inbound")
		http.Error(w, `{"error":"dispatch_failed"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

// ------------------------------ history ------------------------------------

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	st, err := s.hist.Stats(r.Context(), me.Username)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(st)
}

func (s *Server) handleRounds(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	rounds, err := s.hist.RecentRounds(r.Context(), me.Username, 50)
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(rounds)
}

// validateCallback enforces an absolute http(s) URL for delivery handles.
func validateCallback(cb string) error {
	u, err := url.Parse(cb)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errInvalidCallback
	}
	return nil
}
