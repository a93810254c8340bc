// apps/go-server/internal/httpserver/server.go
//
// HTTP server wiring for the quiz backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/quiz/options", "/leaderboard".
//   - Quiz endpoints (optional auth): start, state, guess, skip, replay, exit.
//   - Live display stream: GET /quiz/{id}/ws (see ws.go).
//   - Auth endpoints (see auth.go) so signed-in players are named on the leaderboard.
//
// Notes:
//   - Each quiz session belongs to the player that started it (user ID, or the
//     anonymous cookie for guests); other callers get 404.
//   - The WebSocket route sits outside the timeout group because the timeout
//     middleware would write to a hijacked connection.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/stemquiz/apps/go-server/internal/catalog"
	"github.com/robalobadob/stemquiz/apps/go-server/internal/controller"
	"github.com/robalobadob/stemquiz/apps/go-server/internal/daily"
	"github.com/robalobadob/stemquiz/apps/go-server/internal/quiz"
	"github.com/robalobadob/stemquiz/apps/go-server/internal/results"
	"github.com/robalobadob/stemquiz/apps/go-server/internal/store"
)

// Config carries the server's dependencies and settings.
type Config struct {
	Catalog      *catalog.Catalog
	Store        store.Store
	DB           *sql.DB
	Durations    []int  // allowed time limits in seconds
	ClientOrigin string // CORS + WebSocket origin
	JWTSecret    string
	JWTDays      int
	CookieName   string
	Production   bool
	DailySalt    string             // keys the shared daily clue order
	Controller   controller.Options // timing overrides; Durations and OnEnd are set by the server
}

// Server bundles router, session registry, results store and DB handle.
type Server struct {
	r       *chi.Mux
	cfg     Config
	store   store.Store
	results *results.Store
	db      *sql.DB
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg Config) *Server {
	if cfg.CookieName == "" {
		cfg.CookieName = "quiz_token"
	}
	if cfg.JWTDays <= 0 {
		cfg.JWTDays = 14
	}
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     cfg,
		store:   cfg.Store,
		results: results.NewStore(cfg.DB),
		db:      cfg.DB,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)               // add X-Request-ID
	s.r.Use(chimw.RealIP)                  // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))   // request-scoped logger
	s.r.Use(hlog.AccessHandler(accessLog)) // one line per request
	s.r.Use(chimw.Recoverer)               // recover from panics
	s.r.Use(s.cors)                        // credentials-friendly CORS
	s.r.Use(s.withOptionalAuth())          // decorate with user when a token is present

	// WebSocket stream; no timeout, no JSON content type.
	s.r.With(s.withSession).Get("/quiz/{id}/ws", s.handleStream)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"stem-quiz","endpoints":["/health","/quiz/options","POST /quiz/start","/quiz/{id}","/leaderboard","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/catalog", func(w http.ResponseWriter, r *http.Request) {
			subjects, clues := s.cfg.Catalog.Stats()
			_ = json.NewEncoder(w).Encode(map[string]int{"subjects": subjects, "clues": clues, "sessions": s.store.Len()})
		})

		// --- quiz ---
		r.Get("/quiz/options", s.handleOptions)
		r.Post("/quiz/start", s.handleStart)
		r.Route("/quiz/{id}", func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/", s.handleState)
			r.Post("/guess", s.handleGuess)
			r.Post("/skip", s.handleSkip)
			r.Post("/replay", s.handleReplay)
			r.Post("/exit", s.handleExit)
		})

		// --- results ---
		r.Get("/leaderboard", s.handleLeaderboard)
		r.With(s.requireAuth()).Get("/results/mine", s.handleMyResults)

		s.mountAuthRoutes(r)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not_found")
		})
	})

	return s
}

// Start begins serving HTTP on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// SweepLoop closes sessions idle for longer than idle, checking every interval.
func (s *Server) SweepLoop(ctx context.Context, every, idle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.store.Sweep(ctx, now.Add(-idle)); n > 0 {
				log.Info().Int("removed", n).Int("live", s.store.Len()).Msg("swept idle sessions")
			}
		}
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("requestId", chimw.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("took", d).
		Msg("request")
}

// ctxSessionKey is the context key type for the request's *controller.Controller.
type ctxSessionKey struct{}

// withSession loads the {id} session and checks it belongs to the caller.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil || c.Player().ID != s.callerID(r) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxSessionKey{}, c)))
	})
}

func sessionFrom(r *http.Request) *controller.Controller {
	c, _ := r.Context().Value(ctxSessionKey{}).(*controller.Controller)
	return c
}

// ------------------------------ QUIZ ---------------------------------------

type optionsRes struct {
	Subjects        []string `json:"subjects"`
	Durations       []int    `json:"durations"`
	DefaultDuration int      `json:"defaultDuration"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	def := quiz.DefaultSeconds
	if len(s.cfg.Durations) > 0 && !slices.Contains(s.cfg.Durations, def) {
		def = s.cfg.Durations[0]
	}
	_ = json.NewEncoder(w).Encode(optionsRes{
		Subjects:        s.cfg.Catalog.Subjects(),
		Durations:       s.cfg.Durations,
		DefaultDuration: def,
	})
}

// startReq is the payload for POST /quiz/start.
type startReq struct {
	Subject  string `json:"subject"`
	Duration int    `json:"duration"` // seconds
	Daily    bool   `json:"daily"`    // same clue order for everyone today
}

// handleStart creates a controller for the caller, starts it, and registers it.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	req.Subject = strings.ToLower(strings.TrimSpace(req.Subject))

	opts := s.cfg.Controller
	opts.Durations = s.cfg.Durations
	opts.OnEnd = s.recordResult
	if req.Daily {
		subject, salt := req.Subject, s.cfg.DailySalt
		opts.NewRand = func() *rand.Rand { return daily.Rand(time.Now(), salt, subject) }
	}
	c := controller.New(s.cfg.Catalog, s.requestPlayer(w, r), opts)

	v, err := c.Start(req.Subject, req.Duration)
	if err != nil {
		c.Close()
		writeQuizError(w, err)
		return
	}
	if err := s.store.Save(r.Context(), c); err != nil {
		c.Close()
		hlog.FromRequest(r).Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	hlog.FromRequest(r).Info().Str("session", c.ID()).Str("subject", req.Subject).Int("duration", req.Duration).Bool("daily", req.Daily).Msg("session created")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(sessionFrom(r).View())
}

// guessReq/Res payloads for POST /quiz/{id}/guess.
type guessReq struct {
	Letter string `json:"letter"`
}
type guessRes struct {
	Result quiz.GuessResult `json:"result"`
	View   quiz.View        `json:"view"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	res, v, err := sessionFrom(r).Guess(req.Letter)
	if err != nil {
		writeQuizError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(guessRes{Result: res, View: v})
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	v, err := sessionFrom(r).Skip()
	if err != nil {
		writeQuizError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	v, err := sessionFrom(r).Replay()
	if err != nil {
		writeQuizError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// handleExit discards the session; the client returns to subject/time selection.
func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	c := sessionFrom(r)
	v := c.Exit()
	if err := s.store.Delete(r.Context(), c.ID()); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("session", c.ID()).Msg("delete session")
	}
	_ = json.NewEncoder(w).Encode(v)
}

// recordResult persists a timed-out run. Runs on the countdown goroutine.
func (s *Server) recordResult(sum controller.Summary) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.results.Insert(ctx, results.Result{
		RunID:      sum.RunID,
		SessionID:  sum.SessionID,
		PlayerID:   sum.Player.ID,
		PlayerName: sum.Player.Name,
		Subject:    sum.Subject,
		Duration:   sum.Duration,
		Score:      sum.Score,
		Solved:     sum.Solved,
		Skipped:    sum.Skipped,
		FinishedAt: sum.FinishedAt,
	})
	if err != nil {
		log.Warn().Err(err).Str("session", sum.SessionID).Msg("record result")
	}
}

// ----------------------------- RESULTS -------------------------------------

type leaderboardRes struct {
	Subject  string           `json:"subject"`
	Duration int              `json:"duration,omitempty"`
	Top      []results.Result `json:"top"`
}

// handleLeaderboard returns the best runs for ?subject= (default "all"),
// optionally filtered by ?duration=.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	subject := strings.ToLower(q.Get("subject"))
	if subject == "" {
		subject = catalog.All
	}
	if !s.cfg.Catalog.Has(subject) {
		writeError(w, http.StatusBadRequest, controller.ErrUnknownSubject.Error())
		return
	}
	duration, _ := strconv.Atoi(q.Get("duration"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit > 100 {
		limit = 100
	}
	top, err := s.results.Leaderboard(r.Context(), subject, duration, limit)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(leaderboardRes{Subject: subject, Duration: duration, Top: top})
}

func (s *Server) handleMyResults(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r)
	out, err := s.results.ByPlayer(r.Context(), me.ID, 50)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("my results")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if out == nil {
		out = []results.Result{}
	}
	_ = json.NewEncoder(w).Encode(out)
}

// ------------------------------ errors -------------------------------------

// writeError writes {"error": code} with status.
func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// writeQuizError maps engine/controller errors to HTTP statuses.
func writeQuizError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrInvalidLetter),
		errors.Is(err, quiz.ErrInvalidDuration),
		errors.Is(err, controller.ErrUnknownSubject):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, quiz.ErrInvalidState),
		errors.Is(err, controller.ErrNoSession):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).Msg("quiz")
		writeError(w, http.StatusInternalServerError, "internal")
	}
}
