package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/njchilds90/symplot"
)

const writeWait = 10 * time.Second

type server struct {
	cfg      symplot.Config
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*symplot.Session
}

func newServer(cfg symplot.Config, logger *log.Logger) *server {
	s := &server{
		cfg:      cfg,
		logger:   logger,
		sessions: map[string]*symplot.Session{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16384,
		},
	}
	if origins := cfg.Server.AllowedOrigins; len(origins) > 0 {
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, o := range origins {
				if o == origin {
					return true
				}
			}
			s.logger.Printf("websocket origin %q rejected", origin)
			return false
		}
	}
	return s
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tool", s.handleTool)
	mux.HandleFunc("GET /schema", s.handleSchema)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /animate", s.handleAnimate)
	mux.HandleFunc("POST /session", s.handleNewSession)
	mux.HandleFunc("GET /session/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /session/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /session/{id}/plot", s.handlePlot)
	mux.HandleFunc("POST /session/{id}/reset", s.handleReset)
	mux.HandleFunc("POST /session/{id}/clear", s.handleClear)
	return s.recoverer(mux)
}

func (s *server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Printf("panic in %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody decodes a single JSON value into v. An empty body leaves v
// unchanged when allowEmpty is set.
func (s *server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if dec.More() {
		return errors.New("invalid JSON: trailing data")
	}
	return nil
}

// POST /tool
func (s *server) handleTool(w http.ResponseWriter, r *http.Request) {
	var req symplot.ToolRequest
	if err := s.decodeBody(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp := symplot.HandleToolCall(req)
	if resp.Error != "" {
		s.logger.Printf("tool %s: %s", req.Tool, resp.Error)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /schema
func (s *server) handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, symplot.ToolSpec())
}

// GET /health
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := len(s.sessions)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": n,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

// ============================================================
// Sessions
// ============================================================

type sessionResponse struct {
	ID       string              `json:"id"`
	Request  symplot.PlotRequest `json:"request"`
	Plot     *symplot.Plot       `json:"plot"`
	Warnings []string            `json:"warnings,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func newSessionResponse(sess *symplot.Session) sessionResponse {
	resp := sessionResponse{ID: sess.ID(), Request: sess.Request(), Plot: sess.Last()}
	if resp.Plot != nil {
		resp.Warnings = resp.Plot.Warnings
	}
	return resp
}

func (s *server) session(w http.ResponseWriter, r *http.Request) (*symplot.Session, bool) {
	id := r.PathValue("id")
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no session %q", id))
	}
	return sess, ok
}

// POST /session
func (s *server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if len(s.sessions) >= s.cfg.Server.MaxSessions {
		s.mu.Unlock()
		writeError(w, http.StatusServiceUnavailable, "too many sessions")
		return
	}
	sess := symplot.NewSession(s.cfg)
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()
	s.logger.Printf("session %s created", sess.ID())
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

// GET /session/{id}
func (s *server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.session(w, r); ok {
		writeJSON(w, http.StatusOK, newSessionResponse(sess))
	}
}

// DELETE /session/{id}
func (s *server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.sessions, sess.ID())
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// POST /session/{id}/plot. The body holds the PlotRequest fields to
// change; omitted fields keep the session's current controls. A plot
// failure is reported in the error field along with the unchanged
// previous plot.
func (s *server) handlePlot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	req := sess.Request()
	if err := s.decodeBody(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	_, err := sess.Plot(req)
	resp := newSessionResponse(sess)
	if err != nil {
		s.logger.Printf("session %s: plot: %v", sess.ID(), err)
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /session/{id}/reset
func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.session(w, r); ok {
		sess.Reset()
		writeJSON(w, http.StatusOK, newSessionResponse(sess))
	}
}

// POST /session/{id}/clear
func (s *server) handleClear(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.session(w, r); ok {
		sess.Clear()
		writeJSON(w, http.StatusOK, newSessionResponse(sess))
	}
}

// ============================================================
// Animation
// ============================================================

// animatorFromQuery builds an Animator from the query of an /animate
// request, filling unset values from the configuration.
func (s *server) animatorFromQuery(q url.Values) (*symplot.Animator, error) {
	expr := q.Get("expr")
	if expr == "" {
		return nil, fmt.Errorf("missing query parameter: expr")
	}
	a := s.cfg.Animation
	lo, hi, points := s.cfg.Plot.XMin, s.cfg.Plot.XMax, s.cfg.Plot.Points
	intervalMS, frames, step := a.IntervalMS, a.Frames, a.TimeStep

	floatParam := func(key string, dst *float64) error {
		if v := q.Get(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("query parameter %s: %w", key, err)
			}
			*dst = f
		}
		return nil
	}
	intParam := func(key string, dst *int) error {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("query parameter %s: %w", key, err)
			}
			*dst = n
		}
		return nil
	}
	for _, err := range []error{
		floatParam("min", &lo),
		floatParam("max", &hi),
		floatParam("step", &step),
		intParam("points", &points),
		intParam("interval", &intervalMS),
		intParam("frames", &frames),
	} {
		if err != nil {
			return nil, err
		}
	}
	// Clamp the same way configuration files are.
	clamped := symplot.Config{Plot: s.cfg.Plot, Animation: symplot.AnimationConfig{IntervalMS: intervalMS, Frames: frames, TimeStep: step}}
	clamped.Plot.XMin, clamped.Plot.XMax, clamped.Plot.Points = lo, hi, points
	if err := clamped.Normalize(); err != nil {
		return nil, err
	}
	d, err := symplot.Linspace(lo, hi, clamped.Plot.Points)
	if err != nil {
		return nil, err
	}
	return symplot.NewAnimator(expr, d,
		symplot.WithInterval(clamped.Animation.Interval()),
		symplot.WithMaxFrames(clamped.Animation.Frames),
		symplot.WithTimeStep(clamped.Animation.TimeStep),
	)
}

// GET /animate streams one JSON Frame per tick until the client closes
// the connection or the frame limit is reached.
func (s *server) handleAnimate(w http.ResponseWriter, r *http.Request) {
	anim, err := s.animatorFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Printf("animate: upgrade: %v", err)
		return
	}
	defer conn.Close()
	// Drop the read deadline the HTTP server set before the upgrade.
	conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The read loop only watches for the client going away.
	go func() {
		defer anim.Stop()
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Printf("animate: read: %v", err)
				}
				return
			}
		}
	}()

	err = anim.Run(ctx, func(f symplot.Frame) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(f)
	})
	reason := "done"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		return
	default:
		s.logger.Printf("animate: %v", err)
		reason = err.Error()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(map[string]string{"error": reason})
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, truncate(reason, 120)))
}

// truncate keeps a close reason within the control frame limit.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
