package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dastsc/nexus/internal/pipeline"
	"github.com/dastsc/nexus/internal/profile"
	"github.com/dastsc/nexus/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	engine      *pipeline.Engine
	ws          http.Handler
	feedPath    string
	profilesDir string
	lg          *slog.Logger
}

// NewServer wires the REST surface around the engine. ws handles the
// /ws/telemetry upgrade and may be nil in tests that only exercise REST.
func NewServer(engine *pipeline.Engine, ws http.Handler, feedPath, profilesDir string, lg *slog.Logger) *Server {
	if lg == nil {
		lg = slog.Default()
	}
	return &Server{
		engine:      engine,
		ws:          ws,
		feedPath:    feedPath,
		profilesDir: profilesDir,
		lg:          lg,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack keeps websocket upgrades working behind the middleware.
func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	if s.ws != nil {
		mux.Handle("/ws/telemetry", s.ws)
	}
	mux.HandleFunc("/api/profiles", s.listProfiles)
	mux.HandleFunc("/api/profiles/select", s.selectProfileHandler)
	mux.HandleFunc("/api/profiles/reload", s.reloadProfilesHandler)
	mux.HandleFunc("/api/result", s.showResult)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/healthz", s.healthz)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// profileAPI controls the wire shape of a profile listing; the on-disk
// record carries mapping tables the dashboard has no use for.
type profileAPI struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	TrainLengthM float64 `json:"train_length_m,omitempty"`
	Active       bool    `json:"active"`
}

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cat := s.engine.Catalog()
	manual := cat.Manual()
	out := make([]profileAPI, 0, cat.Len())
	for _, p := range cat.Profiles() {
		out = append(out, profileAPI{
			ID:           p.ID,
			Name:         p.Name,
			Unit:         p.Unit(),
			TrainLengthM: p.TrainLengthM,
			Active:       manual != nil && manual.ID == p.ID,
		})
	}

	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write profiles")
		return
	}
}

func (s *Server) selectProfileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "Missing 'id' parameter", http.StatusBadRequest)
		return
	}

	if err := s.engine.SelectProfile(id); err != nil {
		if errors.Is(err, profile.ErrUnknownProfile) {
			http.Error(w, "Unknown profile", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to select profile", http.StatusInternalServerError)
		return
	}
	io.WriteString(w, "Profile selected")
}

func (s *Server) reloadProfilesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	profiles, err := profile.LoadDir(s.profilesDir, s.lg)
	if err != nil {
		s.lg.Warn("reloading profiles", "dir", s.profilesDir, "error", err)
		http.Error(w, "Failed to reload profiles", http.StatusInternalServerError)
		return
	}
	s.engine.Catalog().Reload(profiles)
	s.lg.Info("profiles reloaded", "count", len(profiles), "dir", s.profilesDir)
	fmt.Fprintf(w, "Reloaded %d profiles", len(profiles))
}

func (s *Server) showResult(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	res, ok := s.engine.LastResult()
	if !ok {
		s.writeJSONError(w, http.StatusNotFound, "No telemetry received yet")
		return
	}
	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write result")
		return
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	config := map[string]interface{}{
		"simulator_path": s.feedPath,
		"profiles":       s.engine.Catalog().Len(),
	}

	if err := json.NewEncoder(w).Encode(config); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	_, live := s.engine.LastResult()
	status := map[string]interface{}{
		"status":         "online",
		"version":        version.Version,
		"simulator_path": s.feedPath,
		"receiving":      live,
	}
	json.NewEncoder(w).Encode(status)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok")
}
