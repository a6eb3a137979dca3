package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"image/png"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"glyphclock/internal/config"
	"glyphclock/internal/display"
	appLog "glyphclock/internal/log"
	"glyphclock/internal/loop"
	"glyphclock/internal/render"
)

// StatusSource reports what the clock face last drew. *render.Tracker
// implements it.
type StatusSource interface {
	Status() render.Status
}

// Server exposes the running clock over HTTP: a health probe, the current
// state, the last presented frame and a redraw trigger.
type Server struct {
	cfg    *config.Config
	rec    *display.Recorder
	status StatusSource
	redraw chan<- struct{}
	mux    *http.ServeMux
}

// embeddedStatic holds the preview page.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server. redraw may be nil, in which case
// /api/redraw answers 503.
func NewServer(cfg *config.Config, rec *display.Recorder, status StatusSource, redraw chan<- struct{}) *Server {
	s := &Server{
		cfg:    cfg,
		rec:    rec,
		status: status,
		redraw: redraw,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="glyphclock", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves s on cfg.Listen until ctx is canceled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func StartServer(ctx context.Context, s *Server) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/state", s.handleState)
	s.mux.HandleFunc("/api/redraw", s.handleRedraw)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// stateResponse is the JSON response shape for /api/state.
type stateResponse struct {
	render.Status

	Mode        string     `json:"mode"`
	Timezone    string     `json:"timezone"`
	Driver      string     `json:"driver"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Presents    int        `json:"presents"`
	PresentedAt *time.Time `json:"presented_at,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := stateResponse{
		Mode:     s.cfg.Clock.Mode,
		Timezone: s.cfg.Timezone,
		Driver:   s.cfg.Display.Driver,
		Width:    s.cfg.Display.Width,
		Height:   s.cfg.Display.Height,
	}
	if s.status != nil {
		resp.Status = s.status.Status()
	}
	if s.rec != nil {
		frame, at, presents := s.rec.Last()
		resp.Presents = presents
		if frame != nil {
			resp.PresentedAt = &at
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRedraw queues a forced render on the clock loop.
func (s *Server) handleRedraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.redraw == nil {
		writeError(w, http.StatusServiceUnavailable, "redraw not available")
		return
	}
	queued := loop.RequestRedraw(s.redraw)
	appLog.Debug("redraw requested over HTTP", "queued", queued)
	writeJSON(w, http.StatusAccepted, map[string]bool{"queued": queued})
}

// handlePreview serves the last presented frame as PNG.
func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request) {
	if s.rec == nil {
		http.Error(w, "preview not available", http.StatusServiceUnavailable)
		return
	}
	frame, _, _ := s.rec.Last()
	if frame == nil {
		http.Error(w, "no frame presented yet", http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		appLog.Error("preview encode failed", err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// staticFileServer serves the embedded preview page.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Unknown API paths get a 404, never the HTML page.
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
