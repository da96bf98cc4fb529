// Package bridge is the background coordination process: it receives
// protocol envelopes over HTTP, runs analyses and queues pushes per tab.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iw2rmb/proofline/messaging"
	"github.com/iw2rmb/proofline/orchestrator"
	"github.com/iw2rmb/proofline/prefs"
)

type Options struct {
	Orchestrator *orchestrator.Orchestrator
	Mailboxes    *messaging.Mailboxes
	// Prefs persists the enabled flag on toggle. Optional.
	Prefs      prefs.Store
	CORSOrigin string
	Logger     *slog.Logger
}

type Server struct {
	orch   *orchestrator.Orchestrator
	mail   *messaging.Mailboxes
	prefs  prefs.Store
	router *messaging.Router
	cors   string
	log    *slog.Logger

	mu   sync.RWMutex
	last map[string]messaging.CombinedResults
	// versions counts passes started per tab; only the newest may publish.
	versions map[string]uint64
	seq      uint64
}

func New(opt Options) *Server {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Mailboxes == nil {
		opt.Mailboxes = messaging.NewMailboxes(0)
	}
	if opt.CORSOrigin == "" {
		opt.CORSOrigin = "*"
	}
	s := &Server{
		orch:   opt.Orchestrator,
		mail:   opt.Mailboxes,
		prefs:  opt.Prefs,
		router: messaging.NewRouter(opt.Logger),
		cors:   opt.CORSOrigin,
		log:    opt.Logger,
		last:   make(map[string]messaging.CombinedResults),

		versions: make(map[string]uint64),
	}
	s.routes()
	return s
}

func (s *Server) Router() *messaging.Router { return s.router }

func (s *Server) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	s.log.Info("bridge listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "enabled": s.orch.Session().Enabled()})
		return
	}

	if r.URL.Path != "/api/messages" {
		writeJSON(w, http.StatusNotFound, messaging.Fail(errors.New("not found")))
		return
	}

	switch r.Method {
	case http.MethodPost:
		var env messaging.Envelope
		if err := decodeBody(r, &env); err != nil {
			writeJSON(w, http.StatusBadRequest, messaging.Fail(err))
			return
		}
		if env.TabID == "" {
			env.TabID = r.Header.Get("X-Tab-ID")
		}
		writeJSON(w, http.StatusOK, s.router.Dispatch(r.Context(), env))
	case http.MethodGet:
		tab := r.URL.Query().Get("tabId")
		if tab == "" {
			writeJSON(w, http.StatusBadRequest, messaging.Fail(messaging.ErrNoTab))
			return
		}
		s.mail.Open(tab)
		msgs, _ := s.mail.Drain(tab)
		writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
	case http.MethodDelete:
		s.forget(r.URL.Query().Get("tabId"))
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, messaging.Fail(errors.New("method not allowed")))
	}
}

// forget drops everything held for a closed tab.
func (s *Server) forget(tab string) {
	if tab == "" {
		return
	}
	s.mail.Close(tab)
	s.mu.Lock()
	delete(s.last, tab)
	delete(s.versions, tab)
	s.mu.Unlock()
}

func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.cors)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		s.log.Debug("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", writer.status,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-Tab-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}
