// Package web exposes the thin HTTP front-end: a liveness probe, a
// worker status query and a manual check trigger. No relay logic lives
// here.
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/scheduler"
)

// Server serves the health and trigger endpoints
type Server struct {
	worker *scheduler.Worker
	logger logger.Logger
	addr   string
}

// New creates a server over the given worker
func New(addr string, worker *scheduler.Worker, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Server{
		worker: worker,
		logger: log,
		addr:   addr,
	}
}

// Start listens and serves until the process exits. Run it on its own
// goroutine.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHealth)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/check", s.handleCheck)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.InfoWithFields("web front-end listening", map[string]interface{}{
		"addr": s.addr,
	})

	return srv.ListenAndServe()
}

// handleHealth reflects whether the worker is alive, not whether the
// last cycle succeeded
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.worker.Alive() {
		http.Error(w, "worker not running", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.worker.Status()); err != nil {
		s.logger.WithError(err).Warn("failed to encode status")
	}
}

// handleCheck triggers a cycle on demand; it blocks until the cycle
// finishes (or returns immediately when a cycle is already running and
// the trigger loses the lock race)
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := s.worker.TriggerNow()

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{"forwarded": count}
	if err != nil {
		resp["error"] = err.Error()
		w.WriteHeader(http.StatusInternalServerError)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.WithError(err).Warn("failed to encode check response")
	}
}
