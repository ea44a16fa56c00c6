package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/johnrirwin/marketwire/internal/logging"
	"github.com/johnrirwin/marketwire/internal/orchestrator"
	"github.com/johnrirwin/marketwire/internal/sources"
)

type Server struct {
	news   *NewsAPI
	logger *logging.Logger
	server *http.Server
}

// New wires the HTTP surface. desk may be nil, in which case the snapshot
// routes answer 503.
func New(client orchestrator.NewsClient, registry *sources.Registry, desk *orchestrator.Orchestrator, logger *logging.Logger) *Server {
	return &Server{
		news:   NewNewsAPI(client, registry, desk, logger),
		logger: logger,
	}
}

// Handler returns the routed mux without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// News routes
	s.news.RegisterRoutes(mux, s.corsMiddleware, s.recoverMiddleware)

	// Health check and metrics
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	s.logger.Info("HTTP API server starting", logging.WithField("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// recoverMiddleware turns a panic in next into a response written by onPanic.
func (s *Server) recoverMiddleware(next http.HandlerFunc, onPanic func(w http.ResponseWriter, message string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				message := fmt.Sprint(v)
				s.logger.Error("Handler panic", logging.WithFields(map[string]interface{}{
					"path":  r.URL.Path,
					"error": message,
				}))
				onPanic(w, message)
			}
		}()
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}
