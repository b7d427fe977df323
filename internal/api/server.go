package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
)

// SessionHeader identifies the client session for the in-flight guard
const SessionHeader = "X-Session-ID"

const defaultSession = "http"

// Server exposes the diary as a JSON API
type Server struct {
	diary domain.DiaryService
	http  *http.Server
}

func NewServer(addr string, diary domain.DiaryService) *Server {
	s := &Server{diary: diary}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed API with CORS and request logging
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/logs/{date}", s.getSummary).Methods(http.MethodGet)
	api.HandleFunc("/logs/{date}/metrics", s.putMetrics).Methods(http.MethodPut)
	api.HandleFunc("/logs/{date}/note", s.putNote).Methods(http.MethodPut)
	api.HandleFunc("/logs/{date}/meals/{slot}", s.getMeal).Methods(http.MethodGet)
	api.HandleFunc("/logs/{date}/meals/{slot}/focus", s.postFocus).Methods(http.MethodPost)
	api.HandleFunc("/logs/{date}/meals/{slot}/entries", s.postEntry).Methods(http.MethodPost)
	api.HandleFunc("/logs/{date}/meals/{slot}/items", s.clearMeal).Methods(http.MethodDelete)
	api.HandleFunc("/logs/{date}/meals/{slot}/items/{id}", s.putItem).Methods(http.MethodPut)
	api.HandleFunc("/logs/{date}/meals/{slot}/items/{id}", s.deleteItem).Methods(http.MethodDelete)
	api.HandleFunc("/logs/{date}/meals/{slot}/items/{id}/weight", s.putWeight).Methods(http.MethodPut)
	api.HandleFunc("/logs/{date}/meals/{slot}/skip", s.putSkip).Methods(http.MethodPut)
	api.HandleFunc("/logs/{date}/meals/{slot}/recommendation", s.postRecommendation).Methods(http.MethodPost)
	api.HandleFunc("/reports/daily/{date}", s.getDailyReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/weekly/{date}", s.getWeeklyReport).Methods(http.MethodGet)
	api.HandleFunc("/goals", s.getGoals).Methods(http.MethodGet)
	api.HandleFunc("/goals", s.putGoals).Methods(http.MethodPut)
	r.HandleFunc("/mcp", s.postMCP).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(loggingMiddleware(r))
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("HTTP API shutting down")
	return s.http.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start))
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
