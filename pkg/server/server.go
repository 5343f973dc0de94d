package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rcastelli/plandb/pkg/accounting"
	"github.com/rcastelli/plandb/pkg/api"
	"github.com/rcastelli/plandb/pkg/storage"
)

// Server holds references to the engine, router and metrics registry.
type Server struct {
	router   *mux.Router
	dbEngine *storage.StorageEngine
	registry *prometheus.Registry
}

// NewServer creates a new instance of Server.
func NewServer(storageOptions ...storage.StorageOption) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		dbEngine: storage.NewStorageEngine(storageOptions...),
		registry: prometheus.NewRegistry(),
	}

	s.registry.MustRegister(accounting.Collectors()...)
	s.registry.MustRegister(storage.Collectors()...)

	handler := api.NewHandler(s.dbEngine)
	handler.RegisterRoutes(s.router)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// Use the logging middleware for all routes
	s.router.Use(requestLoggerMiddleware)

	// Customize NotFoundHandler to log 404s
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("WARN: No route found for %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	})

	return s
}

// requestLoggerMiddleware logs the method, URL path, and duration for each request.
func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		elapsed := time.Since(start)
		log.Printf("INFO: Request %s %s took %s", r.Method, r.URL.Path, elapsed)
	})
}

// Engine exposes the underlying storage engine.
func (s *Server) Engine() *storage.StorageEngine {
	return s.dbEngine
}

// InitDB loads a snapshot from a file, if one exists.
func (s *Server) InitDB(filename string) {
	if err := s.dbEngine.LoadFromFile(filename); err != nil {
		log.Printf("ERROR: Could not load snapshot from file %s: %v", filename, err)
	} else {
		log.Printf("INFO: Loaded snapshot from file %s successfully", filename)
	}
}

// SaveDB saves the current database state to file.
func (s *Server) SaveDB(filename string) {
	if err := s.dbEngine.SaveToFile(filename); err != nil {
		log.Printf("ERROR: Could not save snapshot to file %s: %v", filename, err)
	} else {
		log.Printf("INFO: Saved snapshot to file %s successfully", filename)
	}
}

// StartBackgroundWorkers starts the engine's TTL reaper.
func (s *Server) StartBackgroundWorkers() {
	s.dbEngine.StartBackgroundWorkers()
}

// StopBackgroundWorkers stops the engine's background workers.
func (s *Server) StopBackgroundWorkers() {
	s.dbEngine.StopBackgroundWorkers()
}

// Router exposes the internal mux.Router.
func (s *Server) Router() http.Handler {
	return s.router
}
