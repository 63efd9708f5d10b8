package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Mounter adds routes to the root router, e.g. the websocket endpoint.
type Mounter interface {
	Register(r *mux.Router)
}

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server. Extra mounts share the port and
// middleware.
func NewServer(port string, handler *Handler, mounts ...Mounter) *Server {
	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           NewRouter(handler, mounts...),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter builds the route table.
func NewRouter(handler *Handler, mounts ...Mounter) *mux.Router {
	router := mux.NewRouter()

	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)
	router.Use(RateLimitMiddleware(5, 10))

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Scrape jobs
	api.HandleFunc("/scrapes", handler.CreateScrape).Methods("POST")
	api.HandleFunc("/scrapes", handler.ListScrapes).Methods("GET")
	api.HandleFunc("/scrapes/status", handler.ScrapeStatus).Methods("GET")
	api.HandleFunc("/scrapes/{jobID}", handler.GetScrape).Methods("GET")
	api.HandleFunc("/scrapes/{jobID}/cancel", handler.CancelScrape).Methods("POST")

	// Stored games
	api.HandleFunc("/games", handler.ListGames).Methods("GET")
	api.HandleFunc("/games/{gameID}", handler.GetGame).Methods("GET")
	api.HandleFunc("/games/{gameID}/events", handler.GetGameEvents).Methods("GET")

	api.HandleFunc("/live", handler.LivePolling).Methods("GET")

	// Players
	api.HandleFunc("/players/{playerID}/handedness", handler.GetHandedness).Methods("GET")

	for _, m := range mounts {
		m.Register(router)
	}
	return router
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
