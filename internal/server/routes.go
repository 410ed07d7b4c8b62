package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ahmethakanbesel/stockmailer/internal/request"
)

// SymbolLookup resolves a ticker against the company directory.
type SymbolLookup interface {
	Exists(ctx context.Context, symbol string) bool
	DisplayName(ctx context.Context, symbol string) string
}

// NewHandler creates the full HTTP handler with routes and middleware.
// metrics may be nil, in which case /metrics is not mounted.
func NewHandler(requests *request.Service, symbols SymbolLookup, metrics http.Handler) http.Handler {
	h := &handler{requests: requests, symbols: symbols}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(logging)
	r.Use(recovery)

	r.Get("/health", h.health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.createRequest)
			r.Get("/", h.listRequests)
			r.Get("/{id}", h.getRequest)
		})
		r.Get("/symbols/{symbol}", h.getSymbol)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
