// Package api exposes the services over HTTP.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jnst/store-backoffice/internal/model"
	"github.com/jnst/store-backoffice/internal/service"
)

const (
	decimalBase  = 10
	int64BitSize = 64

	defaultParkedLimit = 100
)

// Services groups the services the API calls.
type Services struct {
	Categories service.CategoryService
	Products   service.ProductService
	Auth       service.AuthService
	Reports    service.ReportService
	Outbox     service.OutboxService
}

// Options configures the server.
type Options struct {
	AllowedOrigins []string
	// ShowCriticalData adds internal error text to 500 responses.
	ShowCriticalData bool
}

// Server handles HTTP requests for the store back office.
type Server struct {
	services     Services
	tokens       TokenParser
	logger       *slog.Logger
	showCritical bool
	router       chi.Router
}

// NewServer creates a server and builds its routes.
func NewServer(services Services, tokens TokenParser, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		services:     services,
		tokens:       tokens,
		logger:       logger,
		showCritical: opts.ShowCriticalData,
	}
	s.router = s.routes(opts)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(opts Options) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.Register)
		r.Post("/login", s.Login)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.ListProducts)
		r.Post("/", s.CreateProduct)
		r.Get("/{id}", s.GetProduct)
		r.Put("/{id}", s.UpdateProduct)
		r.Delete("/{id}", s.DeleteProduct)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.ListCategories)
		r.Post("/", s.CreateCategory)
		r.Get("/{id}", s.GetCategory)
		r.Put("/{id}", s.UpdateCategory)
		r.Delete("/{id}", s.DeleteCategory)
	})

	r.Get("/reports/inventory-summary", s.InventorySummary)

	r.Route("/admin/outbox", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Use(s.requireRole(model.RoleAdmin))
		r.Get("/failed", s.ListParkedEvents)
		r.Post("/{id}/requeue", s.RequeueEvent)
	})

	return r
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), decimalBase, int64BitSize)
	if err != nil || id <= 0 {
		return 0, errMalformedID
	}

	return id, nil
}

func setLocation(w http.ResponseWriter, collection string, id int64) {
	w.Header().Set("Location", fmt.Sprintf("/%s/%d", collection, id))
}

// HealthCheck handles GET /health endpoint for service health check.
func (s *Server) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
