package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shelfworksco/stacks/pkg/index"
	"github.com/shelfworksco/stacks/pkg/papers"
	"github.com/shelfworksco/stacks/pkg/search"
)

// ErrorResponse is the JSON body returned on any failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the API server for querying and managing the Stacks index.
type Server struct {
	config   Config
	searcher *search.Service
	manager  *index.Manager
	store    papers.Store
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
// The search service, index manager, and store are injected to allow sharing
// with other components (e.g., a rebuild-on-start task in the serve command).
func NewServer(config Config, searcher *search.Service, manager *index.Manager, store papers.Store, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		searcher: searcher,
		manager:  manager,
		store:    store,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/api/search", s.handleSearch)
	app.Get("/api/search/filter-options", s.handleFilterOptions)
	app.Delete("/api/papers/:id", s.handleDeletePaper)
	app.Get("/api/index/status", s.handleIndexStatus)
	app.Post("/api/index/rebuild", s.handleIndexRebuild)
	app.Post("/api/index/rollback", s.handleIndexRollback)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}
