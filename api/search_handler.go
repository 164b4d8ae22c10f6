package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shelfworksco/stacks/pkg/index"
	"github.com/shelfworksco/stacks/pkg/papers"
	"github.com/shelfworksco/stacks/pkg/search"
	"github.com/shelfworksco/stacks/pkg/vector"
)

// SearchRequest is the JSON body for POST /api/search.
type SearchRequest struct {
	Query         string         `json:"query"`
	Filters       *papers.Filter `json:"filters,omitempty"`
	UseParagraphs bool           `json:"use_paragraphs"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
}

// handleSearch handles POST /api/search requests.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	var req SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body: " + err.Error(),
		})
	}

	if req.Limit < 0 || req.Offset < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "limit and offset must be non-negative",
		})
	}

	resp, err := s.searcher.Search(c.Context(), search.Request{
		Query:         req.Query,
		Filters:       req.Filters,
		UseParagraphs: req.UseParagraphs,
		Limit:         req.Limit,
		Offset:        req.Offset,
	})
	if err != nil {
		switch {
		case errors.Is(err, search.ErrEmptyQuery):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		case errors.Is(err, index.ErrIndexNotReady):
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
				Error: "index is not ready: no documents have been indexed yet",
			})
		case errors.Is(err, vector.ErrDimensionMismatch):
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
		default:
			s.logger.Error("search failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "search failed"})
		}
	}

	return c.JSON(resp)
}

// handleFilterOptions handles GET /api/search/filter-options requests. It
// returns the distinct filterable values present in the current corpus.
func (s *Server) handleFilterOptions(c *fiber.Ctx) error {
	opts, err := s.searcher.FilterOptions(c.Context())
	if err != nil {
		s.logger.Error("failed to collect filter options", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to collect filter options",
		})
	}

	return c.JSON(opts)
}
