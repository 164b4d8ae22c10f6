package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shelfworksco/stacks/pkg/papers"
)

// DeletePaperResponse is the JSON body returned by DELETE /api/papers/:id.
type DeletePaperResponse struct {
	PaperID string `json:"paper_id"`
	Message string `json:"message"`
}

// handleDeletePaper handles DELETE /api/papers/:id requests. The paper and
// its paragraphs leave the store immediately; the live index reflects the
// removal after the next rebuild.
func (s *Server) handleDeletePaper(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := s.store.DeletePaper(c.Context(), id); err != nil {
		var notFound papers.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("failed to delete paper", zap.String("paper_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete paper"})
	}

	s.logger.Info("paper deleted", zap.String("paper_id", id))

	return c.JSON(DeletePaperResponse{
		PaperID: id,
		Message: "paper deleted; rebuild the index to drop it from search results",
	})
}
