package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shelfworksco/stacks/pkg/index"
	"github.com/shelfworksco/stacks/pkg/vector"
)

// IndexInfo describes the live snapshot of one granularity.
type IndexInfo struct {
	TotalDocuments int       `json:"total_documents"`
	LastUpdated    time.Time `json:"last_updated"`
	UsingHybrid    bool      `json:"using_hybrid"`
}

// BackupInfo describes the retained backup snapshot, when one exists.
type BackupInfo struct {
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse is the JSON body for GET /api/index/status.
type StatusResponse struct {
	Index      IndexInfo   `json:"index"`
	HasBackup  bool        `json:"has_backup"`
	BackupInfo *BackupInfo `json:"backup_info,omitempty"`
}

// RebuildRequest selects the granularity for rebuild and rollback calls.
type RebuildRequest struct {
	UseParagraphs bool `json:"use_paragraphs"`
}

// RebuildResponse is the JSON body for a completed rebuild.
type RebuildResponse struct {
	Message       string `json:"message"`
	DocumentCount int    `json:"document_count"`
	DurationMS    int64  `json:"duration_ms"`
}

// RollbackResponse is the JSON body for a completed rollback.
type RollbackResponse struct {
	Message               string `json:"message"`
	RestoredDocumentCount int    `json:"restored_document_count"`
}

func granularityFor(useParagraphs bool) vector.Granularity {
	if useParagraphs {
		return vector.GranularityParagraph
	}
	return vector.GranularityPaper
}

// handleIndexStatus handles GET /api/index/status requests. The granularity
// is selected with the use_paragraphs query parameter.
func (s *Server) handleIndexStatus(c *fiber.Ctx) error {
	g := granularityFor(c.QueryBool("use_paragraphs"))

	status := s.manager.Status(g)

	resp := StatusResponse{
		Index: IndexInfo{
			TotalDocuments: status.DocumentCount,
			LastUpdated:    status.LastUpdated,
			UsingHybrid:    status.Hybrid,
		},
		HasBackup: status.HasBackup,
	}
	if status.HasBackup {
		resp.BackupInfo = &BackupInfo{Timestamp: status.BackupTimestamp}
	}

	return c.JSON(resp)
}

// handleIndexRebuild handles POST /api/index/rebuild requests.
func (s *Server) handleIndexRebuild(c *fiber.Ctx) error {
	var req RebuildRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "invalid request body: " + err.Error(),
			})
		}
	}

	g := granularityFor(req.UseParagraphs)

	result, err := s.manager.Rebuild(c.Context(), g)
	if err != nil {
		switch {
		case errors.Is(err, index.ErrRebuildInProgress):
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Error: "a rebuild is already in progress for this granularity",
			})
		default:
			s.logger.Error("rebuild failed",
				zap.String("granularity", string(g)),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
		}
	}

	return c.JSON(RebuildResponse{
		Message:       "index rebuilt successfully",
		DocumentCount: result.DocumentCount,
		DurationMS:    result.Duration.Milliseconds(),
	})
}

// handleIndexRollback handles POST /api/index/rollback requests.
func (s *Server) handleIndexRollback(c *fiber.Ctx) error {
	var req RebuildRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "invalid request body: " + err.Error(),
			})
		}
	}

	g := granularityFor(req.UseParagraphs)

	result, err := s.manager.Rollback(g)
	if err != nil {
		switch {
		case errors.Is(err, index.ErrNoBackup):
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Error: "no backup available to roll back to",
			})
		case errors.Is(err, index.ErrRebuildInProgress):
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Error: "a rebuild is in progress; retry after it completes",
			})
		default:
			s.logger.Error("rollback failed",
				zap.String("granularity", string(g)),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
		}
	}

	return c.JSON(RollbackResponse{
		Message:               "index rolled back successfully",
		RestoredDocumentCount: result.RestoredDocumentCount,
	})
}
