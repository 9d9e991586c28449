package server

import (
	"log/slog"

	"echofeed/internal/middleware"
	"echofeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CollectRequest is the body of a collection request.
type CollectRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// CollectPosts searches the upstream for the requested query and stores
// every post not already in the corpus. The response lists only the
// newly stored records; duplicates and malformed records are skipped
// silently and show up in metrics, not in the body.
func (s *Server) CollectPosts(c *fiber.Ctx) error {
	var req CollectRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.MaxResults == 0 {
		req.MaxResults = 10
	}

	result, err := s.collectService.Collect(c.UserContext(), req.Query, req.MaxResults)
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "collection failed",
			slog.String("query", req.Query),
			slog.String("error", err.Error()))
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toPostResponses(result.Saved))
}

// GetPosts returns stored posts, newest creation time first.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	limit := clampedQueryInt(c, "limit", defaultListLimit, maxListLimit)

	posts, err := s.postRepo.List(c.UserContext(), limit)
	if err != nil {
		return models.RespondWithAppError(c, models.NewStorageError(err))
	}

	return c.Status(fiber.StatusOK).JSON(toPostResponses(posts))
}
