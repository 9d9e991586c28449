package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetTopHashtags returns the most frequent hashtags in the stored
// corpus. An empty corpus or a failing store both yield an empty list,
// never an error status.
func (s *Server) GetTopHashtags(c *fiber.Ctx) error {
	limit := clampedQueryInt(c, "limit", defaultHashtagLimit, maxHashtagLimit)

	counts := s.analyticsService.TopHashtags(c.UserContext(), limit)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"top_hashtags": counts,
	})
}

// GetVolumeByHour returns post counts bucketed by UTC hour of creation.
func (s *Server) GetVolumeByHour(c *fiber.Ctx) error {
	buckets := s.analyticsService.VolumeByHour(c.UserContext())

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"volume_by_hour": buckets,
	})
}

// GetSentiment is a reserved endpoint for a future sentiment report.
func (s *Server) GetSentiment(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
		"error": "Sentiment analysis is not implemented",
		"code":  "NOT_IMPLEMENTED",
	})
}
