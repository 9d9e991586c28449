package server

import (
	"time"

	"echofeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000

	defaultHashtagLimit = 20
	maxHashtagLimit     = 100
)

// clampedQueryInt reads an integer query parameter and forces it into
// [1, max], substituting def when absent or non-numeric.
func clampedQueryInt(c *fiber.Ctx, name string, def, max int) int {
	v := c.QueryInt(name, def)
	if v < 1 {
		return 1
	}
	if v > max {
		return max
	}
	return v
}

// PostResponse is the wire shape of a stored post. The raw upstream
// payload is deliberately absent.
type PostResponse struct {
	ID          uint       `json:"id"`
	PostID      string     `json:"post_id"`
	AuthorID    string     `json:"author_id,omitempty"`
	Text        string     `json:"text"`
	CreatedAt   *time.Time `json:"created_at"`
	CollectedAt time.Time  `json:"collected_at"`
}

func toPostResponse(p *models.Post) PostResponse {
	return PostResponse{
		ID:          p.ID,
		PostID:      p.PostID,
		AuthorID:    p.AuthorID,
		Text:        p.Text,
		CreatedAt:   p.CreatedAt,
		CollectedAt: p.CollectedAt,
	}
}

func toPostResponses(posts []*models.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	return out
}
