// Package service implements the ingestion and analytics business logic.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"echofeed/internal/cache"
	"echofeed/internal/middleware"
	"echofeed/internal/models"
	"echofeed/internal/observability"
	"echofeed/internal/repository"
	"echofeed/internal/upstream"

	"github.com/google/uuid"
)

// Searcher is the upstream dependency of the ingestion pipeline.
// Injected so tests can substitute a fake without process-wide state.
type Searcher interface {
	SearchRecent(ctx context.Context, query string, maxResults int, nextToken string) (*upstream.SearchResponse, error)
}

// Skip reasons recorded per upstream record that was not persisted.
const (
	SkipMissingID     = "missing_id"
	SkipDuplicate     = "duplicate"
	SkipDuplicateRace = "duplicate_race"
)

// SkippedRecord describes one upstream record the pipeline decided not
// to persist. Skips are data, not errors.
type SkippedRecord struct {
	PostID string `json:"post_id,omitempty"`
	Reason string `json:"reason"`
}

// CollectResult is the outcome of one ingestion batch.
type CollectResult struct {
	Saved   []*models.Post
	Skipped []SkippedRecord
}

// CollectService pulls posts from the upstream search API and persists
// the ones not seen before.
type CollectService struct {
	client Searcher
	repo   repository.PostRepository
}

// NewCollectService creates the ingestion pipeline. client may be nil
// when no bearer token is configured; Collect then fails with a
// configuration error before any I/O.
func NewCollectService(client Searcher, repo repository.PostRepository) *CollectService {
	return &CollectService{client: client, repo: repo}
}

// Collect searches the upstream for query and persists every record not
// already stored, in upstream order, strictly sequentially. Upstream
// failures propagate unchanged; a storage failure that is not an
// individual duplicate aborts the batch (rows already inserted stay
// committed). An empty result is success, not an error.
func (s *CollectService) Collect(ctx context.Context, query string, maxResults int) (*CollectResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	if maxResults <= 0 {
		return nil, models.NewValidationError("max_results must be positive")
	}
	if s.client == nil {
		return nil, models.NewConfigurationError("upstream client is not configured, check BEARER_TOKEN")
	}

	ctx, span := observability.StartSpan(ctx, "CollectService.Collect")
	defer span.End()

	ctx = middleware.WithBatchID(ctx, uuid.NewString())

	resp, err := s.client.SearchRecent(ctx, query, maxResults, "")
	if err != nil {
		observability.RecordError(ctx, err)
		return nil, err
	}

	result := &CollectResult{Saved: []*models.Post{}}
	if len(resp.Data) == 0 {
		middleware.Logger.InfoContext(ctx, "no posts found for query", slog.String("query", query))
		return result, nil
	}

	for _, raw := range resp.Data {
		saved, skip, err := s.saveIfNew(ctx, raw)
		if err != nil {
			observability.RecordError(ctx, err)
			return nil, err
		}
		if skip != nil {
			middleware.PostsSkipped.WithLabelValues(skip.Reason).Inc()
			result.Skipped = append(result.Skipped, *skip)
			continue
		}
		middleware.PostsIngested.Inc()
		result.Saved = append(result.Saved, saved)
	}

	if len(result.Saved) > 0 {
		cache.InvalidateAnalytics(ctx)
	}

	middleware.Logger.InfoContext(ctx, "collection finished",
		slog.String("query", query),
		slog.Int("saved", len(result.Saved)),
		slog.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// saveIfNew persists one upstream record unless it lacks an identifier
// or is already stored. It returns exactly one of: a saved post, a skip
// record, or a fatal storage error.
func (s *CollectService) saveIfNew(ctx context.Context, raw upstream.RawPost) (*models.Post, *SkippedRecord, error) {
	if raw.ID == "" {
		return nil, &SkippedRecord{Reason: SkipMissingID}, nil
	}

	exists, err := s.repo.ExistsByPostID(ctx, raw.ID)
	if err != nil {
		return nil, nil, models.NewStorageError(err)
	}
	if exists {
		middleware.Logger.DebugContext(ctx, "post already exists, skipping", slog.String("post_id", raw.ID))
		return nil, &SkippedRecord{PostID: raw.ID, Reason: SkipDuplicate}, nil
	}

	payload, _ := json.Marshal(raw)

	post := &models.Post{
		PostID:     raw.ID,
		AuthorID:   raw.AuthorID,
		Text:       raw.Text,
		CreatedAt:  parseCreatedAt(ctx, raw.CreatedAt),
		RawPayload: string(payload),
	}

	if err := s.repo.Create(ctx, post); err != nil {
		if err == repository.ErrDuplicatePost {
			// Lost a race against a concurrent insert of the same
			// post_id; identical to a pre-existing duplicate.
			middleware.Logger.DebugContext(ctx, "post inserted concurrently, skipping", slog.String("post_id", raw.ID))
			return nil, &SkippedRecord{PostID: raw.ID, Reason: SkipDuplicateRace}, nil
		}
		return nil, nil, models.NewStorageError(err)
	}

	return post, nil, nil
}

// parseCreatedAt parses the upstream timestamp. Both a trailing UTC
// marker and an explicit offset are accepted; anything else yields nil,
// never an error. Parsed values are normalized to UTC.
func parseCreatedAt(ctx context.Context, value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		middleware.Logger.DebugContext(ctx, "unparsable created_at, storing NULL",
			slog.String("created_at", value))
		return nil
	}
	utc := t.UTC()
	return &utc
}
