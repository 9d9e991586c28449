package service

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"echofeed/internal/cache"
	"echofeed/internal/middleware"
	"echofeed/internal/models"
	"echofeed/internal/repository"
)

// hashtagPattern matches a # followed by word characters. Case is
// folded during counting, not here.
var hashtagPattern = regexp.MustCompile(`#\w+`)

// hourLayout buckets timestamps to hour precision in UTC.
const hourLayout = "2006-01-02T15"

// unknownBucket collects posts whose creation time was never supplied
// by the upstream.
const unknownBucket = "unknown"

// AnalyticsService computes read-only reports over the stored corpus.
// Reports degrade to empty results on storage failure instead of
// surfacing errors to callers.
type AnalyticsService struct {
	repo repository.PostRepository
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(repo repository.PostRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

// TopHashtags returns the most frequent hashtags across all stored
// posts, case-insensitively, most frequent first. Ties keep the order
// in which the tags were first encountered. The result is cached per
// limit value.
func (s *AnalyticsService) TopHashtags(ctx context.Context, limit int) []models.HashtagCount {
	var result []models.HashtagCount
	err := cache.Aside(ctx, cache.HashtagsKey(limit), &result, cache.HashtagsTTL, func() error {
		computed, err := s.computeTopHashtags(ctx, limit)
		if err != nil {
			return err
		}
		result = computed
		return nil
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "hashtag report failed, returning empty",
			slog.String("error", err.Error()))
		return []models.HashtagCount{}
	}
	if result == nil {
		result = []models.HashtagCount{}
	}
	return result
}

func (s *AnalyticsService) computeTopHashtags(ctx context.Context, limit int) ([]models.HashtagCount, error) {
	texts, err := s.repo.Texts(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for _, text := range texts {
		for _, tag := range hashtagPattern.FindAllString(text, -1) {
			tag = strings.ToLower(tag)
			if _, ok := counts[tag]; !ok {
				firstSeen[tag] = len(firstSeen)
			}
			counts[tag]++
		}
	}

	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return firstSeen[tags[i]] < firstSeen[tags[j]]
	})

	if limit < len(tags) {
		tags = tags[:limit]
	}

	out := make([]models.HashtagCount, 0, len(tags))
	for _, tag := range tags {
		out = append(out, models.HashtagCount{Hashtag: tag, Count: counts[tag]})
	}
	return out, nil
}

// VolumeByHour buckets stored posts by the UTC hour of their creation
// time, sorted chronologically. Posts without a creation time land in a
// single trailing unknown bucket.
func (s *AnalyticsService) VolumeByHour(ctx context.Context) []models.VolumeBucket {
	var result []models.VolumeBucket
	err := cache.Aside(ctx, cache.VolumeKey, &result, cache.VolumeTTL, func() error {
		computed, err := s.computeVolumeByHour(ctx)
		if err != nil {
			return err
		}
		result = computed
		return nil
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "volume report failed, returning empty",
			slog.String("error", err.Error()))
		return []models.VolumeBucket{}
	}
	if result == nil {
		result = []models.VolumeBucket{}
	}
	return result
}

func (s *AnalyticsService) computeVolumeByHour(ctx context.Context) ([]models.VolumeBucket, error) {
	times, err := s.repo.CreationTimes(ctx)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]int)
	for _, t := range times {
		if t == nil {
			buckets[unknownBucket]++
			continue
		}
		buckets[t.UTC().Format(hourLayout)]++
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	// Lexicographic order is chronological for the hour layout, and
	// "unknown" sorts after every digit-prefixed key.
	sort.Strings(keys)

	out := make([]models.VolumeBucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.VolumeBucket{HourOrKey: k, Count: buckets[k]})
	}
	return out, nil
}
