package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"echofeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textsRepo(texts ...string) *postRepoStub {
	repo := noopPostRepo()
	repo.textsFn = func(_ context.Context) ([]string, error) { return texts, nil }
	return repo
}

func TestTopHashtagsCountsCaseInsensitively(t *testing.T) {
	svc := NewAnalyticsService(textsRepo(
		"Loving #FastAPI today",
		"#fastapi is great, so is #Go",
		"#go #go #go",
	))

	counts := svc.TopHashtags(context.Background(), 20)

	require.Len(t, counts, 2)
	assert.Equal(t, models.HashtagCount{Hashtag: "#go", Count: 4}, counts[0])
	assert.Equal(t, models.HashtagCount{Hashtag: "#fastapi", Count: 2}, counts[1])
}

func TestTopHashtagsTiesKeepFirstEncounterOrder(t *testing.T) {
	svc := NewAnalyticsService(textsRepo(
		"#zebra first",
		"#apple second",
		"#zebra #apple again",
	))

	counts := svc.TopHashtags(context.Background(), 20)

	require.Len(t, counts, 2)
	assert.Equal(t, "#zebra", counts[0].Hashtag)
	assert.Equal(t, "#apple", counts[1].Hashtag)
	assert.Equal(t, counts[0].Count, counts[1].Count)
}

func TestTopHashtagsHonorsLimit(t *testing.T) {
	svc := NewAnalyticsService(textsRepo("#a #a #a #b #b #c"))

	counts := svc.TopHashtags(context.Background(), 2)

	require.Len(t, counts, 2)
	assert.Equal(t, "#a", counts[0].Hashtag)
	assert.Equal(t, "#b", counts[1].Hashtag)
}

func TestTopHashtagsIgnoresTextWithoutTags(t *testing.T) {
	svc := NewAnalyticsService(textsRepo(
		"no tags here",
		"just a # alone and an email a@b.com",
	))

	counts := svc.TopHashtags(context.Background(), 20)
	assert.Empty(t, counts)
	assert.NotNil(t, counts)
}

func TestTopHashtagsEmptyCorpus(t *testing.T) {
	svc := NewAnalyticsService(textsRepo())

	counts := svc.TopHashtags(context.Background(), 20)
	assert.Empty(t, counts)
	assert.NotNil(t, counts)
}

func TestTopHashtagsStorageFailureDegradesToEmpty(t *testing.T) {
	repo := noopPostRepo()
	repo.textsFn = func(_ context.Context) ([]string, error) {
		return nil, errors.New("db gone")
	}
	svc := NewAnalyticsService(repo)

	counts := svc.TopHashtags(context.Background(), 20)
	assert.Empty(t, counts)
	assert.NotNil(t, counts)
}

func timesRepo(times ...*time.Time) *postRepoStub {
	repo := noopPostRepo()
	repo.creationTimesFn = func(_ context.Context) ([]*time.Time, error) { return times, nil }
	return repo
}

func tptr(t time.Time) *time.Time { return &t }

func TestVolumeByHourBucketsChronologically(t *testing.T) {
	svc := NewAnalyticsService(timesRepo(
		tptr(time.Date(2024, 5, 1, 9, 59, 0, 0, time.UTC)),
		tptr(time.Date(2024, 5, 1, 9, 5, 0, 0, time.UTC)),
		tptr(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)),
		tptr(time.Date(2024, 4, 30, 23, 30, 0, 0, time.UTC)),
	))

	buckets := svc.VolumeByHour(context.Background())

	require.Len(t, buckets, 3)
	assert.Equal(t, models.VolumeBucket{HourOrKey: "2024-04-30T23", Count: 1}, buckets[0])
	assert.Equal(t, models.VolumeBucket{HourOrKey: "2024-05-01T09", Count: 2}, buckets[1])
	assert.Equal(t, models.VolumeBucket{HourOrKey: "2024-05-01T10", Count: 1}, buckets[2])
}

func TestVolumeByHourNormalizesToUTC(t *testing.T) {
	zone := time.FixedZone("plus2", 2*60*60)
	svc := NewAnalyticsService(timesRepo(
		tptr(time.Date(2024, 5, 1, 14, 30, 0, 0, zone)),
	))

	buckets := svc.VolumeByHour(context.Background())

	require.Len(t, buckets, 1)
	assert.Equal(t, "2024-05-01T12", buckets[0].HourOrKey)
}

func TestVolumeByHourUnknownBucketSortsLast(t *testing.T) {
	svc := NewAnalyticsService(timesRepo(
		nil,
		tptr(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)),
		nil,
	))

	buckets := svc.VolumeByHour(context.Background())

	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-05-01T09", buckets[0].HourOrKey)
	assert.Equal(t, models.VolumeBucket{HourOrKey: "unknown", Count: 2}, buckets[1])
}

func TestVolumeByHourCountsSumToCorpusSize(t *testing.T) {
	times := []*time.Time{
		nil,
		tptr(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)),
		tptr(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)),
		tptr(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)),
	}
	svc := NewAnalyticsService(timesRepo(times...))

	buckets := svc.VolumeByHour(context.Background())

	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	assert.Equal(t, len(times), total)
}

func TestVolumeByHourStorageFailureDegradesToEmpty(t *testing.T) {
	repo := noopPostRepo()
	repo.creationTimesFn = func(_ context.Context) ([]*time.Time, error) {
		return nil, errors.New("db gone")
	}
	svc := NewAnalyticsService(repo)

	buckets := svc.VolumeByHour(context.Background())
	assert.Empty(t, buckets)
	assert.NotNil(t, buckets)
}
