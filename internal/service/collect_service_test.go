package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"echofeed/internal/models"
	"echofeed/internal/repository"
	"echofeed/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	existsByPostIDFn func(context.Context, string) (bool, error)
	listFn           func(context.Context, int) ([]*models.Post, error)
	textsFn          func(context.Context) ([]string, error)
	creationTimesFn  func(context.Context) ([]*time.Time, error)
	countFn          func(context.Context) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) ExistsByPostID(ctx context.Context, postID string) (bool, error) {
	return s.existsByPostIDFn(ctx, postID)
}
func (s *postRepoStub) List(ctx context.Context, limit int) ([]*models.Post, error) {
	return s.listFn(ctx, limit)
}
func (s *postRepoStub) Texts(ctx context.Context) ([]string, error) {
	return s.textsFn(ctx)
}
func (s *postRepoStub) CreationTimes(ctx context.Context) ([]*time.Time, error) {
	return s.creationTimesFn(ctx)
}
func (s *postRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:         func(_ context.Context, _ *models.Post) error { return nil },
		existsByPostIDFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
		listFn:           func(_ context.Context, _ int) ([]*models.Post, error) { return nil, nil },
		textsFn:          func(_ context.Context) ([]string, error) { return nil, nil },
		creationTimesFn:  func(_ context.Context) ([]*time.Time, error) { return nil, nil },
		countFn:          func(_ context.Context) (int64, error) { return 0, nil },
	}
}

// searcherStub is a stub for the Searcher interface.
type searcherStub struct {
	searchFn func(context.Context, string, int, string) (*upstream.SearchResponse, error)
	calls    int
}

func (s *searcherStub) SearchRecent(ctx context.Context, query string, maxResults int, nextToken string) (*upstream.SearchResponse, error) {
	s.calls++
	return s.searchFn(ctx, query, maxResults, nextToken)
}

func searchReturning(posts ...upstream.RawPost) *searcherStub {
	return &searcherStub{
		searchFn: func(_ context.Context, _ string, _ int, _ string) (*upstream.SearchResponse, error) {
			return &upstream.SearchResponse{Data: posts}, nil
		},
	}
}

// assertErrorCode asserts that err is an AppError with the given code.
func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func TestCollectBlankQueryFailsBeforeUpstreamCall(t *testing.T) {
	searcher := searchReturning()
	svc := NewCollectService(searcher, noopPostRepo())

	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := svc.Collect(context.Background(), query, 10)
		assertErrorCode(t, err, "VALIDATION_ERROR")
	}
	assert.Zero(t, searcher.calls, "blank queries must not reach the upstream")
}

func TestCollectRejectsNonPositiveMaxResults(t *testing.T) {
	searcher := searchReturning()
	svc := NewCollectService(searcher, noopPostRepo())

	_, err := svc.Collect(context.Background(), "golang", 0)
	assertErrorCode(t, err, "VALIDATION_ERROR")

	_, err = svc.Collect(context.Background(), "golang", -5)
	assertErrorCode(t, err, "VALIDATION_ERROR")
	assert.Zero(t, searcher.calls)
}

func TestCollectWithoutClientIsConfigurationError(t *testing.T) {
	svc := NewCollectService(nil, noopPostRepo())

	_, err := svc.Collect(context.Background(), "golang", 10)
	assertErrorCode(t, err, "CONFIGURATION_ERROR")
}

func TestCollectSavesNewPosts(t *testing.T) {
	searcher := searchReturning(
		upstream.RawPost{ID: "1", AuthorID: "a1", Text: "hello #go", CreatedAt: "2024-05-01T12:30:00Z"},
		upstream.RawPost{ID: "2", AuthorID: "a2", Text: "more #go"},
	)
	var created []*models.Post
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, post *models.Post) error {
		created = append(created, post)
		return nil
	}
	svc := NewCollectService(searcher, repo)

	result, err := svc.Collect(context.Background(), "go", 10)
	require.NoError(t, err)

	require.Len(t, result.Saved, 2)
	assert.Empty(t, result.Skipped)
	require.Len(t, created, 2)

	assert.Equal(t, "1", created[0].PostID)
	require.NotNil(t, created[0].CreatedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), *created[0].CreatedAt)
	assert.NotEmpty(t, created[0].RawPayload)

	// No created_at from upstream means NULL, never a fabricated time.
	assert.Nil(t, created[1].CreatedAt)
}

func TestCollectNormalizesOffsetTimestamps(t *testing.T) {
	searcher := searchReturning(
		upstream.RawPost{ID: "1", Text: "x", CreatedAt: "2024-05-01T14:30:00+02:00"},
	)
	var created []*models.Post
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, post *models.Post) error {
		created = append(created, post)
		return nil
	}
	svc := NewCollectService(searcher, repo)

	_, err := svc.Collect(context.Background(), "q", 10)
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.NotNil(t, created[0].CreatedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), *created[0].CreatedAt)
}

func TestCollectMalformedTimestampStoredAsNull(t *testing.T) {
	searcher := searchReturning(
		upstream.RawPost{ID: "1", Text: "x", CreatedAt: "yesterday-ish"},
	)
	var created []*models.Post
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, post *models.Post) error {
		created = append(created, post)
		return nil
	}
	svc := NewCollectService(searcher, repo)

	result, err := svc.Collect(context.Background(), "q", 10)
	require.NoError(t, err)
	require.Len(t, result.Saved, 1, "a bad timestamp must not drop the record")
	assert.Nil(t, created[0].CreatedAt)
}

func TestCollectSkipsRecordWithoutID(t *testing.T) {
	searcher := searchReturning(
		upstream.RawPost{ID: "", Text: "orphan"},
		upstream.RawPost{ID: "2", Text: "kept"},
	)
	svc := NewCollectService(searcher, noopPostRepo())

	result, err := svc.Collect(context.Background(), "q", 10)
	require.NoError(t, err)
	require.Len(t, result.Saved, 1)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, SkipMissingID, result.Skipped[0].Reason)
}

func TestCollectSkipsExistingPosts(t *testing.T) {
	searcher := searchReturning(
		upstream.RawPost{ID: "old", Text: "seen before"},
		upstream.RawPost{ID: "new", Text: "fresh"},
	)
	repo := noopPostRepo()
	repo.existsByPostIDFn = func(_ context.Context, postID string) (bool, error) {
		return postID == "old", nil
	}
	svc := NewCollectService(searcher, repo)

	result, err := svc.Collect(context.Background(), "q", 10)
	require.NoError(t, err)
	require.Len(t, result.Saved, 1)
	assert.Equal(t, "new", result.Saved[0].PostID)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "old", result.Skipped[0].PostID)
	assert.Equal(t, SkipDuplicate, result.Skipped[0].Reason)
}

func TestCollectInsertRaceSkipsOnlyThatRecord(t *testing.T) {
	searcher := searchReturning(
		upstream.RawPost{ID: "raced", Text: "a"},
		upstream.RawPost{ID: "fine", Text: "b"},
	)
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, post *models.Post) error {
		if post.PostID == "raced" {
			return repository.ErrDuplicatePost
		}
		return nil
	}
	svc := NewCollectService(searcher, repo)

	result, err := svc.Collect(context.Background(), "q", 10)
	require.NoError(t, err)
	require.Len(t, result.Saved, 1)
	assert.Equal(t, "fine", result.Saved[0].PostID)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, SkipDuplicateRace, result.Skipped[0].Reason)
}

func TestCollectUpstreamErrorPropagatesUnchanged(t *testing.T) {
	upstreamErr := models.NewUpstreamError(errors.New("boom"))
	searcher := &searcherStub{
		searchFn: func(_ context.Context, _ string, _ int, _ string) (*upstream.SearchResponse, error) {
			return nil, upstreamErr
		},
	}
	svc := NewCollectService(searcher, noopPostRepo())

	_, err := svc.Collect(context.Background(), "q", 10)
	require.ErrorIs(t, err, upstreamErr, "upstream failures must propagate without rewrapping")
}

func TestCollectStorageFailureAbortsBatch(t *testing.T) {
	searcher := searchReturning(
		upstream.RawPost{ID: "1", Text: "a"},
		upstream.RawPost{ID: "2", Text: "b"},
	)
	var creates int
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, _ *models.Post) error {
		creates++
		return errors.New("disk full")
	}
	svc := NewCollectService(searcher, repo)

	_, err := svc.Collect(context.Background(), "q", 10)
	assertErrorCode(t, err, "STORAGE_ERROR")
	assert.Equal(t, 1, creates, "the batch must stop at the first storage failure")
}

func TestCollectEmptyUpstreamResultIsSuccess(t *testing.T) {
	svc := NewCollectService(searchReturning(), noopPostRepo())

	result, err := svc.Collect(context.Background(), "nothing-matches", 10)
	require.NoError(t, err)
	assert.Empty(t, result.Saved)
	assert.Empty(t, result.Skipped)
}
