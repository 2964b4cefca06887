package review_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/phrazzld/scry-srs/internal/domain/srs"
	"github.com/phrazzld/scry-srs/internal/events"
	"github.com/phrazzld/scry-srs/internal/mocks"
	"github.com/phrazzld/scry-srs/internal/platform/logger"
	"github.com/phrazzld/scry-srs/internal/platform/memory"
	"github.com/phrazzld/scry-srs/internal/service/review"
	"github.com/phrazzld/scry-srs/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig retries without waiting so tests stay fast.
func testConfig() review.Config {
	return review.Config{
		Retry: review.RetryConfig{MaxAttempts: 3},
		Queue: review.QueueConfig{DefaultSize: 2, MaxSize: 3},
	}
}

func mustInput(t *testing.T, quality int) domain.PerformanceInput {
	t.Helper()
	input, err := domain.NewPerformanceInput(quality, 8000, 0, 1, domain.DifficultyMedium)
	require.NoError(t, err)
	return input
}

func newStoredItem(t *testing.T, userID uuid.UUID) *domain.ReviewItem {
	t.Helper()
	item, err := srs.NewDefaultService().NewItem(
		userID, uuid.New(), domain.ItemTypeVocabulary, "es", time.Now().Add(-time.Hour),
	)
	require.NoError(t, err)
	return item
}

// recordingHandler collects every event it receives.
type recordingHandler struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) received() []*events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*events.Event(nil), h.events...)
}

type fixture struct {
	svc     review.Service
	store   *memory.ReviewItemStore
	handler *recordingHandler
	logs    *logger.TestLogBuffer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log, logs := logger.NewTestLogger(t)
	itemStore := memory.NewReviewItemStore(log)
	handler := &recordingHandler{}
	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(handler)

	return fixture{
		svc:     review.NewReviewService(itemStore, srs.NewDefaultService(), emitter, testConfig(), log),
		store:   itemStore,
		handler: handler,
		logs:    logs,
	}
}

func TestNewReviewServicePanicsOnNilDependencies(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		review.NewReviewService(nil, srs.NewDefaultService(), nil, testConfig(), nil)
	})
	assert.Panics(t, func() {
		review.NewReviewService(&mocks.MockReviewItemStore{}, nil, nil, testConfig(), nil)
	})
	assert.NotPanics(t, func() {
		review.NewReviewService(&mocks.MockReviewItemStore{}, srs.NewDefaultService(), nil, review.Config{}, nil)
	})
}

func TestIntroduceItem(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	userID, itemID := uuid.New(), uuid.New()

	item, err := f.svc.IntroduceItem(ctx, userID, itemID, domain.ItemTypeGrammar, "fr")
	require.NoError(t, err)
	assert.Equal(t, userID, item.UserID)
	assert.Equal(t, itemID, item.ItemID)
	assert.Equal(t, 0, item.Version())
	assert.InDelta(t, 2.5, item.EaseFactor, 1e-9)
	assert.True(t, item.IsDue(time.Now()))

	stored, err := f.store.Get(ctx, userID, itemID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, stored.ID)

	t.Run("duplicate", func(t *testing.T) {
		_, err := f.svc.IntroduceItem(ctx, userID, itemID, domain.ItemTypeGrammar, "fr")
		assert.ErrorIs(t, err, review.ErrItemExists)
	})

	t.Run("invalid item type", func(t *testing.T) {
		_, err := f.svc.IntroduceItem(ctx, userID, uuid.New(), domain.ItemType("poem"), "fr")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("storage failure", func(t *testing.T) {
		log, _ := logger.NewTestLogger(t)
		boom := errors.New("disk on fire")
		svc := review.NewReviewService(&mocks.MockReviewItemStore{Err: boom}, srs.NewDefaultService(), nil, testConfig(), log)

		_, err := svc.IntroduceItem(ctx, userID, uuid.New(), domain.ItemTypePhrase, "fr")
		var svcErr *review.ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "introduce_item", svcErr.Operation)
		assert.ErrorIs(t, err, boom)
	})
}

func TestGetItem(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	item := newStoredItem(t, userID)
	require.NoError(t, f.store.Create(ctx, item))

	got, err := f.svc.GetItem(ctx, userID, item.ItemID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	_, err = f.svc.GetItem(ctx, userID, uuid.New())
	assert.ErrorIs(t, err, review.ErrItemNotFound)

	_, err = f.svc.GetItem(ctx, uuid.New(), item.ItemID)
	assert.ErrorIs(t, err, review.ErrItemNotFound)
}

func TestSubmitReview(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	item := newStoredItem(t, userID)
	require.NoError(t, f.store.Create(ctx, item))

	updated, err := f.svc.SubmitReview(ctx, userID, item.ItemID, mustInput(t, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Version())
	assert.Equal(t, 1, updated.Repetitions)
	assert.Equal(t, 3, updated.Interval)
	assert.Equal(t, 4, updated.Quality)
	assert.False(t, updated.IsDue(time.Now()))

	stored, err := f.store.Get(ctx, userID, item.ItemID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalReviews)
	assert.Equal(t, 3, stored.Interval)

	received := f.handler.received()
	require.Len(t, received, 1)
	assert.Equal(t, events.TypeReviewRecorded, received[0].Type)

	var payload events.ReviewRecorded
	require.NoError(t, received[0].UnmarshalPayload(&payload))
	assert.Equal(t, userID, payload.UserID)
	assert.Equal(t, item.ItemID, payload.ItemID)
	assert.True(t, payload.Passed)
	assert.Equal(t, 4, payload.Quality)
	assert.Equal(t, 3, payload.Interval)
	assert.Equal(t, 1, payload.Version)

	// A failed review resets the ladder and is reported as not passed
	updated, err = f.svc.SubmitReview(ctx, userID, item.ItemID, mustInput(t, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version())
	assert.Equal(t, 0, updated.Repetitions)
	assert.Equal(t, 1, updated.Interval)

	received = f.handler.received()
	require.Len(t, received, 2)
	require.NoError(t, received[1].UnmarshalPayload(&payload))
	assert.False(t, payload.Passed)
}

func TestSubmitReviewErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	userID := uuid.New()

	t.Run("invalid input never touches storage", func(t *testing.T) {
		t.Parallel()
		itemStore := &mocks.MockReviewItemStore{}
		svc := review.NewReviewService(itemStore, srs.NewDefaultService(), nil, testConfig(), nil)

		_, err := svc.SubmitReview(ctx, userID, uuid.New(), domain.PerformanceInput{})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Zero(t, itemStore.Calls("Get"))
		assert.Zero(t, itemStore.Calls("Save"))
	})

	t.Run("missing item", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.svc.SubmitReview(ctx, userID, uuid.New(), mustInput(t, 5))
		assert.ErrorIs(t, err, review.ErrItemNotFound)
		assert.Empty(t, f.handler.received())
	})

	t.Run("conflict is retried with a fresh read", func(t *testing.T) {
		t.Parallel()
		item := newStoredItem(t, userID)
		itemStore := &mocks.MockReviewItemStore{Item: item}
		itemStore.SaveFn = func(_ context.Context, next *domain.ReviewItem, expected int) (int, error) {
			if itemStore.Calls("Save") == 1 {
				return 0, store.ErrConflict
			}
			assert.Equal(t, 0, expected)
			return next.TotalReviews, nil
		}
		svc := review.NewReviewService(itemStore, srs.NewDefaultService(), nil, testConfig(), nil)

		updated, err := svc.SubmitReview(ctx, userID, item.ItemID, mustInput(t, 5))
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Version())
		assert.Equal(t, 2, itemStore.Calls("Get"))
		assert.Equal(t, 2, itemStore.Calls("Save"))
	})

	t.Run("conflicts exhaust retries", func(t *testing.T) {
		t.Parallel()
		item := newStoredItem(t, userID)
		itemStore := &mocks.MockReviewItemStore{Item: item}
		itemStore.SaveFn = func(context.Context, *domain.ReviewItem, int) (int, error) {
			return 0, store.ErrConflict
		}
		svc := review.NewReviewService(itemStore, srs.NewDefaultService(), nil, testConfig(), nil)

		_, err := svc.SubmitReview(ctx, userID, item.ItemID, mustInput(t, 5))
		assert.ErrorIs(t, err, review.ErrConflictRetriesExhausted)
		var svcErr *review.ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "submit_review", svcErr.Operation)
		assert.Equal(t, 3, itemStore.Calls("Save"))
	})

	t.Run("transient failures exhaust retries", func(t *testing.T) {
		t.Parallel()
		itemStore := &mocks.MockReviewItemStore{
			Err: store.NewStoreError("review_item", "get", "timeout", store.ErrTransient),
		}
		svc := review.NewReviewService(itemStore, srs.NewDefaultService(), nil, testConfig(), nil)

		_, err := svc.SubmitReview(ctx, userID, uuid.New(), mustInput(t, 5))
		assert.ErrorIs(t, err, review.ErrStorageUnavailable)
		assert.Equal(t, 3, itemStore.Calls("Get"))
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		item := newStoredItem(t, userID)
		require.NoError(t, f.store.Create(ctx, item))

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := f.svc.SubmitReview(cancelled, userID, item.ItemID, mustInput(t, 5))
		assert.ErrorIs(t, err, context.Canceled)

		stored, err := f.store.Get(ctx, userID, item.ItemID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.Version())
	})

	t.Run("handler failure does not undo the review", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.handler.err = errors.New("projection offline")
		item := newStoredItem(t, userID)
		require.NoError(t, f.store.Create(ctx, item))

		updated, err := f.svc.SubmitReview(ctx, userID, item.ItemID, mustInput(t, 5))
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Version())
		logger.AssertLogContains(t, f.logs, "review event handler failed")
	})
}

func TestSubmitReviewConcurrentWritersAllLand(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log, _ := logger.NewTestLogger(t)
	itemStore := memory.NewReviewItemStore(log)
	cfg := testConfig()
	cfg.Retry.MaxAttempts = 50
	svc := review.NewReviewService(itemStore, srs.NewDefaultService(), nil, cfg, log)

	userID := uuid.New()
	item := newStoredItem(t, userID)
	require.NoError(t, itemStore.Create(ctx, item))

	const writers = 5
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitReview(ctx, userID, item.ItemID, mustInput(t, 4))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := itemStore.Get(ctx, userID, item.ItemID)
	require.NoError(t, err)
	assert.Equal(t, writers, stored.TotalReviews)
}

func TestGetDueQueue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	now := time.Now().UTC()

	var overdue []*domain.ReviewItem
	for i := 0; i < 4; i++ {
		item := newStoredItem(t, userID)
		item.NextReviewAt = now.Add(-time.Duration(i+1) * time.Hour)
		require.NoError(t, f.store.Create(ctx, item))
		overdue = append(overdue, item)
	}
	future := newStoredItem(t, userID)
	future.NextReviewAt = now.Add(24 * time.Hour)
	require.NoError(t, f.store.Create(ctx, future))

	// Another user's items never leak in
	require.NoError(t, f.store.Create(ctx, newStoredItem(t, uuid.New())))

	t.Run("default size", func(t *testing.T) {
		queue, err := f.svc.GetDueQueue(ctx, userID, now, 0)
		require.NoError(t, err)
		require.Len(t, queue, 2)
		assert.Equal(t, overdue[3].ItemID, queue[0].ItemID)
		assert.Equal(t, overdue[2].ItemID, queue[1].ItemID)
	})

	t.Run("capped at max size", func(t *testing.T) {
		queue, err := f.svc.GetDueQueue(ctx, userID, now, 50)
		require.NoError(t, err)
		assert.Len(t, queue, 3)
	})

	t.Run("explicit size", func(t *testing.T) {
		queue, err := f.svc.GetDueQueue(ctx, userID, now, 1)
		require.NoError(t, err)
		require.Len(t, queue, 1)
		assert.Equal(t, overdue[3].ItemID, queue[0].ItemID)
	})

	t.Run("unknown user", func(t *testing.T) {
		queue, err := f.svc.GetDueQueue(ctx, uuid.New(), now, 0)
		require.NoError(t, err)
		assert.Empty(t, queue)
	})

	t.Run("storage failure", func(t *testing.T) {
		boom := errors.New("boom")
		svc := review.NewReviewService(&mocks.MockReviewItemStore{Err: boom}, srs.NewDefaultService(), nil, testConfig(), nil)
		_, err := svc.GetDueQueue(ctx, userID, now, 0)
		assert.ErrorIs(t, err, boom)
	})
}

func TestGetSummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	now := time.Now().UTC()

	summary, err := f.svc.GetSummary(ctx, userID, now)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalItems)
	assert.InDelta(t, 100.0, summary.AverageAccuracy, 1e-9)
	assert.Equal(t, []srs.Recommendation{
		srs.RecommendationAllCaughtUp,
		srs.RecommendationSmallDeck,
	}, summary.Recommendations)

	item := newStoredItem(t, userID)
	require.NoError(t, f.store.Create(ctx, item))

	summary, err = f.svc.GetSummary(ctx, userID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalItems)
	assert.Equal(t, 1, summary.DueItems)
	assert.Equal(t, 1, summary.NewItems)
	assert.Equal(t, []srs.Recommendation{srs.RecommendationSmallDeck}, summary.Recommendations)
	assert.True(t, summary.GeneratedAt.Equal(now))
}

func TestGetRecommendations(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	assert.Equal(t, []srs.Recommendation{
		srs.RecommendationManyItemsDue,
		srs.RecommendationLowAccuracy,
		srs.RecommendationSmallDeck,
	}, f.svc.GetRecommendations(15, 11, 50))
	assert.Empty(t, f.svc.GetRecommendations(40, 5, 90))
}

func TestTimestampsUseStoragePrecision(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()

	introduced, err := f.svc.IntroduceItem(ctx, userID, uuid.New(), domain.ItemTypeVocabulary, "es")
	require.NoError(t, err)
	assert.Zero(t, introduced.CreatedAt.Nanosecond()%int(time.Microsecond))
	assert.Zero(t, introduced.NextReviewAt.Nanosecond()%int(time.Microsecond))

	updated, err := f.svc.SubmitReview(ctx, userID, introduced.ItemID, mustInput(t, 5))
	require.NoError(t, err)

	for name, ts := range map[string]time.Time{
		"last_reviewed_at": updated.LastReviewedAt,
		"next_review_at":   updated.NextReviewAt,
		"updated_at":       updated.UpdatedAt,
	} {
		assert.Zero(t, ts.Nanosecond()%int(time.Microsecond), name)
		assert.Equal(t, time.UTC, ts.Location(), name)
	}

	stored, err := f.store.Get(ctx, userID, introduced.ItemID)
	require.NoError(t, err)
	assert.True(t, stored.LastReviewedAt.Equal(updated.LastReviewedAt))
	assert.True(t, stored.NextReviewAt.Equal(updated.NextReviewAt))
	assert.True(t, stored.UpdatedAt.Equal(updated.UpdatedAt))
}
