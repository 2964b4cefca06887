// Package storetest holds behavioural tests shared by every store.ReviewItemStore implementation.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/phrazzld/scry-srs/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) store.ReviewItemStore

// NewItem builds a valid, never reviewed item for userID created at now.
func NewItem(t *testing.T, userID uuid.UUID, now time.Time) *domain.ReviewItem {
	t.Helper()
	item, err := domain.NewReviewItem(userID, uuid.New(), domain.ItemTypeVocabulary, "es", 2.5, now)
	require.NoError(t, err)
	return item
}

// reviewed returns a copy of item as it looks after one more review.
func reviewed(item *domain.ReviewItem, quality int, at time.Time) *domain.ReviewItem {
	next := *item
	next.Quality = quality
	next.AverageQuality = float64(quality)
	next.TotalReviews++
	next.Repetitions++
	next.Interval = 3
	next.LastReviewedAt = at
	next.NextReviewAt = at.AddDate(0, 0, 3)
	next.UpdatedAt = at
	return &next
}

// RunReviewItemStoreTests exercises the ReviewItemStore contract against the stores built by newStore.
func RunReviewItemStoreTests(t *testing.T, newStore Factory) {
	t.Helper()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("create then get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		item := NewItem(t, uuid.New(), now)

		require.NoError(t, s.Create(ctx, item))

		got, err := s.Get(ctx, item.UserID, item.ItemID)
		require.NoError(t, err)
		AssertItemEqual(t, item, got)
	})

	t.Run("create duplicate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		item := NewItem(t, uuid.New(), now)
		require.NoError(t, s.Create(ctx, item))

		dup := *item
		dup.ID = uuid.New()
		err := s.Create(ctx, &dup)
		assert.ErrorIs(t, err, store.ErrReviewItemExists)
	})

	t.Run("create invalid", func(t *testing.T) {
		s := newStore(t)
		item := NewItem(t, uuid.New(), now)
		item.Interval = 0

		err := s.Create(context.Background(), item)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Get(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, store.ErrReviewItemNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})

	t.Run("get is scoped to the user", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		item := NewItem(t, uuid.New(), now)
		require.NoError(t, s.Create(ctx, item))

		_, err := s.Get(ctx, uuid.New(), item.ItemID)
		assert.ErrorIs(t, err, store.ErrReviewItemNotFound)
	})

	t.Run("save with expected version", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		item := NewItem(t, uuid.New(), now)
		require.NoError(t, s.Create(ctx, item))

		next := reviewed(item, 4, now.Add(time.Hour))
		version, err := s.Save(ctx, next, item.Version())
		require.NoError(t, err)
		assert.Equal(t, 1, version)

		got, err := s.Get(ctx, item.UserID, item.ItemID)
		require.NoError(t, err)
		AssertItemEqual(t, next, got)
	})

	t.Run("save with stale version conflicts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		item := NewItem(t, uuid.New(), now)
		require.NoError(t, s.Create(ctx, item))

		first := reviewed(item, 5, now.Add(time.Hour))
		_, err := s.Save(ctx, first, 0)
		require.NoError(t, err)

		stale := reviewed(item, 1, now.Add(2*time.Hour))
		_, err = s.Save(ctx, stale, 0)
		assert.ErrorIs(t, err, store.ErrConflict)

		got, err := s.Get(ctx, item.UserID, item.ItemID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Quality, "losing write must not be applied")
	})

	t.Run("save missing item", func(t *testing.T) {
		s := newStore(t)
		item := NewItem(t, uuid.New(), now)

		_, err := s.Save(context.Background(), reviewed(item, 4, now), 0)
		assert.ErrorIs(t, err, store.ErrReviewItemNotFound)
	})

	t.Run("save invalid", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		item := NewItem(t, uuid.New(), now)
		require.NoError(t, s.Create(ctx, item))

		bad := reviewed(item, 4, now)
		bad.Quality = 9
		_, err := s.Save(ctx, bad, 0)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("save must advance the version by one", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		item := NewItem(t, uuid.New(), now)
		require.NoError(t, s.Create(ctx, item))

		unchanged := reviewed(item, 4, now.Add(time.Hour))
		unchanged.TotalReviews = item.TotalReviews
		_, err := s.Save(ctx, unchanged, item.Version())
		assert.ErrorIs(t, err, store.ErrInvalidEntity)

		skipped := reviewed(item, 4, now.Add(time.Hour))
		skipped.TotalReviews = item.TotalReviews + 2
		_, err = s.Save(ctx, skipped, item.Version())
		assert.ErrorIs(t, err, store.ErrInvalidEntity)

		got, err := s.Get(ctx, item.UserID, item.ItemID)
		require.NoError(t, err)
		AssertItemEqual(t, item, got)
	})

	t.Run("list by user", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		userID := uuid.New()

		empty, err := s.ListByUser(ctx, userID)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		want := map[uuid.UUID]bool{}
		for i := 0; i < 3; i++ {
			item := NewItem(t, userID, now)
			require.NoError(t, s.Create(ctx, item))
			want[item.ItemID] = true
		}
		require.NoError(t, s.Create(ctx, NewItem(t, uuid.New(), now)))

		items, err := s.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, items, 3)
		for _, item := range items {
			assert.Equal(t, userID, item.UserID)
			assert.True(t, want[item.ItemID])
		}
	})

	t.Run("concurrent saves admit one winner per version", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		item := NewItem(t, uuid.New(), now)
		require.NoError(t, s.Create(ctx, item))

		const writers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(q int) {
				defer wg.Done()
				_, err := s.Save(ctx, reviewed(item, q%6, now.Add(time.Minute)), 0)
				if err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
					return
				}
				assert.True(t, store.IsConflictError(err) || store.IsTransientError(err), "unexpected error: %v", err)
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		got, err := s.Get(ctx, item.UserID, item.ItemID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.TotalReviews)
	})
}

// AssertItemEqual compares two review items field by field, using time.Time.Equal for timestamps.
func AssertItemEqual(t *testing.T, want, got *domain.ReviewItem) {
	t.Helper()
	require.NotNil(t, got)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.ItemID, got.ItemID)
	assert.Equal(t, want.ItemType, got.ItemType)
	assert.Equal(t, want.LanguageCode, got.LanguageCode)
	assert.InDelta(t, want.EaseFactor, got.EaseFactor, 1e-9)
	assert.Equal(t, want.Interval, got.Interval)
	assert.Equal(t, want.Repetitions, got.Repetitions)
	assert.Equal(t, want.Quality, got.Quality)
	assert.InDelta(t, want.AverageQuality, got.AverageQuality, 1e-9)
	assert.Equal(t, want.TotalReviews, got.TotalReviews)
	assert.True(t, want.NextReviewAt.Equal(got.NextReviewAt), "next_review_at: want %v got %v", want.NextReviewAt, got.NextReviewAt)
	assert.True(t, want.LastReviewedAt.Equal(got.LastReviewedAt), "last_reviewed_at: want %v got %v", want.LastReviewedAt, got.LastReviewedAt)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %v got %v", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at: want %v got %v", want.UpdatedAt, got.UpdatedAt)
}
