package srs

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(t *testing.T) *domain.ReviewItem {
	t.Helper()
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	item, err := domain.NewReviewItem(uuid.New(), uuid.New(), domain.ItemTypeVocabulary, "es", 2.5, created)
	require.NoError(t, err)
	return item
}

func TestCalculateNewEaseFactor(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		current  float64
		quality  int
		expected float64
	}{
		{"perfect recall raises ease", 2.0, 5, 2.1},
		{"quality four keeps ease", 2.0, 4, 2.0},
		{"quality three lowers ease", 2.0, 3, 1.86},
		{"failure applies flat penalty", 2.0, 2, 1.8},
		{"blackout applies flat penalty", 2.0, 0, 1.8},
		{"ease is capped at max", 2.5, 5, 2.5},
		{"ease is floored at min", 1.4, 0, 1.3},
		{"min ease stays at min on hard pass", 1.3, 3, 1.3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := calculateNewEaseFactor(tc.current, tc.quality, params)
			assert.InDelta(t, tc.expected, got, floatTolerance)
		})
	}
}

func TestExcellentQualityNeverLowersEase(t *testing.T) {
	t.Parallel()

	lowered, err := NewParams(ParamsConfig{ExcellentQuality: 3})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		params *Params
	}{
		{"default threshold", NewDefaultParams()},
		{"threshold lowered to three", lowered},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			params := tc.params
			for ef := params.MinEaseFactor; ef <= params.MaxEaseFactor; ef += 0.05 {
				for q := params.ExcellentQuality; q <= domain.MaxQuality; q++ {
					assert.GreaterOrEqual(t, calculateNewEaseFactor(ef, q, params), ef-floatTolerance,
						"ef %.2f quality %d", ef, q)
				}
			}
		})
	}
}

func TestExcellentThresholdKeepsEaseOnHardPass(t *testing.T) {
	t.Parallel()

	params, err := NewParams(ParamsConfig{ExcellentQuality: 3})
	require.NoError(t, err)

	assert.InDelta(t, 2.0, calculateNewEaseFactor(2.0, 3, params), floatTolerance)
	assert.InDelta(t, 2.1, calculateNewEaseFactor(2.0, 5, params), floatTolerance)
	assert.InDelta(t, 1.8, calculateNewEaseFactor(2.0, 2, params), floatTolerance)
}

func TestCalculateNewInterval(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name        string
		previous    int
		repetitions int
		ef          float64
		performance float64
		difficulty  domain.Difficulty
		expected    int
	}{
		{"first success uses second interval", 1, 0, 2.5, 1.1, domain.DifficultyMedium, 3},
		{"second success uses third interval", 3, 1, 2.5, 0.7, domain.DifficultyVeryHard, 7},
		{"medium rounds half up", 7, 2, 2.5, 1.0, domain.DifficultyMedium, 18}, // 17.5
		{"easy scales up", 7, 2, 2.5, 1.0, domain.DifficultyEasy, 21},
		{"hard scales down", 7, 2, 2.5, 1.0, domain.DifficultyHard, 14},
		{"very hard rounds half up", 7, 2, 2.5, 1.0, domain.DifficultyVeryHard, 11}, // 10.5
		{"performance bonus applies", 10, 3, 2.0, 1.1, domain.DifficultyMedium, 22},
		{"rounds down below half", 10, 4, 1.3, 1.0, domain.DifficultyHard, 10}, // 10.4
		{"never below one day", 1, 5, 1.3, 0.7, domain.DifficultyVeryHard, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := calculateNewInterval(tc.previous, tc.repetitions, tc.ef, tc.performance, tc.difficulty, params)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestCalculateNextItemFirstSuccess(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	item := newTestItem(t)
	reviewedAt := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)

	input := mustInput(t, 4, 3000, 0, 1, domain.DifficultyMedium)
	next := calculateNextItem(item, input, 1.1, reviewedAt, params)

	assert.Equal(t, 3, next.Interval)
	assert.Equal(t, 1, next.Repetitions)
	assert.InDelta(t, 2.5, next.EaseFactor, floatTolerance)
	assert.Equal(t, 4, next.Quality)
	assert.InDelta(t, 4.0, next.AverageQuality, floatTolerance)
	assert.Equal(t, 1, next.TotalReviews)
	assert.True(t, next.LastReviewedAt.Equal(reviewedAt))
	assert.True(t, next.NextReviewAt.Equal(reviewedAt.AddDate(0, 0, 3)))

	// The original is untouched
	assert.Equal(t, 0, item.TotalReviews)
	assert.Equal(t, 1, item.Interval)
	assert.True(t, item.LastReviewedAt.IsZero())
}

func TestCalculateNextItemLadder(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	item := newTestItem(t)
	at := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	input := mustInput(t, 4, 8000, 0, 1, domain.DifficultyMedium)

	expectedIntervals := []int{3, 7, 18, 45}
	for i, expected := range expectedIntervals {
		item = calculateNextItem(item, input, 1.0, at, params)
		assert.Equal(t, expected, item.Interval, "step %d", i)
		assert.Equal(t, i+1, item.Repetitions)
		assert.Equal(t, i+1, item.TotalReviews)
		assert.True(t, item.NextReviewAt.Equal(at.AddDate(0, 0, expected)))
		at = item.NextReviewAt
	}
}

func TestCalculateNextItemFailureResets(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	reviewedAt := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

	item := newTestItem(t)
	item.Repetitions = 6
	item.Interval = 120
	item.EaseFactor = 2.2
	item.TotalReviews = 6
	item.AverageQuality = 4.5

	for quality := 0; quality < params.PassingQuality; quality++ {
		input := mustInput(t, quality, 4000, 0, 1, domain.DifficultyEasy)
		next := calculateNextItem(item, input, 1.3, reviewedAt, params)

		assert.Equal(t, 0, next.Repetitions)
		assert.Equal(t, 1, next.Interval)
		assert.InDelta(t, 2.0, next.EaseFactor, floatTolerance)
		assert.Equal(t, 7, next.TotalReviews)
		assert.InDelta(t, (4.5*6+float64(quality))/7, next.AverageQuality, floatTolerance)
		assert.True(t, next.NextReviewAt.Equal(reviewedAt.AddDate(0, 0, 1)))
	}
}

func TestCalculateNextItemUsesPreReviewEase(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	item := newTestItem(t)
	item.Repetitions = 2
	item.Interval = 10
	item.EaseFactor = 2.0

	// Quality 3 lowers ease to 1.86 but the interval uses 2.0: 10 * 2.0 = 20
	input := mustInput(t, 3, 8000, 0, 1, domain.DifficultyMedium)
	next := calculateNextItem(item, input, 1.0, time.Now(), params)

	assert.Equal(t, 20, next.Interval)
	assert.InDelta(t, 1.86, next.EaseFactor, floatTolerance)
}

func TestRunningMean(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 5.0, runningMean(0, 0, 5), floatTolerance)
	assert.InDelta(t, 4.0, runningMean(5, 1, 3), floatTolerance)
	assert.InDelta(t, 3.0, runningMean(4, 2, 1), floatTolerance)
}

func TestScheduleInvariantsHoldOverManyReviews(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	rng := rand.New(rand.NewSource(42))

	item := newTestItem(t)
	at := item.CreatedAt

	for step := 0; step < 2000; step++ {
		quality := rng.Intn(6)
		input := mustInput(t,
			quality,
			int64(1+rng.Intn(30000)),
			rng.Intn(6),
			1+rng.Intn(5),
			domain.Difficulties[rng.Intn(len(domain.Difficulties))],
		)
		modifier := evaluatePerformance(input, &params.Performance)

		before := item.TotalReviews
		item = calculateNextItem(item, input, modifier, at, params)

		require.GreaterOrEqual(t, item.EaseFactor, params.MinEaseFactor, "step %d", step)
		require.LessOrEqual(t, item.EaseFactor, params.MaxEaseFactor, "step %d", step)
		require.GreaterOrEqual(t, item.Interval, 1, "step %d", step)
		require.GreaterOrEqual(t, item.Repetitions, 0, "step %d", step)
		require.Equal(t, before+1, item.TotalReviews, "step %d", step)
		if quality < params.PassingQuality {
			require.Equal(t, 0, item.Repetitions, "step %d", step)
			require.Equal(t, 1, item.Interval, "step %d", step)
		}
		require.GreaterOrEqual(t, item.AverageQuality, 0.0)
		require.LessOrEqual(t, item.AverageQuality, 5.0)

		// Keep intervals from overflowing time arithmetic over long runs
		if item.Interval > 3650 {
			item.Interval = 3650
		}
		at = item.NextReviewAt
	}
}
