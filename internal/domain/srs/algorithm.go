package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-srs/internal/domain"
)

// roundingEpsilon absorbs binary representation error so that products which are
// mathematically exactly .5 still round up.
const roundingEpsilon = 1e-9

// calculateNewEaseFactor determines the new ease factor based on the review quality.
//
// The ease factor represents how easy the item is for the user - higher values mean
// intervals grow faster. Passing reviews use the standard SM-2 update
//
//	EF' = EF + (0.1 - (5-q) * (0.08 + (5-q) * 0.02))
//
// which leaves EF unchanged for q=4, raises it for q=5 and lowers it for q=3.
// Qualities at or above params.ExcellentQuality never lower EF.
// Failed reviews subtract params.FailureEasePenalty.
//
// Parameters:
//   - currentEF: The current ease factor of the item
//   - quality: The raw 0-5 review score
//   - params: Configuration parameters for the SRS algorithm
//
// Returns:
//   - The new ease factor, clamped between params.MinEaseFactor and params.MaxEaseFactor
func calculateNewEaseFactor(currentEF float64, quality int, params *Params) float64 {
	var newEF float64
	if quality < params.PassingQuality {
		newEF = currentEF - params.FailureEasePenalty
	} else {
		missing := float64(domain.MaxQuality - quality)
		newEF = currentEF + (0.1 - missing*(0.08+missing*0.02))
		if quality >= params.ExcellentQuality {
			newEF = math.Max(newEF, currentEF)
		}
	}

	return clamp(newEF, params.MinEaseFactor, params.MaxEaseFactor)
}

// calculateNewInterval determines the interval in days after a passing review.
//
// The repetition ladder is fixed for the first two successes and multiplicative
// afterwards:
//   - repetitions == 0: params.SecondInterval
//   - repetitions == 1: params.ThirdInterval
//   - repetitions >= 2: round(previousInterval * easeFactor * performance * difficulty)
//
// Parameters:
//   - previousInterval: The interval in days before this review
//   - repetitions: Consecutive successful reviews before this one
//   - easeFactor: The ease factor the item had when it was reviewed
//   - performance: The bounded modifier produced from the review telemetry
//   - difficulty: Difficulty tag of the reviewed content
//   - params: Configuration parameters for the SRS algorithm
//
// Returns:
//   - The new interval, never less than one day
//
// Both modifiers scale the interval only; they never feed into the ease factor.
func calculateNewInterval(
	previousInterval int,
	repetitions int,
	easeFactor float64,
	performance float64,
	difficulty domain.Difficulty,
	params *Params,
) int {
	switch repetitions {
	case 0:
		return params.SecondInterval
	case 1:
		return params.ThirdInterval
	}

	difficultyModifier, ok := params.DifficultyModifiers[difficulty]
	if !ok {
		difficultyModifier = 1.0
	}

	raw := float64(previousInterval) * easeFactor * performance * difficultyModifier
	interval := roundHalfUp(raw)
	if interval < 1 {
		return 1
	}
	return interval
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5 + roundingEpsilon))
}

// runningMean folds one more observation into a mean over count observations.
func runningMean(mean float64, count int, value int) float64 {
	if count <= 0 {
		return float64(value)
	}
	return (mean*float64(count) + float64(value)) / float64(count+1)
}

// calculateNextItem computes the schedule that results from one review.
//
// The review happens at reviewedAt. The function:
//   - Records the raw quality, running average quality and review counter
//   - On failure (quality < PassingQuality) resets repetitions, sets the
//     initial interval and schedules the item for the next day
//   - On success advances the repetition ladder and schedules the item
//     interval days after reviewedAt
//   - Updates the ease factor within its configured bounds
//
// The input item is never modified; a new item is returned.
func calculateNextItem(
	item *domain.ReviewItem,
	input domain.PerformanceInput,
	performance float64,
	reviewedAt time.Time,
	params *Params,
) *domain.ReviewItem {
	next := *item
	reviewedAt = reviewedAt.UTC()
	quality := input.Quality()

	next.Quality = quality
	next.AverageQuality = runningMean(item.AverageQuality, item.TotalReviews, quality)
	next.TotalReviews = item.TotalReviews + 1
	next.LastReviewedAt = reviewedAt
	next.UpdatedAt = reviewedAt
	next.EaseFactor = calculateNewEaseFactor(item.EaseFactor, quality, params)

	if quality < params.PassingQuality {
		next.Repetitions = 0
		next.Interval = params.InitialInterval
	} else {
		next.Interval = calculateNewInterval(
			item.Interval,
			item.Repetitions,
			clamp(item.EaseFactor, params.MinEaseFactor, params.MaxEaseFactor),
			performance,
			input.Difficulty(),
			params,
		)
		next.Repetitions = item.Repetitions + 1
	}

	next.NextReviewAt = reviewedAt.AddDate(0, 0, next.Interval)
	return &next
}
