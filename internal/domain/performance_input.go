package domain

import "fmt"

// Difficulty is the content difficulty tag supplied with a review.
type Difficulty string

// Difficulty tags.
const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "very_hard"
)

// Difficulties lists every difficulty tag, easiest first.
var Difficulties = []Difficulty{
	DifficultyEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyVeryHard,
}

// ParseDifficulty converts a raw tag into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(s)
	if !d.Valid() {
		return "", NewValidationError("difficulty", fmt.Sprintf("has unknown value %q", s), nil)
	}
	return d, nil
}

// Valid reports whether d is a known difficulty tag.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyVeryHard:
		return true
	default:
		return false
	}
}

// PerformanceInput is the telemetry of one review. Values are only obtainable
// through NewPerformanceInput, so holders can rely on them being in range.
type PerformanceInput struct {
	quality        int
	responseTimeMs int64
	hintsUsed      int
	attempts       int
	difficulty     Difficulty
}

// NewPerformanceInput validates the raw review telemetry.
// It returns a *ValidationError for the first field out of range.
func NewPerformanceInput(
	quality int,
	responseTimeMs int64,
	hintsUsed int,
	attempts int,
	difficulty Difficulty,
) (PerformanceInput, error) {
	if quality < MinQuality || quality > MaxQuality {
		return PerformanceInput{}, NewValidationError("quality", "must be between 0 and 5", nil)
	}
	if responseTimeMs <= 0 {
		return PerformanceInput{}, NewValidationError("response_time_ms", "must be positive", nil)
	}
	if hintsUsed < 0 {
		return PerformanceInput{}, NewValidationError("hints_used", "cannot be negative", nil)
	}
	if attempts < 1 {
		return PerformanceInput{}, NewValidationError("attempts", "must be at least 1", nil)
	}
	if !difficulty.Valid() {
		return PerformanceInput{}, NewValidationError("difficulty", "must be one of easy, medium, hard, very_hard", nil)
	}

	return PerformanceInput{
		quality:        quality,
		responseTimeMs: responseTimeMs,
		hintsUsed:      hintsUsed,
		attempts:       attempts,
		difficulty:     difficulty,
	}, nil
}

// Quality is the raw 0-5 recall score.
func (p PerformanceInput) Quality() int { return p.quality }

// ResponseTimeMs is the time taken to answer, in milliseconds.
func (p PerformanceInput) ResponseTimeMs() int64 { return p.responseTimeMs }

// HintsUsed is the number of hints revealed before answering.
func (p PerformanceInput) HintsUsed() int { return p.hintsUsed }

// Attempts is the number of answer attempts, at least one.
func (p PerformanceInput) Attempts() int { return p.attempts }

// Difficulty is the difficulty tag of the reviewed content.
func (p PerformanceInput) Difficulty() Difficulty { return p.difficulty }

// Validate re-checks the input. The zero value is invalid.
func (p PerformanceInput) Validate() error {
	_, err := NewPerformanceInput(p.quality, p.responseTimeMs, p.hintsUsed, p.attempts, p.difficulty)
	return err
}
