package srs

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-srs/internal/domain"
)

// ErrInvalidParams is returned when a parameter set violates its own bounds.
var ErrInvalidParams = errors.New("invalid srs parameters")

// Params defines all configurable parameters for the SRS algorithm.
// A Params value is built once at load time and treated as immutable afterwards.
type Params struct {
	// Ease factor limits and the value new items start with
	DefaultEaseFactor float64
	MinEaseFactor     float64
	MaxEaseFactor     float64

	// Ease factor penalty applied on a failed review
	FailureEasePenalty float64

	// Fixed intervals (days) for the first steps of the repetition ladder
	InitialInterval int
	SecondInterval  int
	ThirdInterval   int

	// Quality thresholds
	PassingQuality   int
	ExcellentQuality int

	// Interval scaling per difficulty tag
	DifficultyModifiers map[domain.Difficulty]float64

	Performance     PerformanceParams
	Recommendations RecommendationParams
}

// PerformanceParams controls how review telemetry becomes a performance modifier.
type PerformanceParams struct {
	FastResponseMs int64
	SlowResponseMs int64
	FastFactor     float64
	SlowFactor     float64

	HintPenalty   float64
	MinHintFactor float64

	AttemptPenalty   float64
	MinAttemptFactor float64

	MinModifier float64
	MaxModifier float64
}

// RecommendationParams holds the thresholds of the guidance rules.
type RecommendationParams struct {
	ManyDueThreshold     int
	LowAccuracyThreshold float64
	SmallDeckThreshold   int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the default.
type ParamsConfig struct {
	DefaultEaseFactor  float64
	MinEaseFactor      float64
	MaxEaseFactor      float64
	FailureEasePenalty float64

	InitialInterval int
	SecondInterval  int
	ThirdInterval   int

	PassingQuality   int
	ExcellentQuality int

	EasyModifier     float64
	MediumModifier   float64
	HardModifier     float64
	VeryHardModifier float64
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		DefaultEaseFactor:  2.5,
		MinEaseFactor:      1.3,
		MaxEaseFactor:      2.5,
		FailureEasePenalty: 0.2,

		InitialInterval: 1,
		SecondInterval:  3,
		ThirdInterval:   7,

		PassingQuality:   3,
		ExcellentQuality: 4,

		DifficultyModifiers: map[domain.Difficulty]float64{
			domain.DifficultyEasy:     1.2,
			domain.DifficultyMedium:   1.0,
			domain.DifficultyHard:     0.8,
			domain.DifficultyVeryHard: 0.6,
		},

		Performance: PerformanceParams{
			FastResponseMs:   5000,
			SlowResponseMs:   15000,
			FastFactor:       1.1,
			SlowFactor:       0.9,
			HintPenalty:      0.05,
			MinHintFactor:    0.8,
			AttemptPenalty:   0.05,
			MinAttemptFactor: 0.9,
			MinModifier:      0.7,
			MaxModifier:      1.3,
		},

		Recommendations: RecommendationParams{
			ManyDueThreshold:     10,
			LowAccuracyThreshold: 70,
			SmallDeckThreshold:   20,
		},
	}
}

// NewParams creates a new Params instance with custom configuration.
// It returns ErrInvalidParams if the resulting set is inconsistent.
func NewParams(config ParamsConfig) (*Params, error) {
	params := NewDefaultParams()

	if config.DefaultEaseFactor > 0 {
		params.DefaultEaseFactor = config.DefaultEaseFactor
	}
	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.MaxEaseFactor > 0 {
		params.MaxEaseFactor = config.MaxEaseFactor
	}
	if config.FailureEasePenalty > 0 {
		params.FailureEasePenalty = config.FailureEasePenalty
	}

	if config.InitialInterval > 0 {
		params.InitialInterval = config.InitialInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}
	if config.ThirdInterval > 0 {
		params.ThirdInterval = config.ThirdInterval
	}

	if config.PassingQuality > 0 {
		params.PassingQuality = config.PassingQuality
	}
	if config.ExcellentQuality > 0 {
		params.ExcellentQuality = config.ExcellentQuality
	}

	if config.EasyModifier > 0 {
		params.DifficultyModifiers[domain.DifficultyEasy] = config.EasyModifier
	}
	if config.MediumModifier > 0 {
		params.DifficultyModifiers[domain.DifficultyMedium] = config.MediumModifier
	}
	if config.HardModifier > 0 {
		params.DifficultyModifiers[domain.DifficultyHard] = config.HardModifier
	}
	if config.VeryHardModifier > 0 {
		params.DifficultyModifiers[domain.DifficultyVeryHard] = config.VeryHardModifier
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Validate checks that the parameter set is internally consistent.
func (p *Params) Validate() error {
	if p.MinEaseFactor <= 1.0 || p.MinEaseFactor > p.MaxEaseFactor {
		return fmt.Errorf("%w: ease factor bounds [%.2f, %.2f]", ErrInvalidParams, p.MinEaseFactor, p.MaxEaseFactor)
	}
	if p.DefaultEaseFactor < p.MinEaseFactor || p.DefaultEaseFactor > p.MaxEaseFactor {
		return fmt.Errorf("%w: default ease factor %.2f outside [%.2f, %.2f]",
			ErrInvalidParams, p.DefaultEaseFactor, p.MinEaseFactor, p.MaxEaseFactor)
	}
	if p.InitialInterval < 1 || p.SecondInterval < 1 || p.ThirdInterval < 1 {
		return fmt.Errorf("%w: intervals must be at least one day", ErrInvalidParams)
	}
	if p.PassingQuality < domain.MinQuality || p.PassingQuality > domain.MaxQuality {
		return fmt.Errorf("%w: passing quality %d", ErrInvalidParams, p.PassingQuality)
	}
	if p.ExcellentQuality < p.PassingQuality || p.ExcellentQuality > domain.MaxQuality {
		return fmt.Errorf("%w: excellent quality %d", ErrInvalidParams, p.ExcellentQuality)
	}
	for _, d := range domain.Difficulties {
		if m, ok := p.DifficultyModifiers[d]; !ok || m <= 0 {
			return fmt.Errorf("%w: missing or non-positive modifier for %s", ErrInvalidParams, d)
		}
	}
	if p.Performance.MinModifier <= 0 || p.Performance.MinModifier > p.Performance.MaxModifier {
		return fmt.Errorf("%w: performance modifier bounds", ErrInvalidParams)
	}
	return nil
}
