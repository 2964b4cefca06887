package srs

import (
	"math"

	"github.com/phrazzld/scry-srs/internal/domain"
)

// evaluatePerformance turns review telemetry into a bounded interval modifier.
//
// The factors are applied multiplicatively in a fixed order so the result is
// deterministic for identical input:
//   - response time: fast answers earn a bonus, slow answers a penalty
//   - hints: each hint costs HintPenalty, floored at MinHintFactor
//   - extra attempts: each retry costs AttemptPenalty, floored at MinAttemptFactor
//
// The product is clamped to [MinModifier, MaxModifier]. Input must be valid.
func evaluatePerformance(input domain.PerformanceInput, params *PerformanceParams) float64 {
	modifier := 1.0

	switch rt := input.ResponseTimeMs(); {
	case rt < params.FastResponseMs:
		modifier *= params.FastFactor
	case rt > params.SlowResponseMs:
		modifier *= params.SlowFactor
	}

	if hints := input.HintsUsed(); hints > 0 {
		modifier *= math.Max(params.MinHintFactor, 1.0-float64(hints)*params.HintPenalty)
	}

	if attempts := input.Attempts(); attempts > 1 {
		modifier *= math.Max(params.MinAttemptFactor, 1.0-float64(attempts-1)*params.AttemptPenalty)
	}

	return clamp(modifier, params.MinModifier, params.MaxModifier)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
