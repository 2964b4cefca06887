package srs

// Recommendation is a canonical guidance identifier. Rendering it for a user is
// left to the presentation layer; DefaultMessage is an English fallback.
type Recommendation string

// Guidance identifiers, in evaluation order.
const (
	RecommendationManyItemsDue Recommendation = "many_items_due"
	RecommendationLowAccuracy  Recommendation = "low_accuracy"
	RecommendationAllCaughtUp  Recommendation = "all_caught_up"
	RecommendationSmallDeck    Recommendation = "small_deck"
)

var defaultMessages = map[Recommendation]string{
	RecommendationManyItemsDue: "You have many items to review. Try a longer session today.",
	RecommendationLowAccuracy:  "Your accuracy is below 70%. Slow down and review the missed items again.",
	RecommendationAllCaughtUp:  "You're all caught up. Come back later or learn something new.",
	RecommendationSmallDeck:    "You have fewer than 20 items. Add more to make the most of your reviews.",
}

// DefaultMessage returns the English fallback text for r.
func (r Recommendation) DefaultMessage() string {
	return defaultMessages[r]
}

// recommend applies every guidance rule independently, in a fixed order.
// The result is never nil.
func recommend(totalItems, itemsDue int, averageAccuracy float64, params *RecommendationParams) []Recommendation {
	out := make([]Recommendation, 0, 4)

	if itemsDue > params.ManyDueThreshold {
		out = append(out, RecommendationManyItemsDue)
	}
	if averageAccuracy < params.LowAccuracyThreshold {
		out = append(out, RecommendationLowAccuracy)
	}
	if itemsDue == 0 {
		out = append(out, RecommendationAllCaughtUp)
	}
	if totalItems < params.SmallDeckThreshold {
		out = append(out, RecommendationSmallDeck)
	}

	return out
}
