package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/phrazzld/scry-srs/internal/domain/srs"
	"github.com/phrazzld/scry-srs/internal/service/review"
)

// IntroduceItemRequest defines the payload for starting to schedule an item.
type IntroduceItemRequest struct {
	ItemID       string `json:"item_id"       validate:"required,uuid"`
	ItemType     string `json:"item_type"     validate:"required,oneof=vocabulary grammar phrase"`
	LanguageCode string `json:"language_code" validate:"required,min=2,max=16"`
}

// SubmitReviewRequest defines the payload for recording one review.
// Quality is a pointer so that a score of 0 is distinguishable from a missing field.
type SubmitReviewRequest struct {
	Quality        *int   `json:"quality"          validate:"required,min=0,max=5"`
	ResponseTimeMs int64  `json:"response_time_ms" validate:"required,gt=0"`
	HintsUsed      int    `json:"hints_used"       validate:"gte=0"`
	Attempts       int    `json:"attempts"         validate:"required,gte=1"`
	Difficulty     string `json:"difficulty"       validate:"required,oneof=easy medium hard very_hard"`
}

// ToPerformanceInput converts the request into validated review telemetry.
func (r *SubmitReviewRequest) ToPerformanceInput() (domain.PerformanceInput, error) {
	quality := -1
	if r.Quality != nil {
		quality = *r.Quality
	}
	return domain.NewPerformanceInput(
		quality,
		r.ResponseTimeMs,
		r.HintsUsed,
		r.Attempts,
		domain.Difficulty(r.Difficulty),
	)
}

// ReviewItemResponse represents the schedule of one item.
type ReviewItemResponse struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	ItemID         uuid.UUID  `json:"item_id"`
	ItemType       string     `json:"item_type"`
	LanguageCode   string     `json:"language_code"`
	EaseFactor     float64    `json:"ease_factor"`
	IntervalDays   int        `json:"interval_days"`
	Repetitions    int        `json:"repetitions"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	Quality        int        `json:"quality"`
	AverageQuality float64    `json:"average_quality"`
	TotalReviews   int        `json:"total_reviews"`
	Version        int        `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func reviewItemToResponse(item *domain.ReviewItem) ReviewItemResponse {
	resp := ReviewItemResponse{
		ID:             item.ID,
		UserID:         item.UserID,
		ItemID:         item.ItemID,
		ItemType:       string(item.ItemType),
		LanguageCode:   item.LanguageCode,
		EaseFactor:     item.EaseFactor,
		IntervalDays:   item.Interval,
		Repetitions:    item.Repetitions,
		NextReviewAt:   item.NextReviewAt,
		Quality:        item.Quality,
		AverageQuality: item.AverageQuality,
		TotalReviews:   item.TotalReviews,
		Version:        item.Version(),
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
	if !item.LastReviewedAt.IsZero() {
		lastReviewed := item.LastReviewedAt
		resp.LastReviewedAt = &lastReviewed
	}
	return resp
}

// QueueResponse lists the items of a review session, most urgent first.
type QueueResponse struct {
	Items []ReviewItemResponse `json:"items"`
	Count int                  `json:"count"`
}

// RecommendationResponse is one piece of study guidance.
type RecommendationResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RecommendationsResponse wraps the guidance derived from statistics.
type RecommendationsResponse struct {
	Recommendations []RecommendationResponse `json:"recommendations"`
}

func recommendationsToResponse(recs []srs.Recommendation) []RecommendationResponse {
	out := make([]RecommendationResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, RecommendationResponse{
			Code:    string(rec),
			Message: rec.DefaultMessage(),
		})
	}
	return out
}

// SummaryResponse describes a user's review workload.
type SummaryResponse struct {
	TotalItems      int                      `json:"total_items"`
	DueItems        int                      `json:"due_items"`
	NewItems        int                      `json:"new_items"`
	AverageAccuracy float64                  `json:"average_accuracy"`
	TotalReviews    int                      `json:"total_reviews"`
	Recommendations []RecommendationResponse `json:"recommendations"`
	GeneratedAt     time.Time                `json:"generated_at"`
}

func summaryToResponse(summary *review.Summary) SummaryResponse {
	return SummaryResponse{
		TotalItems:      summary.TotalItems,
		DueItems:        summary.DueItems,
		NewItems:        summary.NewItems,
		AverageAccuracy: summary.AverageAccuracy,
		TotalReviews:    summary.TotalReviews,
		Recommendations: recommendationsToResponse(summary.Recommendations),
		GeneratedAt:     summary.GeneratedAt,
	}
}
