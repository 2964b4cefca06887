package srs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/domain"
)

// Common errors
var (
	ErrNilItem = errors.New("review item cannot be nil")
)

// Service defines the interface for SRS algorithm operations.
// Every method is pure: no I/O, no hidden state, safe for concurrent use.
type Service interface {
	// Evaluate turns review telemetry into a performance modifier in [0.7, 1.3].
	// Returns a *domain.ValidationError if input is malformed.
	Evaluate(input domain.PerformanceInput) (float64, error)

	// ApplyReview computes the schedule after one review with a precomputed modifier.
	ApplyReview(
		item *domain.ReviewItem,
		input domain.PerformanceInput,
		modifier float64,
		reviewedAt time.Time,
	) (*domain.ReviewItem, error)

	// SubmitReview evaluates input and applies the review in one step.
	SubmitReview(
		item *domain.ReviewItem,
		input domain.PerformanceInput,
		reviewedAt time.Time,
	) (*domain.ReviewItem, error)

	// ListDue selects and orders the items due at now, keeping at most maxSize.
	ListDue(items []*domain.ReviewItem, now time.Time, maxSize int) []*domain.ReviewItem

	// Summarize aggregates item counts and accuracy for a user's items.
	Summarize(items []*domain.ReviewItem, now time.Time) QueueStats

	// Recommend derives guidance from aggregate statistics.
	Recommend(totalItems, itemsDue int, averageAccuracy float64) []Recommendation

	// NewItem creates the initial schedule for a newly introduced item.
	NewItem(
		userID, itemID uuid.UUID,
		itemType domain.ItemType,
		languageCode string,
		now time.Time,
	) (*domain.ReviewItem, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters.
// A nil params falls back to the defaults.
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// Evaluate implements Service.Evaluate
func (s *defaultService) Evaluate(input domain.PerformanceInput) (float64, error) {
	if err := input.Validate(); err != nil {
		return 0, err
	}
	return evaluatePerformance(input, &s.params.Performance), nil
}

// ApplyReview implements Service.ApplyReview
func (s *defaultService) ApplyReview(
	item *domain.ReviewItem,
	input domain.PerformanceInput,
	modifier float64,
	reviewedAt time.Time,
) (*domain.ReviewItem, error) {
	if item == nil {
		return nil, ErrNilItem
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	modifier = clamp(modifier, s.params.Performance.MinModifier, s.params.Performance.MaxModifier)
	return calculateNextItem(item, input, modifier, reviewedAt, s.params), nil
}

// SubmitReview implements Service.SubmitReview
func (s *defaultService) SubmitReview(
	item *domain.ReviewItem,
	input domain.PerformanceInput,
	reviewedAt time.Time,
) (*domain.ReviewItem, error) {
	modifier, err := s.Evaluate(input)
	if err != nil {
		return nil, err
	}
	return s.ApplyReview(item, input, modifier, reviewedAt)
}

// ListDue implements Service.ListDue
func (s *defaultService) ListDue(items []*domain.ReviewItem, now time.Time, maxSize int) []*domain.ReviewItem {
	return listDue(items, now, maxSize)
}

// Summarize implements Service.Summarize
func (s *defaultService) Summarize(items []*domain.ReviewItem, now time.Time) QueueStats {
	return summarize(items, now)
}

// Recommend implements Service.Recommend
func (s *defaultService) Recommend(totalItems, itemsDue int, averageAccuracy float64) []Recommendation {
	return recommend(totalItems, itemsDue, averageAccuracy, &s.params.Recommendations)
}

// NewItem implements Service.NewItem
func (s *defaultService) NewItem(
	userID, itemID uuid.UUID,
	itemType domain.ItemType,
	languageCode string,
	now time.Time,
) (*domain.ReviewItem, error) {
	item, err := domain.NewReviewItem(userID, itemID, itemType, languageCode, s.params.DefaultEaseFactor, now)
	if err != nil {
		return nil, err
	}
	item.Interval = s.params.InitialInterval
	return item, nil
}
