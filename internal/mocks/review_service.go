package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/phrazzld/scry-srs/internal/domain/srs"
	"github.com/phrazzld/scry-srs/internal/service/review"
	"github.com/stretchr/testify/mock"
)

// Verify interface compliance at compile time
var _ review.Service = (*MockReviewService)(nil)

// MockReviewService is a testify mock of review.Service.
type MockReviewService struct {
	mock.Mock
}

// IntroduceItem implements review.Service.
func (m *MockReviewService) IntroduceItem(
	ctx context.Context,
	userID, itemID uuid.UUID,
	itemType domain.ItemType,
	languageCode string,
) (*domain.ReviewItem, error) {
	args := m.Called(ctx, userID, itemID, itemType, languageCode)
	item, _ := args.Get(0).(*domain.ReviewItem)
	return item, args.Error(1)
}

// GetItem implements review.Service.
func (m *MockReviewService) GetItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewItem, error) {
	args := m.Called(ctx, userID, itemID)
	item, _ := args.Get(0).(*domain.ReviewItem)
	return item, args.Error(1)
}

// SubmitReview implements review.Service.
func (m *MockReviewService) SubmitReview(
	ctx context.Context,
	userID, itemID uuid.UUID,
	input domain.PerformanceInput,
) (*domain.ReviewItem, error) {
	args := m.Called(ctx, userID, itemID, input)
	item, _ := args.Get(0).(*domain.ReviewItem)
	return item, args.Error(1)
}

// GetDueQueue implements review.Service.
func (m *MockReviewService) GetDueQueue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	maxSize int,
) ([]*domain.ReviewItem, error) {
	args := m.Called(ctx, userID, now, maxSize)
	items, _ := args.Get(0).([]*domain.ReviewItem)
	return items, args.Error(1)
}

// GetRecommendations implements review.Service.
func (m *MockReviewService) GetRecommendations(totalItems, itemsDue int, averageAccuracy float64) []srs.Recommendation {
	args := m.Called(totalItems, itemsDue, averageAccuracy)
	recs, _ := args.Get(0).([]srs.Recommendation)
	return recs
}

// GetSummary implements review.Service.
func (m *MockReviewService) GetSummary(ctx context.Context, userID uuid.UUID, now time.Time) (*review.Summary, error) {
	args := m.Called(ctx, userID, now)
	summary, _ := args.Get(0).(*review.Summary)
	return summary, args.Error(1)
}
