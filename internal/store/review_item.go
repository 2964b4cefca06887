package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/domain"
)

// ReviewItemStore persists the scheduling state of review items.
//
// A review item is keyed by (UserID, ItemID). Its TotalReviews field is the
// version used for optimistic concurrency: Save only succeeds when the
// persisted version equals expectedVersion.
//
// Implementations must be safe for concurrent use.
type ReviewItemStore interface {
	// Create inserts a review item for an item the user has just been introduced to.
	// Returns ErrReviewItemExists if the user already has one for item.ItemID,
	// or ErrInvalidEntity if the item fails validation.
	Create(ctx context.Context, item *domain.ReviewItem) error

	// Get retrieves the review item of userID for itemID.
	// Returns ErrReviewItemNotFound if there is none.
	Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewItem, error)

	// Save writes item if the stored version equals expectedVersion and
	// returns the new version (item.TotalReviews), which must be
	// expectedVersion+1.
	// Returns ErrInvalidEntity for an invalid item or version, ErrConflict on
	// a version mismatch, ErrReviewItemNotFound if the item does not exist,
	// ErrTransient for retryable storage failures.
	Save(ctx context.Context, item *domain.ReviewItem, expectedVersion int) (int, error)

	// ListByUser returns every review item owned by userID, in no particular order.
	// Returns an empty slice if the user has none.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ReviewItem, error)
}

// CheckNextVersion returns an ErrInvalidEntity error unless item carries the
// version directly after expectedVersion. Saves that do not advance the
// version would defeat the conflict check.
func CheckNextVersion(item *domain.ReviewItem, expectedVersion int) error {
	if item.TotalReviews == expectedVersion+1 {
		return nil
	}
	return NewStoreError("review_item", "save",
		fmt.Sprintf("version %d does not follow expected version %d", item.TotalReviews, expectedVersion),
		ErrInvalidEntity)
}
