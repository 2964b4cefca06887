// Package memory provides an in-process implementation of store.ReviewItemStore
// for development and tests. Data does not survive a restart.
package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/phrazzld/scry-srs/internal/store"
)

type itemKey struct {
	userID uuid.UUID
	itemID uuid.UUID
}

// ReviewItemStore implements store.ReviewItemStore with a mutex-guarded map.
// Items are copied on the way in and out, so callers never share state with the store.
type ReviewItemStore struct {
	mu     sync.RWMutex
	items  map[itemKey]domain.ReviewItem
	logger *slog.Logger
}

// NewReviewItemStore creates an empty store.
// If logger is nil, slog.Default() is used.
func NewReviewItemStore(logger *slog.Logger) *ReviewItemStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewItemStore{
		items:  make(map[itemKey]domain.ReviewItem),
		logger: logger.With(slog.String("component", "memory_review_item_store")),
	}
}

// Ensure ReviewItemStore implements store.ReviewItemStore interface
var _ store.ReviewItemStore = (*ReviewItemStore)(nil)

// Create implements store.ReviewItemStore.
func (s *ReviewItemStore) Create(ctx context.Context, item *domain.ReviewItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return store.NewStoreError("review_item", "create", "validation failed",
			errors.Join(store.ErrInvalidEntity, err))
	}

	key := itemKey{userID: item.UserID, itemID: item.ItemID}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[key]; exists {
		return store.ErrReviewItemExists
	}
	s.items[key] = *item

	s.logger.Debug("review item created",
		slog.String("user_id", item.UserID.String()),
		slog.String("item_id", item.ItemID.String()))
	return nil
}

// Get implements store.ReviewItemStore.
func (s *ReviewItemStore) Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemKey{userID: userID, itemID: itemID}]
	if !ok {
		return nil, store.ErrReviewItemNotFound
	}
	return &item, nil
}

// Save implements store.ReviewItemStore.
func (s *ReviewItemStore) Save(ctx context.Context, item *domain.ReviewItem, expectedVersion int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := item.Validate(); err != nil {
		return 0, store.NewStoreError("review_item", "save", "validation failed",
			errors.Join(store.ErrInvalidEntity, err))
	}

	if err := store.CheckNextVersion(item, expectedVersion); err != nil {
		return 0, err
	}

	key := itemKey{userID: item.UserID, itemID: item.ItemID}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.items[key]
	if !ok {
		return 0, store.ErrReviewItemNotFound
	}
	if current.TotalReviews != expectedVersion {
		s.logger.Debug("version conflict on save",
			slog.String("item_id", item.ItemID.String()),
			slog.Int("expected_version", expectedVersion),
			slog.Int("actual_version", current.TotalReviews))
		return 0, store.ErrConflict
	}

	updated := *item
	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	s.items[key] = updated

	return updated.TotalReviews, nil
}

// ListByUser implements store.ReviewItemStore.
func (s *ReviewItemStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ReviewItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*domain.ReviewItem, 0)
	for key, item := range s.items {
		if key.userID == userID {
			items = append(items, &item)
		}
	}
	return items, nil
}
