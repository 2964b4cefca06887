package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/phrazzld/scry-srs/internal/store"
)

// Verify interface compliance at compile time
var _ store.ReviewItemStore = (*MockReviewItemStore)(nil)

// MockReviewItemStore implements store.ReviewItemStore for testing.
// Each method delegates to its Fn field when set and otherwise returns the
// default values.
type MockReviewItemStore struct {
	CreateFn     func(ctx context.Context, item *domain.ReviewItem) error
	GetFn        func(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewItem, error)
	SaveFn       func(ctx context.Context, item *domain.ReviewItem, expectedVersion int) (int, error)
	ListByUserFn func(ctx context.Context, userID uuid.UUID) ([]*domain.ReviewItem, error)

	// Default response values
	Item  *domain.ReviewItem
	Items []*domain.ReviewItem
	Err   error

	mu    sync.Mutex
	calls map[string]int
	saved []*domain.ReviewItem
}

func (m *MockReviewItemStore) record(method string, saved *domain.ReviewItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
	if saved != nil {
		m.saved = append(m.saved, saved)
	}
}

// Calls returns how many times method was invoked.
func (m *MockReviewItemStore) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// Saved returns the items passed to Save, in call order.
func (m *MockReviewItemStore) Saved() []*domain.ReviewItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.ReviewItem, len(m.saved))
	copy(out, m.saved)
	return out
}

// Create implements store.ReviewItemStore.
func (m *MockReviewItemStore) Create(ctx context.Context, item *domain.ReviewItem) error {
	m.record("Create", nil)
	if m.CreateFn != nil {
		return m.CreateFn(ctx, item)
	}
	return m.Err
}

// Get implements store.ReviewItemStore.
func (m *MockReviewItemStore) Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewItem, error) {
	m.record("Get", nil)
	if m.GetFn != nil {
		return m.GetFn(ctx, userID, itemID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Item == nil {
		return nil, store.ErrReviewItemNotFound
	}
	clone := *m.Item
	return &clone, nil
}

// Save implements store.ReviewItemStore.
func (m *MockReviewItemStore) Save(ctx context.Context, item *domain.ReviewItem, expectedVersion int) (int, error) {
	m.record("Save", item)
	if m.SaveFn != nil {
		return m.SaveFn(ctx, item, expectedVersion)
	}
	if m.Err != nil {
		return 0, m.Err
	}
	return item.TotalReviews, nil
}

// ListByUser implements store.ReviewItemStore.
func (m *MockReviewItemStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ReviewItem, error) {
	m.record("ListByUser", nil)
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Items, nil
}
