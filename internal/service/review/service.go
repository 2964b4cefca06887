// Package review orchestrates the scheduling engine against persistent storage:
// it loads review items, applies the pure srs computations and writes results
// back with optimistic concurrency, retrying conflicts and transient failures.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/phrazzld/scry-srs/internal/domain/srs"
)

// Service is the application-facing API of the review scheduler.
type Service interface {
	// IntroduceItem starts scheduling an item the user has just been shown.
	// The new item is due immediately.
	//
	// Returns:
	//   - (*domain.ReviewItem, nil): the created item
	//   - (nil, ErrItemExists): the user already has a schedule for itemID
	//   - (nil, *domain.ValidationError): itemType or languageCode is invalid
	IntroduceItem(
		ctx context.Context,
		userID, itemID uuid.UUID,
		itemType domain.ItemType,
		languageCode string,
	) (*domain.ReviewItem, error)

	// GetItem returns the current schedule of one item.
	// Returns ErrItemNotFound if the user has no schedule for itemID.
	GetItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewItem, error)

	// SubmitReview records one review outcome and returns the updated schedule.
	//
	// The item is loaded, recomputed and saved conditionally on the version it
	// was loaded with. Version conflicts and transient storage failures are
	// retried with exponential backoff.
	//
	// Error Handling:
	//   - *domain.ValidationError when input is invalid; nothing is written
	//   - ErrItemNotFound when the user has no schedule for itemID
	//   - ErrConflictRetriesExhausted when every attempt lost a concurrent update
	//   - ErrStorageUnavailable when every attempt failed transiently
	SubmitReview(
		ctx context.Context,
		userID, itemID uuid.UUID,
		input domain.PerformanceInput,
	) (*domain.ReviewItem, error)

	// GetDueQueue returns the items due at now, most urgent first.
	// maxSize <= 0 selects the configured default size; larger values are
	// capped at the configured maximum.
	GetDueQueue(ctx context.Context, userID uuid.UUID, now time.Time, maxSize int) ([]*domain.ReviewItem, error)

	// GetRecommendations derives study guidance from aggregate statistics.
	GetRecommendations(totalItems, itemsDue int, averageAccuracy float64) []srs.Recommendation

	// GetSummary aggregates the user's items and the guidance derived from them.
	GetSummary(ctx context.Context, userID uuid.UUID, now time.Time) (*Summary, error)
}

// Summary is a snapshot of a user's review workload.
type Summary struct {
	srs.QueueStats
	Recommendations []srs.Recommendation `json:"recommendations"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

// Common error types for the review Service
var (
	// ErrItemNotFound indicates that the user has no schedule for the item.
	ErrItemNotFound = errors.New("review item not found")

	// ErrItemExists indicates that the user already has a schedule for the item.
	ErrItemExists = errors.New("review item already exists")

	// ErrConflictRetriesExhausted indicates that every attempt lost a concurrent update.
	ErrConflictRetriesExhausted = errors.New("too many concurrent updates to review item")

	// ErrStorageUnavailable indicates that storage kept failing transiently.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ServiceError wraps errors from the review service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "submit_review", "get_due_queue")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError for operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// RetryConfig bounds the retries of a storage operation.
// Attempt n (n >= 2) waits BaseDelay * 2^(n-2), capped at MaxDelay.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// QueueConfig bounds the size of a review session.
type QueueConfig struct {
	DefaultSize int
	MaxSize     int
}

// Config holds the tunables of the review service.
type Config struct {
	Retry RetryConfig
	Queue QueueConfig
}

// DefaultConfig returns the configuration used when no overrides are given.
func DefaultConfig() Config {
	return Config{
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   50 * time.Millisecond,
			MaxDelay:    time.Second,
		},
		Queue: QueueConfig{
			DefaultSize: 20,
			MaxSize:     100,
		},
	}
}

// backoff returns the delay before retry number n (n >= 1).
func (c RetryConfig) backoff(n int) time.Duration {
	if c.BaseDelay <= 0 || n < 1 {
		return 0
	}
	delay := c.BaseDelay
	for i := 1; i < n; i++ {
		delay *= 2
		if c.MaxDelay > 0 && delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}
