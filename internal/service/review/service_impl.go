package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/phrazzld/scry-srs/internal/domain/srs"
	"github.com/phrazzld/scry-srs/internal/events"
	"github.com/phrazzld/scry-srs/internal/platform/logger"
	"github.com/phrazzld/scry-srs/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*reviewServiceImpl)(nil)

// reviewServiceImpl implements the Service interface.
type reviewServiceImpl struct {
	items      store.ReviewItemStore
	srsService srs.Service
	emitter    events.EventEmitter
	config     Config
	logger     *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewReviewService creates a new review Service.
// The emitter may be nil, in which case no events are published.
func NewReviewService(
	items store.ReviewItemStore,
	srsService srs.Service,
	emitter events.EventEmitter,
	config Config,
	logger *slog.Logger,
) Service {
	if items == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("items store cannot be nil")
	}
	if srsService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("srsService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultConfig()
	if config.Retry.MaxAttempts < 1 {
		config.Retry.MaxAttempts = 1
	}
	if config.Queue.MaxSize <= 0 {
		config.Queue.MaxSize = defaults.Queue.MaxSize
	}
	if config.Queue.DefaultSize <= 0 || config.Queue.DefaultSize > config.Queue.MaxSize {
		config.Queue.DefaultSize = min(defaults.Queue.DefaultSize, config.Queue.MaxSize)
	}

	return &reviewServiceImpl{
		items:      items,
		srsService: srsService,
		emitter:    emitter,
		config:     config,
		logger:     logger.With(slog.String("component", "review_service")),
		now:        storageNow,
		sleep:      sleepContext,
	}
}

// storageNow is the current UTC time at the microsecond precision every store
// keeps, so returned items match what a later read yields.
func storageNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// IntroduceItem implements Service.IntroduceItem.
func (s *reviewServiceImpl) IntroduceItem(
	ctx context.Context,
	userID, itemID uuid.UUID,
	itemType domain.ItemType,
	languageCode string,
) (*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()),
	)

	item, err := s.srsService.NewItem(userID, itemID, itemType, languageCode, s.now())
	if err != nil {
		log.Debug("rejected new review item", slog.String("error", err.Error()))
		return nil, err
	}

	err = s.withRetry(ctx, log, "introduce_item", func(ctx context.Context) error {
		return s.items.Create(ctx, item)
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrItemExists
		}
		log.Error("failed to create review item", slog.String("error", err.Error()))
		return nil, NewServiceError("introduce_item", "failed to create review item", err)
	}

	log.Info("introduced review item", slog.String("item_type", string(itemType)))
	return item, nil
}

// GetItem implements Service.GetItem.
func (s *reviewServiceImpl) GetItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var item *domain.ReviewItem
	err := s.withRetry(ctx, log, "get_item", func(ctx context.Context) error {
		var err error
		item, err = s.items.Get(ctx, userID, itemID)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		log.Error("failed to get review item",
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("get_item", "failed to get review item", err)
	}
	return item, nil
}

// SubmitReview implements Service.SubmitReview.
func (s *reviewServiceImpl) SubmitReview(
	ctx context.Context,
	userID, itemID uuid.UUID,
	input domain.PerformanceInput,
) (*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()),
	)

	// Invalid input never reaches storage
	if err := input.Validate(); err != nil {
		log.Debug("invalid review submission", slog.String("error", err.Error()))
		return nil, err
	}

	var updated *domain.ReviewItem
	var reviewedAt time.Time
	err := s.withRetry(ctx, log, "submit_review", func(ctx context.Context) error {
		current, err := s.items.Get(ctx, userID, itemID)
		if err != nil {
			return err
		}

		reviewedAt = s.now()
		next, err := s.srsService.SubmitReview(current, input, reviewedAt)
		if err != nil {
			return err
		}

		version, err := s.items.Save(ctx, next, current.Version())
		if err != nil {
			return err
		}
		next.TotalReviews = version
		updated = next
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrItemNotFound
		case errors.Is(err, domain.ErrValidation):
			return nil, err
		}
		log.Error("failed to submit review", slog.String("error", err.Error()))
		return nil, NewServiceError("submit_review", "failed to record review", err)
	}

	log.Info("review recorded",
		slog.Int("quality", input.Quality()),
		slog.Int("interval", updated.Interval),
		slog.Float64("ease_factor", updated.EaseFactor),
		slog.Int("version", updated.Version()),
	)

	s.publishReviewRecorded(ctx, log, updated, input, reviewedAt)
	return updated, nil
}

// GetDueQueue implements Service.GetDueQueue.
func (s *reviewServiceImpl) GetDueQueue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	maxSize int,
) ([]*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	items, err := s.listByUser(ctx, log, userID)
	if err != nil {
		return nil, NewServiceError("get_due_queue", "failed to list review items", err)
	}

	queue := s.srsService.ListDue(items, now, s.queueSize(maxSize))
	log.Debug("built review queue",
		slog.String("user_id", userID.String()),
		slog.Int("total_items", len(items)),
		slog.Int("queue_size", len(queue)),
	)
	return queue, nil
}

// GetRecommendations implements Service.GetRecommendations.
func (s *reviewServiceImpl) GetRecommendations(totalItems, itemsDue int, averageAccuracy float64) []srs.Recommendation {
	return s.srsService.Recommend(totalItems, itemsDue, averageAccuracy)
}

// GetSummary implements Service.GetSummary.
func (s *reviewServiceImpl) GetSummary(ctx context.Context, userID uuid.UUID, now time.Time) (*Summary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	items, err := s.listByUser(ctx, log, userID)
	if err != nil {
		return nil, NewServiceError("get_summary", "failed to list review items", err)
	}

	stats := s.srsService.Summarize(items, now)
	return &Summary{
		QueueStats:      stats,
		Recommendations: s.srsService.Recommend(stats.TotalItems, stats.DueItems, stats.AverageAccuracy),
		GeneratedAt:     now.UTC(),
	}, nil
}

func (s *reviewServiceImpl) listByUser(
	ctx context.Context,
	log *slog.Logger,
	userID uuid.UUID,
) ([]*domain.ReviewItem, error) {
	var items []*domain.ReviewItem
	err := s.withRetry(ctx, log, "list_items", func(ctx context.Context) error {
		var err error
		items, err = s.items.ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		log.Error("failed to list review items",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}
	return items, nil
}

// queueSize resolves a requested queue size against the configured bounds.
func (s *reviewServiceImpl) queueSize(requested int) int {
	if requested <= 0 {
		return s.config.Queue.DefaultSize
	}
	return min(requested, s.config.Queue.MaxSize)
}

// withRetry runs fn until it succeeds, fails permanently or runs out of attempts.
// Version conflicts and transient storage errors are retried with exponential
// backoff. Exhaustion is reported as ErrConflictRetriesExhausted or
// ErrStorageUnavailable, joined with the last underlying error.
func (s *reviewServiceImpl) withRetry(
	ctx context.Context,
	log *slog.Logger,
	operation string,
	fn func(ctx context.Context) error,
) error {
	var lastErr error
	for attempt := 1; attempt <= s.config.Retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := s.config.Retry.backoff(attempt - 1)
			if err := s.sleep(ctx, delay); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}

		lastErr = err
		log.Warn("retryable storage error",
			slog.String("operation", operation),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", s.config.Retry.MaxAttempts),
			slog.String("error", err.Error()),
		)
	}

	if errors.Is(lastErr, store.ErrConflict) {
		return fmt.Errorf("%w: %w", ErrConflictRetriesExhausted, lastErr)
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, lastErr)
}

func isRetryable(err error) bool {
	return store.IsConflictError(err) || store.IsTransientError(err)
}

// publishReviewRecorded emits the outcome of a review. Failures are logged
// and never undo the review.
func (s *reviewServiceImpl) publishReviewRecorded(
	ctx context.Context,
	log *slog.Logger,
	item *domain.ReviewItem,
	input domain.PerformanceInput,
	reviewedAt time.Time,
) {
	if s.emitter == nil {
		return
	}

	event, err := events.NewReviewRecordedEvent(events.ReviewRecorded{
		UserID:       item.UserID,
		ItemID:       item.ItemID,
		Quality:      input.Quality(),
		Passed:       item.Repetitions > 0,
		Interval:     item.Interval,
		EaseFactor:   item.EaseFactor,
		NextReviewAt: item.NextReviewAt,
		ReviewedAt:   reviewedAt.UTC(),
		Version:      item.Version(),
	})
	if err != nil {
		log.Error("failed to build review event", slog.String("error", err.Error()))
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("review event handler failed",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
