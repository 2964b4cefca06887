package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/phrazzld/scry-srs/internal/store"
)

// timeLayout is fixed-width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const reviewItemColumns = `id, user_id, item_id, item_type, language_code, ease_factor, interval_days,
	repetitions, next_review_at, last_reviewed_at, quality, average_quality, total_reviews,
	created_at, updated_at`

// ReviewItemStore implements store.ReviewItemStore on a SQLite database.
type ReviewItemStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewReviewItemStore creates a SQLite implementation of the ReviewItemStore interface.
// The database must already be migrated. If logger is nil, a default logger will be used.
func NewReviewItemStore(db *sql.DB, logger *slog.Logger) *ReviewItemStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_review_item_store")),
	}
}

// Ensure ReviewItemStore implements store.ReviewItemStore interface
var _ store.ReviewItemStore = (*ReviewItemStore)(nil)

// Create implements store.ReviewItemStore.Create
func (s *ReviewItemStore) Create(ctx context.Context, item *domain.ReviewItem) error {
	if err := item.Validate(); err != nil {
		return store.NewStoreError("review_item", "create", "validation failed",
			errors.Join(store.ErrInvalidEntity, err))
	}

	query := `INSERT INTO review_items (` + reviewItemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		item.ID.String(),
		item.UserID.String(),
		item.ItemID.String(),
		string(item.ItemType),
		item.LanguageCode,
		item.EaseFactor,
		item.Interval,
		item.Repetitions,
		formatTime(item.NextReviewAt),
		nullableTime(item.LastReviewedAt),
		item.Quality,
		item.AverageQuality,
		item.TotalReviews,
		formatTime(item.CreatedAt),
		formatTime(item.UpdatedAt),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrReviewItemExists
		}
		s.logger.Error("failed to insert review item",
			slog.String("item_id", item.ItemID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("review_item", "create", "insert failed", MapError(err))
	}

	return nil
}

// Get implements store.ReviewItemStore.Get
func (s *ReviewItemStore) Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewItem, error) {
	query := `SELECT ` + reviewItemColumns + ` FROM review_items WHERE user_id = ? AND item_id = ?`

	item, err := scanReviewItem(s.db.QueryRowContext(ctx, query, userID.String(), itemID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewItemNotFound
		}
		s.logger.Error("failed to get review item",
			slog.String("item_id", itemID.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("review_item", "get", "query failed", MapError(err))
	}
	return item, nil
}

// Save implements store.ReviewItemStore.Save
func (s *ReviewItemStore) Save(ctx context.Context, item *domain.ReviewItem, expectedVersion int) (int, error) {
	if err := item.Validate(); err != nil {
		return 0, store.NewStoreError("review_item", "save", "validation failed",
			errors.Join(store.ErrInvalidEntity, err))
	}

	if err := store.CheckNextVersion(item, expectedVersion); err != nil {
		return 0, err
	}

	updateQuery := `UPDATE review_items
		SET ease_factor = ?, interval_days = ?, repetitions = ?, next_review_at = ?,
			last_reviewed_at = ?, quality = ?, average_quality = ?, total_reviews = ?, updated_at = ?
		WHERE user_id = ? AND item_id = ? AND total_reviews = ?`

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, updateQuery,
			item.EaseFactor,
			item.Interval,
			item.Repetitions,
			formatTime(item.NextReviewAt),
			nullableTime(item.LastReviewedAt),
			item.Quality,
			item.AverageQuality,
			item.TotalReviews,
			formatTime(item.UpdatedAt),
			item.UserID.String(),
			item.ItemID.String(),
			expectedVersion,
		)
		if err != nil {
			return MapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return MapError(err)
		}
		if affected > 0 {
			return nil
		}

		var actual int
		err = tx.QueryRowContext(ctx,
			`SELECT total_reviews FROM review_items WHERE user_id = ? AND item_id = ?`,
			item.UserID.String(), item.ItemID.String(),
		).Scan(&actual)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrReviewItemNotFound
		}
		if err != nil {
			return MapError(err)
		}

		s.logger.Debug("version conflict on save",
			slog.String("item_id", item.ItemID.String()),
			slog.Int("expected_version", expectedVersion),
			slog.Int("actual_version", actual))
		return store.ErrConflict
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrReviewItemNotFound) {
			return 0, err
		}
		s.logger.Error("failed to save review item",
			slog.String("item_id", item.ItemID.String()),
			slog.String("error", err.Error()))
		return 0, store.NewStoreError("review_item", "save", "update failed", MapError(err))
	}

	return item.TotalReviews, nil
}

// ListByUser implements store.ReviewItemStore.ListByUser
func (s *ReviewItemStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ReviewItem, error) {
	query := `SELECT ` + reviewItemColumns + ` FROM review_items WHERE user_id = ?`

	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, store.NewStoreError("review_item", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	items := make([]*domain.ReviewItem, 0)
	for rows.Next() {
		item, err := scanReviewItem(rows)
		if err != nil {
			return nil, store.NewStoreError("review_item", "list", "scan failed", MapError(err))
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("review_item", "list", "row iteration failed", MapError(err))
	}

	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReviewItem(row rowScanner) (*domain.ReviewItem, error) {
	var (
		item                             domain.ReviewItem
		id, userID, itemID, itemType     string
		nextReview, createdAt, updatedAt string
		lastReviewed                     sql.NullString
	)

	err := row.Scan(
		&id,
		&userID,
		&itemID,
		&itemType,
		&item.LanguageCode,
		&item.EaseFactor,
		&item.Interval,
		&item.Repetitions,
		&nextReview,
		&lastReviewed,
		&item.Quality,
		&item.AverageQuality,
		&item.TotalReviews,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.ItemType = domain.ItemType(itemType)
	if item.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", id, err)
	}
	if item.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("invalid user_id %q: %w", userID, err)
	}
	if item.ItemID, err = uuid.Parse(itemID); err != nil {
		return nil, fmt.Errorf("invalid item_id %q: %w", itemID, err)
	}
	if item.NextReviewAt, err = parseTime(nextReview); err != nil {
		return nil, err
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if lastReviewed.Valid {
		if item.LastReviewedAt, err = parseTime(lastReviewed.String); err != nil {
			return nil, err
		}
	}

	return &item, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
