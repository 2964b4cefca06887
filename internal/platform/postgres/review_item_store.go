package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/phrazzld/scry-srs/internal/store"
)

const reviewItemColumns = `id, user_id, item_id, item_type, language_code, ease_factor, interval_days,
	repetitions, next_review_at, last_reviewed_at, quality, average_quality, total_reviews,
	created_at, updated_at`

// PostgresReviewItemStore implements the store.ReviewItemStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewItemStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresReviewItemStore creates a new PostgreSQL implementation of the ReviewItemStore interface.
// It accepts a database connection pool that is initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresReviewItemStore(db *sql.DB, logger *slog.Logger) *PostgresReviewItemStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_item_store")),
	}
}

// Ensure PostgresReviewItemStore implements store.ReviewItemStore interface
var _ store.ReviewItemStore = (*PostgresReviewItemStore)(nil)

// Create implements store.ReviewItemStore.Create
func (s *PostgresReviewItemStore) Create(ctx context.Context, item *domain.ReviewItem) error {
	log := s.logger.With(
		slog.String("user_id", item.UserID.String()),
		slog.String("item_id", item.ItemID.String()))

	if err := item.Validate(); err != nil {
		log.Warn("review item validation failed during create", slog.String("error", err.Error()))
		return store.NewStoreError("review_item", "create", "validation failed",
			errors.Join(store.ErrInvalidEntity, err))
	}

	query := `INSERT INTO review_items (` + reviewItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := s.db.ExecContext(ctx, query,
		item.ID,
		item.UserID,
		item.ItemID,
		string(item.ItemType),
		item.LanguageCode,
		item.EaseFactor,
		item.Interval,
		item.Repetitions,
		item.NextReviewAt.UTC(),
		nullTime(item.LastReviewedAt),
		item.Quality,
		item.AverageQuality,
		item.TotalReviews,
		item.CreatedAt.UTC(),
		item.UpdatedAt.UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("review item already exists")
			return store.ErrReviewItemExists
		}
		log.Error("failed to insert review item", slog.String("error", err.Error()))
		return store.NewStoreError("review_item", "create", "insert failed", MapError(err))
	}

	log.Debug("review item created", slog.String("id", item.ID.String()))
	return nil
}

// Get implements store.ReviewItemStore.Get
func (s *PostgresReviewItemStore) Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewItem, error) {
	query := `SELECT ` + reviewItemColumns + `
		FROM review_items
		WHERE user_id = $1 AND item_id = $2`

	item, err := scanReviewItem(s.db.QueryRowContext(ctx, query, userID, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewItemNotFound
		}
		s.logger.Error("failed to get review item",
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("review_item", "get", "query failed", MapError(err))
	}

	return item, nil
}

// Save implements store.ReviewItemStore.Save
//
// The write is a single conditional UPDATE on total_reviews. When it matches no
// row, a follow-up read in the same transaction tells a missing item apart
// from a version conflict.
func (s *PostgresReviewItemStore) Save(ctx context.Context, item *domain.ReviewItem, expectedVersion int) (int, error) {
	log := s.logger.With(
		slog.String("user_id", item.UserID.String()),
		slog.String("item_id", item.ItemID.String()),
		slog.Int("expected_version", expectedVersion))

	if err := item.Validate(); err != nil {
		log.Warn("review item validation failed during save", slog.String("error", err.Error()))
		return 0, store.NewStoreError("review_item", "save", "validation failed",
			errors.Join(store.ErrInvalidEntity, err))
	}

	if err := store.CheckNextVersion(item, expectedVersion); err != nil {
		log.Warn("review item version does not advance", slog.Int("version", item.TotalReviews))
		return 0, err
	}

	updateQuery := `UPDATE review_items
		SET ease_factor = $1, interval_days = $2, repetitions = $3, next_review_at = $4,
			last_reviewed_at = $5, quality = $6, average_quality = $7, total_reviews = $8,
			updated_at = $9
		WHERE user_id = $10 AND item_id = $11 AND total_reviews = $12`

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, updateQuery,
			item.EaseFactor,
			item.Interval,
			item.Repetitions,
			item.NextReviewAt.UTC(),
			nullTime(item.LastReviewedAt),
			item.Quality,
			item.AverageQuality,
			item.TotalReviews,
			item.UpdatedAt.UTC(),
			item.UserID,
			item.ItemID,
			expectedVersion,
		)
		if err != nil {
			return MapError(err)
		}

		if err := CheckRowsAffected(result, "review item"); err == nil {
			return nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		var actual int
		err = tx.QueryRowContext(ctx,
			`SELECT total_reviews FROM review_items WHERE user_id = $1 AND item_id = $2`,
			item.UserID, item.ItemID,
		).Scan(&actual)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrReviewItemNotFound
		}
		if err != nil {
			return MapError(err)
		}

		log.Debug("version conflict on save", slog.Int("actual_version", actual))
		return store.ErrConflict
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrReviewItemNotFound) {
			return 0, err
		}
		log.Error("failed to save review item", slog.String("error", err.Error()))
		return 0, store.NewStoreError("review_item", "save", "update failed", MapError(err))
	}

	return item.TotalReviews, nil
}

// ListByUser implements store.ReviewItemStore.ListByUser
func (s *PostgresReviewItemStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ReviewItem, error) {
	query := `SELECT ` + reviewItemColumns + `
		FROM review_items
		WHERE user_id = $1`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		s.logger.Error("failed to list review items",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
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

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReviewItem(row rowScanner) (*domain.ReviewItem, error) {
	var (
		item         domain.ReviewItem
		itemType     string
		lastReviewed sql.NullTime
	)

	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.ItemID,
		&itemType,
		&item.LanguageCode,
		&item.EaseFactor,
		&item.Interval,
		&item.Repetitions,
		&item.NextReviewAt,
		&lastReviewed,
		&item.Quality,
		&item.AverageQuality,
		&item.TotalReviews,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.ItemType = domain.ItemType(itemType)
	item.NextReviewAt = item.NextReviewAt.UTC()
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	if lastReviewed.Valid {
		item.LastReviewedAt = lastReviewed.Time.UTC()
	}

	return &item, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
