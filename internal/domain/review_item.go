package domain

import (
	"time"

	"github.com/google/uuid"
)

// ItemType classifies the learnable content a review item points at.
type ItemType string

// Supported item types.
const (
	ItemTypeVocabulary ItemType = "vocabulary"
	ItemTypeGrammar    ItemType = "grammar"
	ItemTypePhrase     ItemType = "phrase"
)

// Valid reports whether t is one of the supported item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeVocabulary, ItemTypeGrammar, ItemTypePhrase:
		return true
	default:
		return false
	}
}

// Quality bounds for a single review score.
const (
	MinQuality = 0
	MaxQuality = 5
)

// ReviewItem is the scheduling state of one learnable item for one user.
//
// TotalReviews doubles as the optimistic concurrency version: every accepted
// review increments it by exactly one, and stores only accept a write whose
// expected version matches the persisted value.
type ReviewItem struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	ItemID         uuid.UUID `json:"item_id"`
	ItemType       ItemType  `json:"item_type"`
	LanguageCode   string    `json:"language_code"`
	EaseFactor     float64   `json:"ease_factor"`
	Interval       int       `json:"interval"` // days
	Repetitions    int       `json:"repetitions"`
	NextReviewAt   time.Time `json:"next_review_at"`
	LastReviewedAt time.Time `json:"last_reviewed_at"`
	Quality        int       `json:"quality"`
	AverageQuality float64   `json:"average_quality"`
	TotalReviews   int       `json:"total_reviews"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewReviewItem creates the schedule for an item the user has just been introduced to.
// The item starts with no repetitions, a one day interval and the given ease factor,
// and is due immediately.
func NewReviewItem(
	userID, itemID uuid.UUID,
	itemType ItemType,
	languageCode string,
	easeFactor float64,
	now time.Time,
) (*ReviewItem, error) {
	now = now.UTC()
	item := &ReviewItem{
		ID:           uuid.New(),
		UserID:       userID,
		ItemID:       itemID,
		ItemType:     itemType,
		LanguageCode: languageCode,
		EaseFactor:   easeFactor,
		Interval:     1,
		Repetitions:  0,
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks the structural invariants of a ReviewItem.
// Ease factor bounds are configuration dependent and enforced by the scheduler.
func (r *ReviewItem) Validate() error {
	if r.UserID == uuid.Nil {
		return NewValidationError("user_id", "cannot be empty", ErrInvalidID)
	}
	if r.ItemID == uuid.Nil {
		return NewValidationError("item_id", "cannot be empty", ErrInvalidID)
	}
	if !r.ItemType.Valid() {
		return NewValidationError("item_type", "must be one of vocabulary, grammar, phrase", nil)
	}
	if r.LanguageCode == "" {
		return NewValidationError("language_code", "cannot be empty", nil)
	}
	if r.EaseFactor <= 1.0 {
		return NewValidationError("ease_factor", "must be greater than 1.0", nil)
	}
	if r.Interval < 1 {
		return NewValidationError("interval", "must be at least 1", nil)
	}
	if r.Repetitions < 0 {
		return NewValidationError("repetitions", "cannot be negative", nil)
	}
	if r.Quality < MinQuality || r.Quality > MaxQuality {
		return NewValidationError("quality", "must be between 0 and 5", nil)
	}
	if r.TotalReviews < 0 {
		return NewValidationError("total_reviews", "cannot be negative", nil)
	}
	return nil
}

// Version returns the optimistic concurrency token of the item.
func (r *ReviewItem) Version() int {
	return r.TotalReviews
}

// IsNew reports whether the item has never been reviewed.
func (r *ReviewItem) IsNew() bool {
	return r.TotalReviews == 0
}

// IsDue reports whether the item should be reviewed at now.
func (r *ReviewItem) IsDue(now time.Time) bool {
	return !r.NextReviewAt.After(now)
}
