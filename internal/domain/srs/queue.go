package srs

import (
	"bytes"
	"cmp"
	"slices"
	"time"

	"github.com/phrazzld/scry-srs/internal/domain"
)

// listDue selects the items due at now and orders them for a review session.
//
// Ordering:
//  1. most overdue first (earliest NextReviewAt)
//  2. lower ease factor first, so harder items surface sooner
//  3. ItemID ascending, then ID ascending, so the order is total
//
// The result holds at most maxSize items; maxSize <= 0 means no limit.
// The input slice is left untouched.
func listDue(items []*domain.ReviewItem, now time.Time, maxSize int) []*domain.ReviewItem {
	due := make([]*domain.ReviewItem, 0, len(items))
	for _, item := range items {
		if item != nil && item.IsDue(now) {
			due = append(due, item)
		}
	}

	slices.SortStableFunc(due, compareDue)

	if maxSize > 0 && len(due) > maxSize {
		due = due[:maxSize]
	}
	return due
}

func compareDue(a, b *domain.ReviewItem) int {
	if c := a.NextReviewAt.Compare(b.NextReviewAt); c != 0 {
		return c
	}
	if c := cmp.Compare(a.EaseFactor, b.EaseFactor); c != 0 {
		return c
	}
	if c := bytes.Compare(a.ItemID[:], b.ItemID[:]); c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

// QueueStats aggregates a user's items for guidance and dashboards.
type QueueStats struct {
	TotalItems int `json:"total_items"`
	DueItems   int `json:"due_items"`
	NewItems   int `json:"new_items"`
	// AverageAccuracy is a percentage derived from review-weighted average quality.
	// It is 100 when nothing has been reviewed yet.
	AverageAccuracy float64 `json:"average_accuracy"`
	TotalReviews    int     `json:"total_reviews"`
}

// summarize computes QueueStats over a snapshot of items.
func summarize(items []*domain.ReviewItem, now time.Time) QueueStats {
	var stats QueueStats
	var qualitySum float64

	for _, item := range items {
		if item == nil {
			continue
		}
		stats.TotalItems++
		if item.IsDue(now) {
			stats.DueItems++
		}
		if item.IsNew() {
			stats.NewItems++
		}
		stats.TotalReviews += item.TotalReviews
		qualitySum += item.AverageQuality * float64(item.TotalReviews)
	}

	stats.AverageAccuracy = 100
	if stats.TotalReviews > 0 {
		stats.AverageAccuracy = qualitySum / float64(stats.TotalReviews) / float64(domain.MaxQuality) * 100
	}
	return stats
}
