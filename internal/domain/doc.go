// Package domain defines the review scheduling entities: ReviewItem, the
// per-user schedule of one learnable item, and PerformanceInput, the validated
// telemetry of a single review. The scheduling rules themselves live in the
// srs subpackage.
package domain
