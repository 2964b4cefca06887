package events

import (
	"context"
	"fmt"
	"log/slog"
)

// NewReviewLogHandler returns a handler that writes one structured log line per
// recorded review. Events of other types are ignored.
func NewReviewLogHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "review_log_handler"))

	return HandlerFunc(func(ctx context.Context, event *Event) error {
		if event.Type != TypeReviewRecorded {
			return nil
		}

		var payload ReviewRecorded
		if err := event.UnmarshalPayload(&payload); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
		}

		log.InfoContext(ctx, "review recorded",
			slog.String("event_id", event.ID.String()),
			slog.String("user_id", payload.UserID.String()),
			slog.String("item_id", payload.ItemID.String()),
			slog.Int("quality", payload.Quality),
			slog.Bool("passed", payload.Passed),
			slog.Int("interval", payload.Interval),
			slog.Time("next_review_at", payload.NextReviewAt),
			slog.Int("version", payload.Version))
		return nil
	})
}
