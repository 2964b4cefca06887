package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() ReviewRecorded {
	reviewedAt := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)
	return ReviewRecorded{
		UserID:       uuid.New(),
		ItemID:       uuid.New(),
		Quality:      4,
		Passed:       true,
		Interval:     7,
		EaseFactor:   2.5,
		NextReviewAt: reviewedAt.AddDate(0, 0, 7),
		ReviewedAt:   reviewedAt,
		Version:      2,
	}
}

func TestNewReviewRecordedEvent(t *testing.T) {
	t.Parallel()
	payload := samplePayload()

	event, err := NewReviewRecordedEvent(payload)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeReviewRecorded, event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded ReviewRecorded
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload.UserID, decoded.UserID)
	assert.Equal(t, payload.Version, decoded.Version)
	assert.True(t, payload.NextReviewAt.Equal(decoded.NextReviewAt))
}

func TestNewEventRejectsUnencodablePayload(t *testing.T) {
	t.Parallel()
	_, err := NewEvent("broken", map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestEventJSONShape(t *testing.T) {
	t.Parallel()
	event, err := NewEvent("custom", map[string]int{"n": 1})
	require.NoError(t, err)

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "custom", fields["type"])
	assert.Equal(t, map[string]any{"n": float64(1)}, fields["payload"])
}

func TestReviewLogHandler(t *testing.T) {
	t.Parallel()
	log, buf := logger.NewTestLogger(t)
	handler := NewReviewLogHandler(log)

	event, err := NewReviewRecordedEvent(samplePayload())
	require.NoError(t, err)
	require.NoError(t, handler.HandleEvent(context.Background(), event))

	logger.AssertLogContains(t, buf, "review recorded")
	logger.AssertLogField(t, buf, "passed", true)
	logger.AssertLogField(t, buf, "component", "review_log_handler")

	other, err := NewEvent("something.else", nil)
	require.NoError(t, err)
	assert.NoError(t, handler.HandleEvent(context.Background(), other))

	bad := &Event{ID: uuid.New(), Type: TypeReviewRecorded, Payload: json.RawMessage(`{"quality":"high"}`)}
	assert.Error(t, handler.HandleEvent(context.Background(), bad))
}
