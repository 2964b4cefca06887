package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/api/shared"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/phrazzld/scry-srs/internal/platform/logger"
	"github.com/phrazzld/scry-srs/internal/service/review"
)

// ReviewHandler handles review scheduling HTTP requests.
type ReviewHandler struct {
	reviewService review.Service
	logger        *slog.Logger
	now           func() time.Time
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService review.Service, logger *slog.Logger) *ReviewHandler {
	if reviewService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviewService cannot be nil for ReviewHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}

	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "review_handler")),
		now:           time.Now,
	}
}

// IntroduceItem handles POST /items requests.
// It starts scheduling an item the user has just learned.
func (h *ReviewHandler) IntroduceItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req IntroduceItemRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	// Validated as a UUID above
	itemID := uuid.MustParse(req.ItemID)

	item, err := h.reviewService.IntroduceItem(
		r.Context(), userID, itemID, domain.ItemType(req.ItemType), req.LanguageCode,
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to introduce item")
		return
	}

	log.Debug("introduced item", slog.String("item_id", itemID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, reviewItemToResponse(item))
}

// GetItem handles GET /items/{id} requests.
func (h *ReviewHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	item, err := h.reviewService.GetItem(r.Context(), userID, itemID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get item")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, reviewItemToResponse(item))
}

// SubmitReview handles POST /items/{id}/reviews requests.
// It records one review outcome and returns the updated schedule.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	input, err := req.ToPerformanceInput()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	item, err := h.reviewService.SubmitReview(r.Context(), userID, itemID, input)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit review")
		return
	}

	log.Debug("review submitted",
		slog.String("item_id", itemID.String()),
		slog.Int("interval", item.Interval))
	shared.RespondWithJSON(w, r, http.StatusOK, reviewItemToResponse(item))
}

// GetQueue handles GET /queue requests.
// The optional max_size query parameter bounds the session size.
func (h *ReviewHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	maxSize, err := queryInt(r, "max_size", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if maxSize < 0 {
		HandleAPIError(w, r, domain.NewValidationError("max_size", "cannot be negative", nil), "")
		return
	}

	items, err := h.reviewService.GetDueQueue(r.Context(), userID, h.now(), maxSize)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get review queue")
		return
	}

	resp := QueueResponse{
		Items: make([]ReviewItemResponse, 0, len(items)),
		Count: len(items),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, reviewItemToResponse(item))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetRecommendations handles GET /recommendations requests.
// It derives guidance from caller supplied statistics.
func (h *ReviewHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if _, ok := requireUserID(w, r, log); !ok {
		return
	}

	totalItems, err := queryInt(r, "total_items", -1)
	if err == nil && totalItems < 0 {
		err = domain.NewValidationError("total_items", "is required and cannot be negative", nil)
	}
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	itemsDue, err := queryInt(r, "items_due", -1)
	if err == nil && itemsDue < 0 {
		err = domain.NewValidationError("items_due", "is required and cannot be negative", nil)
	}
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	accuracy, err := queryFloat(r, "average_accuracy")
	if err == nil && (accuracy < 0 || accuracy > 100) {
		err = domain.NewValidationError("average_accuracy", "must be between 0 and 100", nil)
	}
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	recs := h.reviewService.GetRecommendations(totalItems, itemsDue, accuracy)
	shared.RespondWithJSON(w, r, http.StatusOK, RecommendationsResponse{
		Recommendations: recommendationsToResponse(recs),
	})
}

// GetSummary handles GET /summary requests.
func (h *ReviewHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	summary, err := h.reviewService.GetSummary(r.Context(), userID, h.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get summary")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summaryToResponse(summary))
}
