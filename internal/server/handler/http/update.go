// Package http provides HTTP handlers for profile reads and update batches.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/avolkov/profilekeeper/internal/models"
)

// UpdateService defines the interface for batch processing required by the
// UpdateHandler.
type UpdateService interface {
	// ApplyBatch applies the updates in order and returns one result per
	// update, positionally aligned. The error is non-nil only when storage
	// is entirely unavailable.
	ApplyBatch(ctx context.Context, key models.ProfileKey, updates []models.ProfileUpdate) ([]models.UpdateResult, error)
}

// UpdateHandler handles HTTP requests carrying profile update batches.
type UpdateHandler struct {
	UpdateService UpdateService
}

// Update handles POST /api/profile requests.
// It decodes a JSON body with "platformMembershipId", "destinyVersion" and
// "updates", invokes the UpdateService, and writes the correlated results
// list as JSON.
func (h *UpdateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.PlatformMembershipID == "" {
		http.Error(w, "platformMembershipId is required", http.StatusBadRequest)
		return
	}
	if req.DestinyVersion == 0 {
		req.DestinyVersion = models.Destiny2
	}
	if !req.DestinyVersion.Valid() {
		http.Error(w, "unknown destinyVersion", http.StatusBadRequest)
		return
	}

	key := models.ProfileKey{
		PlatformMembershipID: req.PlatformMembershipID,
		DestinyVersion:       req.DestinyVersion,
	}
	results, err := h.UpdateService.ApplyBatch(r.Context(), key, req.Updates)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(models.UpdateResponse{Results: results})
}
