package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/avolkov/profilekeeper/internal/models"
)

// ProfileService defines the interface for profile reads required by the
// ProfileHandler.
type ProfileService interface {
	// GetProfile returns the requested components of the profile; an empty
	// components list means all of them.
	GetProfile(ctx context.Context, key models.ProfileKey, components []string) (*models.ProfileResponse, error)
}

// ProfileHandler handles HTTP requests reading synced profiles.
type ProfileHandler struct {
	ProfileService ProfileService
}

// Profile handles GET /api/profile requests.
// Query parameters: platformMembershipId (required), destinyVersion
// (defaults to 2), components (comma-separated subset of
// settings,loadouts,tags,triumphs,searches; empty means all).
func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	membershipID := q.Get("platformMembershipId")
	if membershipID == "" {
		http.Error(w, "platformMembershipId is required", http.StatusBadRequest)
		return
	}

	version := models.Destiny2
	if s := q.Get("destinyVersion"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || !models.DestinyVersion(n).Valid() {
			http.Error(w, "unknown destinyVersion", http.StatusBadRequest)
			return
		}
		version = models.DestinyVersion(n)
	}

	var components []string
	if s := q.Get("components"); s != "" {
		components = strings.Split(s, ",")
	}

	key := models.ProfileKey{PlatformMembershipID: membershipID, DestinyVersion: version}
	resp, err := h.ProfileService.GetProfile(r.Context(), key, components)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
