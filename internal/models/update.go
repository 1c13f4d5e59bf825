package models

import (
	"encoding/json"
	"errors"
)

// Sentinel errors classifying why an operation failed. Handlers and the
// dispatcher wrap these with fmt.Errorf("...: %w", err) and the dispatcher
// maps them to result statuses with errors.Is.
var (
	// ErrValidation marks a malformed or incomplete payload. Client error,
	// not retryable as-is.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing referenced entity. Reserved: deletes are
	// no-ops by policy, so nothing produces it today.
	ErrNotFound = errors.New("not found")
	// ErrStorage marks a transient infrastructure failure. The operation
	// is safe to retry.
	ErrStorage = errors.New("storage error")
)

// UpdateAction discriminates the kinds of profile update operations.
type UpdateAction string

const (
	ActionTag           UpdateAction = "tag"
	ActionTagCleanup    UpdateAction = "tag_cleanup"
	ActionSetting       UpdateAction = "setting"
	ActionLoadout       UpdateAction = "loadout"
	ActionDeleteLoadout UpdateAction = "delete_loadout"
	ActionTrackTriumph  UpdateAction = "track_triumph"
	ActionSearch        UpdateAction = "search"
	ActionSaveSearch    UpdateAction = "save_search"
)

// ProfileUpdate is one tagged operation in a batch. Payload stays raw until
// the dispatcher decodes it according to Action.
type ProfileUpdate struct {
	Action  UpdateAction    `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// TrackTriumphPayload sets membership of a record hash in the tracked set.
type TrackTriumphPayload struct {
	// RecordHash identifies the triumph. Required.
	RecordHash *int64 `json:"recordHash"`
	// Tracked is the exact membership value to apply.
	Tracked bool `json:"tracked"`
}

// UsedSearchPayload records that a search query was used.
type UsedSearchPayload struct {
	Query string `json:"query"`
}

// SavedSearchPayload pins or unpins a search query.
type SavedSearchPayload struct {
	Query string `json:"query"`
	Saved bool   `json:"saved"`
}

// Result statuses reported per operation.
const (
	StatusSuccess         = "Success"
	StatusValidationError = "ValidationError"
	StatusNotFound        = "NotFound"
	StatusStorageError    = "StorageError"
)

// UpdateResult is the outcome of one operation, positionally aligned with
// the request's updates list.
type UpdateResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// UpdateRequest is a batch of updates for one profile.
type UpdateRequest struct {
	PlatformMembershipID string          `json:"platformMembershipId"`
	DestinyVersion       DestinyVersion  `json:"destinyVersion"`
	Updates              []ProfileUpdate `json:"updates"`
}

// UpdateResponse carries one result per requested update, in order.
type UpdateResponse struct {
	Results []UpdateResult `json:"results"`
}
