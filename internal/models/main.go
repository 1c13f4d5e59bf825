// Package models defines the core data structures for synced profiles
// and the update operations that mutate them.
package models

import (
	"encoding/json"
	"time"
)

// DestinyVersion selects which game release a profile belongs to.
type DestinyVersion int

const (
	// Destiny1 is the original game release.
	Destiny1 DestinyVersion = 1
	// Destiny2 is the current game release.
	Destiny2 DestinyVersion = 2
)

// Valid reports whether v is a known game release.
func (v DestinyVersion) Valid() bool {
	return v == Destiny1 || v == Destiny2
}

// ProfileKey identifies one synced profile. Profiles are created lazily on
// first write; there is no explicit profile row.
type ProfileKey struct {
	// PlatformMembershipID is the platform account identifier, validated
	// upstream before requests reach this service.
	PlatformMembershipID string
	// DestinyVersion is the game release the profile belongs to.
	DestinyVersion DestinyVersion
}

// Settings is the per-profile option map. Values are stored verbatim;
// updates shallow-merge into the existing map.
type Settings map[string]json.RawMessage

// ItemAnnotation is a user note attached to a single item instance.
type ItemAnnotation struct {
	// ID is the item instance ID the annotation is keyed by.
	ID string `json:"id"`
	// Tag is the user-chosen tag ("favorite", "junk", ...), if any.
	Tag *string `json:"tag,omitempty"`
	// Notes holds freeform user notes about the item, if any.
	Notes *string `json:"notes,omitempty"`
}

// Search is one remembered search query with usage bookkeeping.
type Search struct {
	// Query is the exact search text; it is the row key.
	Query string `json:"query"`
	// UsageCount is how many times the query was used.
	UsageCount int `json:"usageCount"`
	// Saved reports whether the user pinned the query.
	Saved bool `json:"saved"`
	// LastUsed is when the query was last used.
	LastUsed time.Time `json:"lastUsedAt"`
}

// ProfileResponse is the read view of a profile. Components the caller did
// not ask for are left nil and omitted from the JSON encoding.
type ProfileResponse struct {
	Settings Settings         `json:"settings,omitempty"`
	Loadouts []Loadout        `json:"loadouts,omitempty"`
	Tags     []ItemAnnotation `json:"tags,omitempty"`
	// Triumphs holds the record hashes of tracked triumphs.
	Triumphs []int64  `json:"triumphs,omitempty"`
	Searches []Search `json:"searches,omitempty"`
}
