package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/profilekeeper/internal/models"
)

// GetSettings returns the profile's settings map. A profile with no settings
// row yields an empty map.
func (r *PostgresProfileRepository) GetSettings(ctx context.Context, tx *sql.Tx, key models.ProfileKey) (models.Settings, error) {
	var raw []byte
	err := tx.QueryRowContext(ctx, `
		SELECT settings FROM settings
		 WHERE membership_id = $1 AND destiny_version = $2
	`, key.PlatformMembershipID, key.DestinyVersion).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	var out models.Settings
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return out, nil
}

// GetLoadouts returns all loadouts of the profile, newest changes first.
func (r *PostgresProfileRepository) GetLoadouts(ctx context.Context, tx *sql.Tx, key models.ProfileKey) ([]models.Loadout, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT loadout_id, name, notes, class_type, emblem_hash, clear_space,
		       equipped, unequipped, parameters, auto_stat_mods,
		       created_at, last_updated_at
		  FROM loadouts
		 WHERE membership_id = $1 AND destiny_version = $2
		 ORDER BY last_updated_at DESC
	`, key.PlatformMembershipID, key.DestinyVersion)
	if err != nil {
		return nil, fmt.Errorf("get loadouts: %w", err)
	}
	defer rows.Close()

	var out []models.Loadout
	for rows.Next() {
		var l models.Loadout
		var equipped, unequipped []byte
		var parameters, autoStatMods []byte
		var createdAt, lastUpdatedAt time.Time
		if err := rows.Scan(&l.ID, &l.Name, &l.Notes, &l.ClassType, &l.EmblemHash, &l.ClearSpace,
			&equipped, &unequipped, &parameters, &autoStatMods,
			&createdAt, &lastUpdatedAt); err != nil {
			return nil, fmt.Errorf("scan loadout: %w", err)
		}
		if err := json.Unmarshal(equipped, &l.Equipped); err != nil {
			return nil, fmt.Errorf("decode equipped: %w", err)
		}
		if err := json.Unmarshal(unequipped, &l.Unequipped); err != nil {
			return nil, fmt.Errorf("decode unequipped: %w", err)
		}
		if parameters != nil {
			l.Parameters = &models.LoadoutParameters{}
			if err := json.Unmarshal(parameters, l.Parameters); err != nil {
				return nil, fmt.Errorf("decode parameters: %w", err)
			}
		}
		if autoStatMods != nil {
			if err := json.Unmarshal(autoStatMods, &l.AutoStatMods); err != nil {
				return nil, fmt.Errorf("decode auto stat mods: %w", err)
			}
		}
		l.CreatedAt = &createdAt
		l.LastUpdatedAt = &lastUpdatedAt
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetAnnotations returns all item annotations of the profile.
func (r *PostgresProfileRepository) GetAnnotations(ctx context.Context, tx *sql.Tx, key models.ProfileKey) ([]models.ItemAnnotation, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT instance_id, tag, notes FROM item_annotations
		 WHERE membership_id = $1 AND destiny_version = $2
	`, key.PlatformMembershipID, key.DestinyVersion)
	if err != nil {
		return nil, fmt.Errorf("get annotations: %w", err)
	}
	defer rows.Close()

	var out []models.ItemAnnotation
	for rows.Next() {
		var a models.ItemAnnotation
		if err := rows.Scan(&a.ID, &a.Tag, &a.Notes); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetTriumphs returns the record hashes of tracked triumphs.
func (r *PostgresProfileRepository) GetTriumphs(ctx context.Context, tx *sql.Tx, key models.ProfileKey) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT record_hash FROM tracked_triumphs
		 WHERE membership_id = $1 AND destiny_version = $2
		 ORDER BY record_hash
	`, key.PlatformMembershipID, key.DestinyVersion)
	if err != nil {
		return nil, fmt.Errorf("get triumphs: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var hash int64
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("scan triumph: %w", err)
		}
		out = append(out, hash)
	}
	return out, rows.Err()
}

// GetSearches returns the profile's remembered searches, most recently used
// first.
func (r *PostgresProfileRepository) GetSearches(ctx context.Context, tx *sql.Tx, key models.ProfileKey) ([]models.Search, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT query, usage_count, saved, last_used FROM searches
		 WHERE membership_id = $1 AND destiny_version = $2
		 ORDER BY last_used DESC
	`, key.PlatformMembershipID, key.DestinyVersion)
	if err != nil {
		return nil, fmt.Errorf("get searches: %w", err)
	}
	defer rows.Close()

	var out []models.Search
	for rows.Next() {
		var s models.Search
		if err := rows.Scan(&s.Query, &s.UsageCount, &s.Saved, &s.LastUsed); err != nil {
			return nil, fmt.Errorf("scan search: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
