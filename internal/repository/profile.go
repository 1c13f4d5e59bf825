// Package repository provides persistence implementations for profile
// synchronization using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/avolkov/profilekeeper/internal/models"
)

// PostgresProfileRepository implements per-operation profile writes against
// PostgreSQL. Every method runs on the transaction handed to it by the
// caller and is idempotent under retry.
type PostgresProfileRepository struct{}

// NewPostgresProfileRepository creates a new PostgresProfileRepository.
func NewPostgresProfileRepository() *PostgresProfileRepository {
	return &PostgresProfileRepository{}
}

// UpsertAnnotation writes the annotation keyed by its item instance ID.
// Existing fields are overwritten (last write wins).
func (r *PostgresProfileRepository) UpsertAnnotation(ctx context.Context, tx *sql.Tx, key models.ProfileKey, a models.ItemAnnotation) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO item_annotations (membership_id, destiny_version, instance_id, tag, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (membership_id, destiny_version, instance_id) DO UPDATE SET
			tag = EXCLUDED.tag,
			notes = EXCLUDED.notes
	`, key.PlatformMembershipID, key.DestinyVersion, a.ID, a.Tag, a.Notes)
	if err != nil {
		return fmt.Errorf("upsert annotation: %w", err)
	}
	return nil
}

// DeleteAnnotations removes the annotations for the given item instance IDs.
// IDs without a row are ignored.
func (r *PostgresProfileRepository) DeleteAnnotations(ctx context.Context, tx *sql.Tx, key models.ProfileKey, ids []string) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM item_annotations
		 WHERE membership_id = $1 AND destiny_version = $2 AND instance_id = ANY($3)
	`, key.PlatformMembershipID, key.DestinyVersion, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("delete annotations: %w", err)
	}
	return nil
}

// MergeSettings shallow-merges the raw JSON object into the profile's
// settings. Keys absent from raw keep their prior values.
func (r *PostgresProfileRepository) MergeSettings(ctx context.Context, tx *sql.Tx, key models.ProfileKey, raw json.RawMessage) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO settings (membership_id, destiny_version, settings)
		VALUES ($1, $2, $3)
		ON CONFLICT (membership_id, destiny_version) DO UPDATE SET
			settings = settings.settings || EXCLUDED.settings
	`, key.PlatformMembershipID, key.DestinyVersion, []byte(raw))
	if err != nil {
		return fmt.Errorf("merge settings: %w", err)
	}
	return nil
}

// UpsertLoadout replaces the loadout row keyed by the loadout ID. created_at
// is written only on first insert; last_updated_at never moves backward.
// Client-supplied timestamps are ignored.
func (r *PostgresProfileRepository) UpsertLoadout(ctx context.Context, tx *sql.Tx, key models.ProfileKey, l models.Loadout) error {
	if l.Equipped == nil {
		l.Equipped = []models.LoadoutItem{}
	}
	if l.Unequipped == nil {
		l.Unequipped = []models.LoadoutItem{}
	}

	equipped, err := json.Marshal(l.Equipped)
	if err != nil {
		return fmt.Errorf("marshal equipped: %w", err)
	}
	unequipped, err := json.Marshal(l.Unequipped)
	if err != nil {
		return fmt.Errorf("marshal unequipped: %w", err)
	}

	var parameters interface{}
	if l.Parameters != nil {
		b, err := json.Marshal(l.Parameters.Normalized())
		if err != nil {
			return fmt.Errorf("marshal parameters: %w", err)
		}
		parameters = b
	}

	var autoStatMods interface{}
	if l.AutoStatMods != nil {
		b, err := json.Marshal(l.AutoStatMods)
		if err != nil {
			return fmt.Errorf("marshal auto stat mods: %w", err)
		}
		autoStatMods = b
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO loadouts (membership_id, destiny_version, loadout_id, name, notes,
		                      class_type, emblem_hash, clear_space, equipped, unequipped,
		                      parameters, auto_stat_mods)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (membership_id, destiny_version, loadout_id) DO UPDATE SET
			name = EXCLUDED.name,
			notes = EXCLUDED.notes,
			class_type = EXCLUDED.class_type,
			emblem_hash = EXCLUDED.emblem_hash,
			clear_space = EXCLUDED.clear_space,
			equipped = EXCLUDED.equipped,
			unequipped = EXCLUDED.unequipped,
			parameters = EXCLUDED.parameters,
			auto_stat_mods = EXCLUDED.auto_stat_mods,
			last_updated_at = GREATEST(loadouts.last_updated_at, now())
	`, key.PlatformMembershipID, key.DestinyVersion, l.ID, l.Name, l.Notes,
		l.ClassType, l.EmblemHash, l.ClearSpace, equipped, unequipped,
		parameters, autoStatMods)
	if err != nil {
		return fmt.Errorf("upsert loadout: %w", err)
	}
	return nil
}

// DeleteLoadout removes the loadout with the given ID. A missing row is not
// an error.
func (r *PostgresProfileRepository) DeleteLoadout(ctx context.Context, tx *sql.Tx, key models.ProfileKey, id string) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM loadouts
		 WHERE membership_id = $1 AND destiny_version = $2 AND loadout_id = $3
	`, key.PlatformMembershipID, key.DestinyVersion, id)
	if err != nil {
		return fmt.Errorf("delete loadout: %w", err)
	}
	return nil
}

// SetTriumphTracked sets membership of recordHash in the tracked set to
// exactly tracked. Re-applying the same value is a no-op.
func (r *PostgresProfileRepository) SetTriumphTracked(ctx context.Context, tx *sql.Tx, key models.ProfileKey, recordHash int64, tracked bool) error {
	var err error
	if tracked {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tracked_triumphs (membership_id, destiny_version, record_hash)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, key.PlatformMembershipID, key.DestinyVersion, recordHash)
	} else {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM tracked_triumphs
			 WHERE membership_id = $1 AND destiny_version = $2 AND record_hash = $3
		`, key.PlatformMembershipID, key.DestinyVersion, recordHash)
	}
	if err != nil {
		return fmt.Errorf("set triumph tracked: %w", err)
	}
	return nil
}

// RecordSearchUsed increments the usage count of the query and refreshes its
// last-used time, creating the row with a count of one when absent. The
// saved flag is never altered here.
func (r *PostgresProfileRepository) RecordSearchUsed(ctx context.Context, tx *sql.Tx, key models.ProfileKey, query string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO searches (membership_id, destiny_version, query, usage_count, last_used)
		VALUES ($1, $2, $3, 1, now())
		ON CONFLICT (membership_id, destiny_version, query) DO UPDATE SET
			usage_count = searches.usage_count + 1,
			last_used = now()
	`, key.PlatformMembershipID, key.DestinyVersion, query)
	if err != nil {
		return fmt.Errorf("record search used: %w", err)
	}
	return nil
}

// SaveSearch sets the saved flag of the query, creating the row with a zero
// usage count when absent. Usage bookkeeping is never altered here.
func (r *PostgresProfileRepository) SaveSearch(ctx context.Context, tx *sql.Tx, key models.ProfileKey, query string, saved bool) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO searches (membership_id, destiny_version, query, usage_count, saved)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (membership_id, destiny_version, query) DO UPDATE SET
			saved = EXCLUDED.saved
	`, key.PlatformMembershipID, key.DestinyVersion, query, saved)
	if err != nil {
		return fmt.Errorf("save search: %w", err)
	}
	return nil
}
