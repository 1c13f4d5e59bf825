package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
    membership_id TEXT NOT NULL,
    destiny_version SMALLINT NOT NULL,
    settings JSONB NOT NULL DEFAULT '{}'::jsonb,
    PRIMARY KEY (membership_id, destiny_version)
);

CREATE TABLE IF NOT EXISTS loadouts (
    membership_id TEXT NOT NULL,
    destiny_version SMALLINT NOT NULL,
    loadout_id TEXT NOT NULL,
    name TEXT NOT NULL,
    notes TEXT,
    class_type SMALLINT NOT NULL,
    emblem_hash BIGINT,
    clear_space BOOLEAN NOT NULL DEFAULT FALSE,
    equipped JSONB NOT NULL,
    unequipped JSONB NOT NULL,
    parameters JSONB,
    auto_stat_mods JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (membership_id, destiny_version, loadout_id)
);

CREATE TABLE IF NOT EXISTS item_annotations (
    membership_id TEXT NOT NULL,
    destiny_version SMALLINT NOT NULL,
    instance_id TEXT NOT NULL,
    tag TEXT,
    notes TEXT,
    PRIMARY KEY (membership_id, destiny_version, instance_id)
);

CREATE TABLE IF NOT EXISTS tracked_triumphs (
    membership_id TEXT NOT NULL,
    destiny_version SMALLINT NOT NULL,
    record_hash BIGINT NOT NULL,
    PRIMARY KEY (membership_id, destiny_version, record_hash)
);

CREATE TABLE IF NOT EXISTS searches (
    membership_id TEXT NOT NULL,
    destiny_version SMALLINT NOT NULL,
    query TEXT NOT NULL,
    usage_count INT NOT NULL DEFAULT 0,
    saved BOOLEAN NOT NULL DEFAULT FALSE,
    last_used TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (membership_id, destiny_version, query)
);
`

// InitPostgres opens a Postgres pool, bounds it to maxConns connections and
// bootstraps the schema. Transactions queue on pool exhaustion rather than
// failing fast.
func InitPostgres(dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(maxConns)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}
