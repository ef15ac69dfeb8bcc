package telemetry

import (
	"database/sql"

	"codeberg.org/mkern/printmond/internal/errors"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS snapshots (
	       timestamp           INTEGER PRIMARY KEY,
	       session_id          TEXT NOT NULL,
	       hotend_temp         REAL NOT NULL,
	       bed_temp            REAL NOT NULL,
	       ambient_temp        REAL NOT NULL,
	       flow_rate           REAL NOT NULL,
	       weight              REAL NOT NULL,
	       current_layer       INTEGER NOT NULL,
	       completion_pct      REAL NOT NULL,
	       success_probability REAL NOT NULL,
	       failure_type        TEXT NOT NULL,
	       confidence          REAL NOT NULL,
	       safety_state        TEXT NOT NULL,
	       health_score        REAL NOT NULL
	   );`

	insertSnapshotSQL = `
    INSERT INTO snapshots (
        timestamp, session_id,
        hotend_temp, bed_temp, ambient_temp,
        flow_rate, weight, current_layer, completion_pct,
        success_probability, failure_type, confidence,
        safety_state, health_score
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// InitSchema creates the snapshot tables and records the schema version.
func InitSchema(db *sql.DB) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if _, err := tx.Exec(`
        INSERT OR IGNORE INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	return nil
}
