package telemetry

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/mkern/printmond/internal/errors"
	"codeberg.org/mkern/printmond/internal/logger"
)

const defaultDirPerm = 0o755

// StoreConfig configures the local snapshot store.
type StoreConfig struct {
	DBPath       string
	BatchSize    int
	BatchTimeout time.Duration
}

func (c StoreConfig) Validate() error {
	if c.DBPath == "" {
		return errors.New().New(ErrInvalidDBPath)
	}
	return nil
}

// Repository persists uplink records locally so a gateway outage never
// loses history.
type Repository interface {
	Record(rec *UplinkRecord) error
	Close() error
}

type sqliteRepository struct {
	db  *sql.DB
	cfg StoreConfig

	mu        sync.Mutex
	buffer    []*UplinkRecord
	flushTick *time.Ticker
	shutdown  chan struct{}
	flushDone chan struct{}
}

// NewRepository opens (and if needed creates) the snapshot database.
func NewRepository(cfg StoreConfig) (Repository, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Second
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Msg("snapshot repository initialized")

	repo := &sqliteRepository{
		db:        db,
		cfg:       cfg,
		buffer:    make([]*UplinkRecord, 0, cfg.BatchSize),
		flushTick: time.NewTicker(cfg.BatchTimeout),
		shutdown:  make(chan struct{}),
		flushDone: make(chan struct{}),
	}
	go repo.flusher()

	return repo, nil
}

func (r *sqliteRepository) Record(rec *UplinkRecord) error {
	if rec == nil {
		return errors.New().New(ErrInvalidSnapshot)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, rec)
	if len(r.buffer) >= r.cfg.BatchSize {
		return r.flush()
	}

	return nil
}

func (r *sqliteRepository) flusher() {
	defer close(r.flushDone)

	for {
		select {
		case <-r.flushTick.C:
			r.mu.Lock()
			if err := r.flush(); err != nil {
				logger.Debug().Err(err).Msg("periodic flush failed")
			}
			r.mu.Unlock()
		case <-r.shutdown:
			r.mu.Lock()
			if err := r.flush(); err != nil {
				logger.Debug().Err(err).Msg("final flush failed")
			}
			r.mu.Unlock()
			return
		}
	}
}

func (r *sqliteRepository) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	errFactory := errors.New()

	tx, err := r.db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	stmt, err := tx.Prepare(insertSnapshotSQL)
	if err != nil {
		_ = tx.Rollback()
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer stmt.Close()

	for _, rec := range r.buffer {
		if _, err := stmt.Exec(
			rec.Timestamp,
			rec.SessionID,
			rec.HotendTemp,
			rec.BedTemp,
			rec.AmbientTemp,
			rec.FlowRate,
			rec.Weight,
			int64(rec.CurrentLayer),
			rec.CompletionPct,
			rec.SuccessProbability,
			rec.FailureType,
			rec.Confidence,
			rec.SafetyState,
			rec.HealthScore,
		); err != nil {
			_ = tx.Rollback()
			return errFactory.Wrap(ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	logger.Debug().Int("records", len(r.buffer)).Msg("flushed snapshots to database")
	r.buffer = r.buffer[:0]

	return nil
}

func (r *sqliteRepository) Close() error {
	close(r.shutdown)
	r.flushTick.Stop()
	<-r.flushDone

	errFactory := errors.New()

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errFactory.Wrap(ErrStorageClose, err)
	}
	if err := r.db.Close(); err != nil {
		return errFactory.Wrap(ErrStorageClose, err)
	}

	logger.Info().Msg("snapshot repository closed")

	return nil
}

// noopRepository is used when local persistence is disabled.
type noopRepository struct{}

func (noopRepository) Record(*UplinkRecord) error { return nil }
func (noopRepository) Close() error               { return nil }

// NewNoopRepository returns a repository that discards everything.
func NewNoopRepository() Repository {
	return noopRepository{}
}
