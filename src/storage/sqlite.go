package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"investment-dashboard/src/logger"
	"investment-dashboard/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize(ctx context.Context) error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables(ctx)
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) createTables(ctx context.Context) error {
	// Snapshots survive restarts: they are the cached fallback
	query := `
		CREATE TABLE IF NOT EXISTS view_snapshots (
			snapshot_key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			captured_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create view_snapshots: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveSnapshot(ctx context.Context, key string, payload []byte, capturedAt time.Time) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO view_snapshots (snapshot_key, payload, captured_at)
		VALUES (?, ?, ?)
		ON CONFLICT (snapshot_key) DO UPDATE SET
			payload = excluded.payload,
			captured_at = excluded.captured_at
	`, key, payload, capturedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) LoadSnapshot(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	var payload []byte
	var capturedMs int64

	err := d.DB.QueryRowContext(ctx,
		"SELECT payload, captured_at FROM view_snapshots WHERE snapshot_key = ?", key,
	).Scan(&payload, &capturedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("load snapshot %s: %w", key, err)
	}

	return payload, time.UnixMilli(capturedMs).UTC(), true, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
