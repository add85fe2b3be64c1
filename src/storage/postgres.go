package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"investment-dashboard/src/logger"
	"investment-dashboard/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	// Schema is named after the executable so several deployments can share a database
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresDB{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize(ctx context.Context) error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."view_snapshots" (
			snapshot_key TEXT PRIMARY KEY,
			payload BYTEA NOT NULL,
			captured_at TIMESTAMPTZ NOT NULL
		);
	`, d.Schema)
	if _, err := d.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create view_snapshots: %w", err)
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveSnapshot(ctx context.Context, key string, payload []byte, capturedAt time.Time) error {
	query := fmt.Sprintf(`
		INSERT INTO "%s"."view_snapshots" (snapshot_key, payload, captured_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (snapshot_key) DO UPDATE SET
			payload = EXCLUDED.payload,
			captured_at = EXCLUDED.captured_at
	`, d.Schema)

	if _, err := d.DB.ExecContext(ctx, query, key, payload, capturedAt.UTC()); err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) LoadSnapshot(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	query := fmt.Sprintf(`SELECT payload, captured_at FROM "%s"."view_snapshots" WHERE snapshot_key = $1`, d.Schema)

	var payload []byte
	var capturedAt time.Time
	err := d.DB.QueryRowContext(ctx, query, key).Scan(&payload, &capturedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	return payload, capturedAt.UTC(), true, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
