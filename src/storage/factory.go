package storage

import (
	"context"
	"fmt"

	"investment-dashboard/src/helpers"
	"investment-dashboard/src/interfaces"
	"investment-dashboard/src/logger"
	"investment-dashboard/src/models"
)

// Open builds and initializes the snapshot store selected by storage.db_type.
func Open(ctx context.Context, cfg *models.MConfig, log *logger.Logger) (interfaces.ISnapshotStore, error) {
	var (
		db  interfaces.ISnapshotStore
		err error
	)

	switch cfg.Storage.DBType {
	case "postgres":
		db, err = NewPostgresDB(cfg, log.Named("PostgresDB"))
	case "firestore":
		db, err = NewFirestoreDB(cfg, log.Named("FirestoreDB"))
	case "memory":
		db = NewMemoryDB()
	default:
		// Default to SQLite
		db, err = NewAsyncSQLiteDB(cfg, log.Named("SQLiteDB"))
	}
	if err != nil {
		return nil, &helpers.StorageError{DashboardError: helpers.DashboardError{Message: "init snapshot store", Cause: err}}
	}

	if err := db.Initialize(ctx); err != nil {
		_ = db.Close()
		return nil, &helpers.StorageError{DashboardError: helpers.DashboardError{
			Message: fmt.Sprintf("initialize %s snapshot store", cfg.Storage.DBType),
			Cause:   err,
		}}
	}
	return db, nil
}
