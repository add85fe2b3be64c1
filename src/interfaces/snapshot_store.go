package interfaces

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// ISnapshotStore keeps the last live payload of each view source so a failing
// source can be substituted with real, older data.
// -----------------------------------------------------------------------------

type ISnapshotStore interface {

	// Initialize sets up the schema or collection.
	Initialize(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// SaveSnapshot upserts the payload stored under key.
	SaveSnapshot(ctx context.Context, key string, payload []byte, capturedAt time.Time) error

	// -----------------------------------------------------------------------------

	// LoadSnapshot returns the payload under key; found is false when absent.
	LoadSnapshot(ctx context.Context, key string) (payload []byte, capturedAt time.Time, found bool, err error)

	// -----------------------------------------------------------------------------

	// Close the underlying connection
	Close() error
}
