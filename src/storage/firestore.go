package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"investment-dashboard/src/logger"
	"investment-dashboard/src/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// -----------------------------------------------------------------------------

type FirestoreDB struct {
	Config *models.MConfig
	Client *firestore.Client
	Logger *logger.Logger
}

type firestoreSnapshot struct {
	Payload    []byte    `firestore:"payload"`
	CapturedAt time.Time `firestore:"captured_at"`
}

// -----------------------------------------------------------------------------

func NewFirestoreDB(cfg *models.MConfig, log *logger.Logger) (*FirestoreDB, error) {
	return &FirestoreDB{Config: cfg, Logger: log}, nil
}

// -----------------------------------------------------------------------------

func (d *FirestoreDB) Initialize(ctx context.Context) error {
	var opts []option.ClientOption
	if path := d.Config.Storage.CredentialsFile; path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}

	client, err := firestore.NewClient(ctx, d.Config.Storage.ProjectID, opts...)
	if err != nil {
		return fmt.Errorf("init firestore client: %w", err)
	}
	d.Client = client

	d.Logger.Info("Firestore snapshot store ready (project %s)", d.Config.Storage.ProjectID)
	return nil
}

// -----------------------------------------------------------------------------

func (d *FirestoreDB) collection() string {
	if d.Config.Storage.Collection != "" {
		return d.Config.Storage.Collection
	}
	return "view_snapshots"
}

// Document IDs may not contain '/', which snapshot keys do.
func docID(key string) string {
	return url.PathEscape(key)
}

// -----------------------------------------------------------------------------

func (d *FirestoreDB) SaveSnapshot(ctx context.Context, key string, payload []byte, capturedAt time.Time) error {
	ref := d.Client.Collection(d.collection()).Doc(docID(key))
	if _, err := ref.Set(ctx, firestoreSnapshot{Payload: payload, CapturedAt: capturedAt.UTC()}); err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *FirestoreDB) LoadSnapshot(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	snap, err := d.Client.Collection(d.collection()).Doc(docID(key)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("load snapshot %s: %w", key, err)
	}

	var doc firestoreSnapshot
	if err := snap.DataTo(&doc); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return doc.Payload, doc.CapturedAt.UTC(), true, nil
}

// -----------------------------------------------------------------------------

func (d *FirestoreDB) Close() error {
	if d.Client != nil {
		return d.Client.Close()
	}
	return nil
}
