// Package storage archives database exports in object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/academic-portal/apiserver/config"
	"github.com/academic-portal/apiserver/types"
)

const (
	exportKeyPrefix   = "database-export-"
	exportContentType = "application/json"
)

// ErrNotConfigured is returned when no STORAGE_BACKEND is set.
var ErrNotConfigured = errors.New("object storage is not configured")

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Bucket() string
}

// Archive stores export snapshots as JSON objects.
type Archive struct {
	backend ObjectStorage
}

func NewArchive(backend ObjectStorage) *Archive {
	return &Archive{backend: backend}
}

// NewFromConfig builds the configured backend and makes sure its bucket exists.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (*Archive, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.Backend {
	case config.BackendNone:
		return nil, ErrNotConfigured
	case config.BackendMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case config.BackendGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s storage: %w", cfg.Backend, err)
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return NewArchive(backend), nil
}

// ExportKey names the object for an export taken at t.
func ExportKey(t time.Time) string {
	return exportKeyPrefix + t.UTC().Format("2006-01-02") + ".json"
}

// Save uploads snapshot under ExportKey(at) and returns the key. A second
// export on the same day replaces the first.
func (a *Archive) Save(ctx context.Context, snapshot types.Snapshot, at time.Time) (string, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	key := ExportKey(at)
	if err := a.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), exportContentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

func (a *Archive) Load(ctx context.Context, key string) (types.Snapshot, error) {
	rc, err := a.backend.Get(ctx, key)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("open %s: %w", key, err)
	}
	defer rc.Close()

	var snapshot types.Snapshot
	if err := json.NewDecoder(rc).Decode(&snapshot); err != nil {
		return types.Snapshot{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return snapshot, nil
}

// Bucket returns the configured bucket name.
func (a *Archive) Bucket() string {
	return a.backend.Bucket()
}
