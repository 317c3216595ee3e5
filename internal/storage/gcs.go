package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/academic-portal/apiserver/config"
	"google.golang.org/api/option"
)

// Objects below the client's default chunk size are uploaded in one request.
const resumableChunkSize = 16 << 20

// GCSClient keeps exports in a Google Cloud Storage bucket. ProjectID is only
// needed when the bucket has to be created.
type GCSClient struct {
	client    *storage.Client
	bucket    string
	projectID string
}

func NewGCSClient(ctx context.Context, cfg config.GCSConfig) (*GCSClient, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSClient{client: client, bucket: cfg.Bucket, projectID: cfg.ProjectID}, nil
}

func (g *GCSClient) EnsureBucket(ctx context.Context) error {
	bucket := g.client.Bucket(g.bucket)
	_, err := bucket.Attrs(ctx)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, storage.ErrBucketNotExist):
		return err
	case g.projectID == "":
		return errors.New("gcs project id is required to create bucket")
	}
	return bucket.Create(ctx, g.projectID, nil)
}

// Put writes small exports in a single request and larger ones resumably.
func (g *GCSClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if size >= 0 && size < resumableChunkSize {
		w.ChunkSize = 0
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (g *GCSClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
}

func (g *GCSClient) Bucket() string {
	return g.bucket
}
