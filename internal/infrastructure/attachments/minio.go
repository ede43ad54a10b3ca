// Package attachments stores the binary content of file nodes in an
// S3-compatible bucket.
package attachments

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultURLExpiry = 15 * time.Minute

// Options configures the bucket connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

// Store implements repository.AttachmentStore on MinIO or S3.
type Store struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

var _ repository.AttachmentStore = (*Store)(nil)

// NewStore connects and creates the bucket when it does not exist yet.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", opts.Bucket, err)
		}
	}

	expiry := opts.URLExpiry
	if expiry <= 0 {
		expiry = defaultURLExpiry
	}
	return &Store{client: client, bucket: opts.Bucket, expiry: expiry}, nil
}

func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return appErrors.NewExternal("failed to upload attachment", err)
	}
	return nil
}

func (s *Store) URL(ctx context.Context, key string) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("inline; filename=%q", path.Base(key)))
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, params)
	if err != nil {
		return "", appErrors.NewExternal("failed to sign attachment url", err)
	}
	return u.String(), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return appErrors.NewExternal("failed to delete attachment", err)
	}
	return nil
}

// ObjectKey places an upload under its owner and workspace. The file name is
// reduced to its base name so callers cannot escape the prefix.
func ObjectKey(ownerID, workspaceID, nodeID, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = "file"
	}
	return path.Join(ownerID, workspaceID, nodeID, name)
}
