// Package storage persists final recording bytes to an S3-compatible
// object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"voicebank/errs"
)

// Uploader writes recording payloads under fresh keys and returns durable
// public URLs. Upload happens strictly before the metadata commit that
// references the URL; the core never retries on its own.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error

	// KeyFromURL recovers the object key from a URL previously returned by
	// Upload.
	KeyFromURL(rawURL string) (string, error)
}

type MinioUploader struct {
	client       *minio.Client
	bucket       string
	baseURL      string
	acl          string
	cacheControl string
}

func NewMinioUploader(client *minio.Client, bucket, baseURL, acl, cacheControl string) *MinioUploader {
	return &MinioUploader{
		client:       client,
		bucket:       bucket,
		baseURL:      strings.TrimRight(baseURL, "/"),
		acl:          acl,
		cacheControl: cacheControl,
	}
}

// ObjectKey builds the persisted key layout: <prefix>/<fresh-id>.<ext>.
// The id is random, not a content hash, so a retried upload after a failed
// metadata commit gets its own key.
func ObjectKey(prefix string, id uuid.UUID, extension string) string {
	return fmt.Sprintf("%s/%s.%s", strings.Trim(prefix, "/"), id, extension)
}

func (u *MinioUploader) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: u.cacheControl,
	}
	if u.acl != "" {
		opts.UserMetadata = map[string]string{"x-amz-acl": u.acl}
	}

	if _, err := u.client.PutObject(ctx, u.bucket, key, r, size, opts); err != nil {
		return "", &errs.StorageError{
			Op:        "put",
			Key:       key,
			Transient: transient(err),
			Err:       err,
		}
	}

	return u.baseURL + "/" + key, nil
}

func (u *MinioUploader) Remove(ctx context.Context, key string) error {
	err := u.client.RemoveObject(ctx, u.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return &errs.StorageError{
			Op:        "remove",
			Key:       key,
			Transient: transient(err),
			Err:       err,
		}
	}
	return nil
}

func (u *MinioUploader) KeyFromURL(rawURL string) (string, error) {
	if key, ok := strings.CutPrefix(rawURL, u.baseURL+"/"); ok && key != "" {
		return key, nil
	}
	// Fall back to the path for URLs recorded under an older base URL.
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Path == "" {
		return "", fmt.Errorf("cannot derive object key from %q", rawURL)
	}
	return strings.TrimLeft(parsed.Path, "/"), nil
}

// transient reports whether the failure looks retryable (server-side or
// network) as opposed to a permission or bucket configuration problem.
func transient(err error) bool {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode >= 500 || resp.StatusCode == 429 {
		return true
	}
	if resp.StatusCode >= 400 {
		return false
	}
	// No S3 response at all: connection-level failure.
	return !errors.Is(err, context.Canceled)
}
