package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const gsScheme = "gs://"

// Resolver turns a stored image reference into a URL a client can fetch.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Passthrough returns references unchanged. Used when no bucket is configured.
type Passthrough struct{}

func (Passthrough) Resolve(_ context.Context, ref string) (string, error) { return ref, nil }

// GCSStore signs gs:// references and uploads listing images.
type GCSStore struct {
	client *storage.Client
	bucket string
	ttl    time.Duration
}

func NewGCSStore(ctx context.Context, bucket string, ttl time.Duration) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("STORAGE_BUCKET is not set")
	}
	// signed URLs need a service account identity
	creds, err := google.FindDefaultCredentials(ctx, storage.ScopeReadWrite)
	if err != nil {
		return nil, fmt.Errorf("storage credentials: %w", err)
	}
	client, err := storage.NewClient(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &GCSStore{client: client, bucket: bucket, ttl: ttl}, nil
}

// Resolve signs gs://bucket/object references. Anything else (plain https
// URLs, empty strings) is returned as is.
func (s *GCSStore) Resolve(_ context.Context, ref string) (string, error) {
	bucket, object, ok := SplitRef(ref)
	if !ok {
		return ref, nil
	}
	return s.client.Bucket(bucket).SignedURL(object, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(s.ttl),
		Scheme:  storage.SigningSchemeV4,
	})
}

// Upload writes an image under listings/ and returns its gs:// reference.
func (s *GCSStore) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	objectPath := fmt.Sprintf("listings/%s-%s", uuid.NewString(), name)
	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return gsScheme + s.bucket + "/" + objectPath, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// SplitRef parses gs://bucket/object.
func SplitRef(ref string) (bucket, object string, ok bool) {
	if !strings.HasPrefix(ref, gsScheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(ref, gsScheme)
	i := strings.IndexByte(rest, '/')
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}
