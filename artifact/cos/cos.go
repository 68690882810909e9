// Package cos provides a Tencent Cloud Object Storage backed artifact
// store, for deployments that keep synthesized audio off the local disk.
//
// Credentials come from the COS_SECRETID and COS_SECRETKEY environment
// variables unless set through options.
package cos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	cos "github.com/tencentyun/cos-go-sdk-v5"

	"github.com/voicefin/voicefin/artifact"
)

var _ artifact.Store = (*Store)(nil)

const defaultTimeout = 60 * time.Second

// Store persists artifacts as COS objects under a key prefix.
type Store struct {
	client    *cos.Client
	prefix    string
	secretID  string
	secretKey string
	timeout   time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithSecretID sets the COS secret ID.
func WithSecretID(secretID string) Option {
	return func(s *Store) {
		s.secretID = secretID
	}
}

// WithSecretKey sets the COS secret key.
func WithSecretKey(secretKey string) Option {
	return func(s *Store) {
		s.secretKey = secretKey
	}
}

// WithPrefix sets the object key prefix, e.g. "voicefin/audio".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTimeout sets the HTTP timeout for COS calls.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.timeout = timeout
	}
}

// NewStore creates a store against the given bucket URL, e.g.
// "https://bucket.cos.ap-guangzhou.myqcloud.com".
func NewStore(bucketURL string, opts ...Option) (*Store, error) {
	s := &Store{
		secretID:  os.Getenv("COS_SECRETID"),
		secretKey: os.Getenv("COS_SECRETKEY"),
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("parse bucket url: %w", err)
	}
	s.client = cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Timeout: s.timeout,
		Transport: &cos.AuthorizationTransport{
			SecretID:  s.secretID,
			SecretKey: s.secretKey,
		},
	})
	return s, nil
}

func (s *Store) objectName(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// Save implements artifact.Store.
func (s *Store) Save(ctx context.Context, key string, art *artifact.Artifact) error {
	if art == nil {
		return fmt.Errorf("artifact cannot be nil")
	}
	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType: art.MimeType,
		},
	}
	if _, err := s.client.Object.Put(ctx, s.objectName(key), bytes.NewReader(art.Data), opt); err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Load implements artifact.Store.
func (s *Store) Load(ctx context.Context, key string) (*artifact.Artifact, error) {
	resp, err := s.client.Object.Get(ctx, s.objectName(key), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return &artifact.Artifact{
		Data:     data,
		MimeType: resp.Header.Get("Content-Type"),
		Name:     key,
	}, nil
}

// ListKeys implements artifact.Store.
func (s *Store) ListKeys(ctx context.Context) ([]string, error) {
	result, _, err := s.client.Bucket.Get(ctx, &cos.BucketGetOptions{Prefix: s.prefix})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	keys := make([]string, 0, len(result.Contents))
	for _, obj := range result.Contents {
		name := obj.Key
		if s.prefix != "" {
			name = name[len(s.prefix)+1:]
		}
		keys = append(keys, name)
	}
	return keys, nil
}

// Delete implements artifact.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Object.Delete(ctx, s.objectName(key)); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
