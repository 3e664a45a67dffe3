// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imagehost

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/olegiv/studiosite/internal/util"
)

// Backend stores an object under key and returns its public URL.
type Backend interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// LocalBackend writes objects below a directory served by the HTTP server.
type LocalBackend struct {
	dir       string
	urlPrefix string
}

// NewLocalBackend creates the upload directory if needed.
func NewLocalBackend(dir, urlPrefix string) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &LocalBackend{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
	}, nil
}

// Dir returns the directory objects are written to.
func (b *LocalBackend) Dir() string {
	return b.dir
}

// Put writes data to dir/key.
func (b *LocalBackend) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	path, err := util.SafeJoinPath(b.dir, filepath.FromSlash(key))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return b.urlPrefix + "/" + key, nil
}

// S3Config holds connection settings for an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string // Base URL for object links; defaults to endpoint/bucket
}

// S3Backend stores objects in a MinIO or S3 bucket that allows public reads.
type S3Backend struct {
	client *minio.Client
	cfg    S3Config
}

// NewS3Backend creates the client. No request is made until EnsureBucket or Put.
func NewS3Backend(cfg S3Config) (*S3Backend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return &S3Backend{client: client, cfg: cfg}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (b *S3Backend) EnsureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := b.client.MakeBucket(ctx, b.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// Put uploads data and returns the object's public URL.
func (b *S3Backend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := b.client.PutObject(ctx, b.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return b.PublicURL(key), nil
}

// PublicURL returns the URL an object is readable at.
func (b *S3Backend) PublicURL(key string) string {
	if b.cfg.PublicURL != "" {
		return strings.TrimSuffix(b.cfg.PublicURL, "/") + "/" + key
	}
	protocol := "http"
	if b.cfg.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, b.cfg.Endpoint, b.cfg.Bucket, key)
}
