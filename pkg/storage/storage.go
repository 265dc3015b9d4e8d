package storage

// Package storage defines the storage abstraction for schema attachments.
// It provides a unified interface for different backends including the
// local filesystem and S3-compatible object storage (AWS S3, MinIO, OSS).

import (
	"context"
	"io"
)

// Storage defines the interface for object storage operations.
// All backends (local, S3) must implement this interface.
type Storage interface {
	// PutObject uploads a file to storage.
	// key: object key in format "{fileID}/{fileName}"
	PutObject(ctx context.Context, key string, data io.Reader, contentType string, size int64) error

	// GetObject retrieves a file from storage.
	// Returns a ReadCloser that must be closed by the caller.
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)

	// DeleteObject removes a file from storage.
	DeleteObject(ctx context.Context, key string) error

	// ObjectExists checks if an object exists in storage.
	ObjectExists(ctx context.Context, key string) (bool, error)

	// GenerateURL creates an access URL for the object.
	// For local storage: returns an API path under /api/platform/files.
	// For S3 with presigned mode: returns a presigned URL.
	GenerateURL(ctx context.Context, key string, fileName string) (string, error)

	// Type returns the storage type identifier ("local" or "s3").
	Type() string
}

// FileURLPrefix is the API route prefix for proxied attachment access.
const FileURLPrefix = "/api/platform/files/"
