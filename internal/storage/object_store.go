package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// StorageError wraps an object storage failure with the operation and path.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s '%s': %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ObjectStore is a bucket-scoped facade over MinIO.
type ObjectStore struct {
	client *minio.Client
	bucket string
}

// New creates an ObjectStore bound to one bucket.
func New(client *minio.Client, bucket string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket}
}

// Get reads the full object at path.
func (s *ObjectStore) Get(ctx context.Context, path string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, &StorageError{Op: "get", Path: path, Err: err}
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, &StorageError{Op: "get", Path: path, Err: err}
	}
	return data, nil
}

// Put writes data to path.
func (s *ObjectStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return &StorageError{Op: "put", Path: path, Err: err}
	}
	return nil
}

// Delete removes the object at path.
func (s *ObjectStore) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return &StorageError{Op: "delete", Path: path, Err: err}
	}
	return nil
}

// List returns the paths of all objects under prefix.
func (s *ObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, &StorageError{Op: "list", Path: prefix, Err: info.Err}
		}
		paths = append(paths, info.Key)
	}
	return paths, nil
}
