package storage

import (
	"context"
	"fmt"
)

// BlobStore gets and puts named blobs.
// Implementations never delete and do not retry beyond what their transport does.
type BlobStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, body []byte) error
}

// Op names a storage direction
type Op string

const (
	OpGet Op = "get"
	OpPut Op = "put"
)

// StorageError is returned by BlobStore implementations
type StorageError struct {
	Op     Op
	Bucket string
	Key    string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s s3://%s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
