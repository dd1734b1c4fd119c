// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
)

const (
	// OverWrite lets a Put replace an existing object
	OverWrite = false

	// NoOverWrite makes a Put fail with status.ErrExists when the object exists
	NoOverWrite = true
)

// ObjectInfo describes a stored object
type ObjectInfo struct {
	Key  string
	Size int64
}

// Store implementations know how to write entries to a K/V model.
//
// Typically this is something file system-like. Examples are S3, GCS, local FS, ...
// Implementations of this interface are assumed to be fairly simple,
// and safe for concurrent use.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader, bool) error
	Walk(context.Context, string, func(ObjectInfo) error) error
}

// Keys lists all keys with a given prefix
func Keys(ctx context.Context, store Store, prefix string) ([]string, error) {
	var keys []string
	err := store.Walk(ctx, prefix, func(info ObjectInfo) error {
		keys = append(keys, info.Key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
