// Copyright © 2018 One Concern

// Package gcs implements a storage.Store on Google Cloud Storage.
package gcs

import (
	"context"
	"io"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/oneconcern/pokedex/pkg/errors"
	"github.com/oneconcern/pokedex/pkg/storage"
	"github.com/oneconcern/pokedex/pkg/storage/status"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type gcs struct {
	client         *gcsStorage.Client
	readOnlyClient *gcsStorage.Client
	bucket         string
	l              *zap.Logger
}

// New GCS store. Clients are built eagerly, with credentials from credentialFile when not empty,
// or from the application default credentials otherwise.
func New(ctx context.Context, bucket, credentialFile string, opts ...Option) (storage.Store, error) {
	if bucket == "" {
		return nil, status.ErrInvalidResource.Wrapf("gcs bucket is required")
	}
	googleStore := &gcs{
		bucket: bucket,
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(googleStore)
	}

	var err error
	googleStore.readOnlyClient, err = gcsStorage.NewClient(ctx, clientOptions(credentialFile, gcsStorage.ScopeReadOnly)...)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	googleStore.client, err = gcsStorage.NewClient(ctx, clientOptions(credentialFile, gcsStorage.ScopeReadWrite)...)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return googleStore, nil
}

func clientOptions(credentialFile, scope string) []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(scope)}
	if credentialFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialFile))
	}
	return opts
}

func (g *gcs) String() string {
	return "gs://" + g.bucket
}

func (g *gcs) Has(ctx context.Context, objectName string) (bool, error) {
	_, err := g.readOnlyClient.Bucket(g.bucket).Object(objectName).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcsStorage.ErrObjectNotExist) {
			return false, nil
		}
		return false, toSentinelErrors(err)
	}
	return true, nil
}

func (g *gcs) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	objectReader, err := g.readOnlyClient.Bucket(g.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return objectReader, nil
}

func (g *gcs) Put(ctx context.Context, objectName string, reader io.Reader, noOverWrite bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	object := g.client.Bucket(g.bucket).Object(objectName)
	if noOverWrite {
		object = object.If(gcsStorage.Conditions{DoesNotExist: true})
	}
	writer := object.NewWriter(ctx)
	if _, err := io.Copy(writer, reader); err != nil {
		// cancelling the context aborts the upload
		cancel()
		_ = writer.Close()
		return toSentinelErrors(err)
	}
	if err := writer.Close(); err != nil {
		g.l.Debug("gcs put failed", zap.String("object", objectName), zap.Error(err))
		return toSentinelErrors(err)
	}
	return nil
}

func (g *gcs) Walk(ctx context.Context, prefix string, fn func(storage.ObjectInfo) error) error {
	objectsIterator := g.readOnlyClient.Bucket(g.bucket).Objects(ctx, &gcsStorage.Query{Prefix: prefix})
	for {
		attrs, err := objectsIterator.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return toSentinelErrors(err)
		}
		if err = fn(storage.ObjectInfo{Key: attrs.Name, Size: attrs.Size}); err != nil {
			return err
		}
	}
}
