// Copyright © 2018 One Concern

package archiver

import (
	"context"
	"os"
	"path/filepath"

	"github.com/oneconcern/pokedex/pkg/archiver/status"
	"github.com/oneconcern/pokedex/pkg/errors"
	"github.com/oneconcern/pokedex/pkg/pokeball"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// catch a regular file:
//   - hash the content
//   - upload the content, unless the blob store has it already
//   - write the pokeball next to the file, through a temporary file
//   - remove the file
//
// The original file is only removed once its pokeball is durable.
func (a *Archiver) catch(ctx context.Context, path string, info os.FileInfo, opts Options) Result {
	res := Result{Path: path, Outcome: Failed}
	meta := a.metadataOf(path, info)

	stubPath, err := pokeball.ToStubName(path)
	if err != nil {
		res.Err = err
		return res
	}

	hash, size, err := a.maker.File(ctx, a.fs, path)
	if err != nil {
		res.Err = failure(ctx, status.ErrFilesystem, err)
		return res
	}
	res.Hash = hash
	res.Size = size

	uploaded, err := a.ensureBlob(ctx, hash, path)
	if err != nil {
		res.Err = failure(ctx, status.ErrBlobStore, err)
		return res
	}
	res.Uploaded = uploaded

	if err = a.writeStub(stubPath, hash, meta); err != nil {
		res.Err = failure(ctx, status.ErrFilesystem, err)
		return res
	}
	res.Target = stubPath
	a.record(OpCatch, path, res)

	if opts.Delete {
		if err = a.fs.Remove(path); err != nil {
			// the pokeball is in place: catching again will only remove the original
			res.Err = status.ErrFilesystem.Wrapf("pokeball written to %s, could not remove original: %w", stubPath, err)
			return res
		}
	}

	a.l.Debug("caught",
		zap.String("path", path),
		zap.String("pokeball", stubPath),
		zap.Stringer("hash", hash),
		zap.Int64("size", size),
		zap.Bool("uploaded", uploaded),
	)
	res.Outcome = Caught
	return res
}

// ensureBlob uploads the content of path unless the blob store already has it.
//
// Concurrent calls for the same hash share a single check and upload.
// It tells if this call performed the upload.
func (a *Archiver) ensureBlob(ctx context.Context, hash pokeball.Hash, path string) (bool, error) {
	var uploaded bool
	_, err, _ := a.uploads.Do(hash.String(), func() (interface{}, error) {
		has, err := a.blobs.Has(ctx, hash)
		if err != nil {
			return nil, err
		}
		if has {
			a.l.Debug("blob already stored", zap.Stringer("hash", hash))
			return nil, nil
		}
		if err = a.blobs.Put(ctx, hash, path); err != nil {
			return nil, err
		}
		uploaded = true
		return nil, nil
	})
	return uploaded, err
}

// writeStub publishes the pokeball for hash at stubPath, carrying over the metadata of the original file
func (a *Archiver) writeStub(stubPath string, hash pokeball.Hash, meta metadata) (err error) {
	dir := filepath.Dir(stubPath)
	tmp, err := afero.TempFile(a.fs, dir, tempPattern(stubPath, ".pokeball"))
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = a.fs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(pokeball.Encode(hash)); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	if err = a.applyMetadata(meta, tmpName); err != nil {
		return err
	}
	if err = a.fs.Rename(tmpName, stubPath); err != nil {
		return err
	}
	a.syncDir(dir)
	return nil
}

// failure classifies err as an interruption when the context is done, or as kind otherwise
func failure(ctx context.Context, kind *errors.Error, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return status.ErrInterrupted.Wrap(err)
	}
	for _, known := range []error{status.ErrMalformedStub, status.ErrInvalidArgument, status.ErrHashMismatch} {
		if errors.Is(err, known) {
			return err
		}
	}
	return kind.Wrap(err)
}
