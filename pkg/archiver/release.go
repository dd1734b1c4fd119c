// Copyright © 2018 One Concern

package archiver

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/oneconcern/pokedex/pkg/archiver/status"
	"github.com/oneconcern/pokedex/pkg/errors"
	"github.com/oneconcern/pokedex/pkg/fingerprint"
	"github.com/oneconcern/pokedex/pkg/pokeball"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// release a pokeball:
//   - decode the pokeball
//   - download the content to a temporary file next to the target
//   - check the content against the hash
//   - rename the temporary file onto the target
//   - remove the pokeball
//
// The target is never observed partially written, and an existing target is replaced.
func (a *Archiver) release(ctx context.Context, stubPath string, info os.FileInfo, opts Options) Result {
	res := Result{Path: stubPath, Outcome: Failed}
	meta := a.metadataOf(stubPath, info)

	stub, err := a.readStub(stubPath)
	if err != nil {
		res.Err = failure(ctx, status.ErrFilesystem, err)
		return res
	}
	res.Hash = stub.Hash

	target, err := pokeball.FromStubName(stubPath)
	if err != nil {
		res.Err = err
		return res
	}

	size, err := a.restore(ctx, stub, target, meta)
	if err != nil {
		res.Err = err
		return res
	}
	res.Target = target
	res.Size = size
	a.record(OpRelease, target, res)

	if opts.Delete {
		if err = a.fs.Remove(stubPath); err != nil {
			res.Err = status.ErrFilesystem.Wrapf("%s restored, could not remove pokeball: %w", target, err)
			return res
		}
	}

	a.l.Debug("released",
		zap.String("pokeball", stubPath),
		zap.String("path", target),
		zap.Stringer("hash", stub.Hash),
		zap.Int64("size", size),
	)
	res.Outcome = Released
	return res
}

func (a *Archiver) readStub(stubPath string) (pokeball.Stub, error) {
	f, err := a.fs.Open(stubPath)
	if err != nil {
		return pokeball.Stub{}, err
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, pokeball.MaxStubSize+1))
	if err != nil {
		return pokeball.Stub{}, err
	}
	if len(content) > pokeball.MaxStubSize {
		return pokeball.Stub{}, status.ErrMalformedStub.Wrapf("larger than %d bytes", pokeball.MaxStubSize)
	}
	return pokeball.DecodeStub(content)
}

// restore downloads the content of a pokeball onto target, and returns its size
func (a *Archiver) restore(ctx context.Context, stub pokeball.Stub, target string, meta metadata) (int64, error) {
	dir := filepath.Dir(target)
	tmp, err := afero.TempFile(a.fs, dir, tempPattern(target, ""))
	if err != nil {
		return 0, status.ErrFilesystem.Wrap(err)
	}
	tmpName := tmp.Name()
	_ = tmp.Close()
	defer func() {
		// no-op once the temporary file is renamed
		_ = a.fs.Remove(tmpName)
	}()

	if err = a.blobs.Get(ctx, stub.Hash, tmpName); err != nil {
		return 0, failure(ctx, status.ErrBlobStore, err)
	}

	size, err := a.verifyContent(ctx, stub, tmpName)
	if err != nil {
		return 0, failure(ctx, status.ErrFilesystem, err)
	}

	if err = a.applyMetadata(meta, tmpName); err != nil {
		return 0, status.ErrFilesystem.Wrap(err)
	}
	if err = a.fs.Rename(tmpName, target); err != nil {
		return 0, status.ErrFilesystem.Wrap(err)
	}
	a.syncDir(dir)
	return size, nil
}

// verifyContent checks downloaded content against the pokeball. When verification is
// disabled, or the hash algorithm is unknown, only the size is reported.
func (a *Archiver) verifyContent(ctx context.Context, stub pokeball.Stub, path string) (int64, error) {
	if !a.verify {
		return a.sizeOf(path)
	}

	maker, err := fingerprint.ForHash(stub.Hash)
	if err != nil {
		if errors.Is(err, fingerprint.ErrUnsupportedAlgorithm) {
			a.l.Warn("cannot verify content: unsupported hash algorithm", zap.Stringer("hash", stub.Hash), zap.String("path", path))
			return a.sizeOf(path)
		}
		return 0, err
	}

	hash, size, err := maker.File(ctx, a.fs, path)
	if err != nil {
		return 0, err
	}
	if hash != stub.Hash {
		return 0, status.ErrHashMismatch.Wrapf("expected %s, got %s", stub.Hash, hash)
	}
	if stub.Size >= 0 && stub.Size != size {
		return 0, status.ErrHashMismatch.Wrapf("expected %d bytes, got %d", stub.Size, size)
	}
	return size, nil
}

func (a *Archiver) sizeOf(path string) (int64, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
