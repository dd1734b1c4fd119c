// Copyright © 2018 One Concern

// Package localfs implements a storage.Store on top of a file system abstraction.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oneconcern/pokedex/pkg/storage"
	"github.com/oneconcern/pokedex/pkg/storage/status"
	"github.com/spf13/afero"
)

const putStagePrefix = ".put-"

// New creates a new local file system backed storage model
func New(fs afero.Fs) storage.Store {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), filepath.Join(".pokedex", "objects"))
	}
	return &localFS{
		fs: fs,
	}
}

type localFS struct {
	fs afero.Fs
}

func (l *localFS) Has(ctx context.Context, key string) (bool, error) {
	fi, err := l.fs.Stat(filepath.FromSlash(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return !fi.IsDir(), nil
}

func (l *localFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := l.fs.Open(filepath.FromSlash(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.ErrNotExists.Wrapf("%s: %v", key, err)
		}
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if fi.IsDir() {
		_ = f.Close()
		return nil, status.ErrNotExists.Wrapf("%s is a directory", key)
	}
	return f, nil
}

// Put stages the object in a temporary file next to its destination, then renames it into place.
func (l *localFS) Put(ctx context.Context, key string, source io.Reader, noOverWrite bool) error {
	name := filepath.FromSlash(key)
	dir := filepath.Dir(name)
	if err := l.fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("ensuring directories for %q: %v", key, err)
	}

	staged, err := afero.TempFile(l.fs, dir, putStagePrefix)
	if err != nil {
		return fmt.Errorf("create record for %q: %v", key, err)
	}
	stagedName := staged.Name()
	defer func() {
		_ = staged.Close()
		_ = l.fs.Remove(stagedName)
	}()

	if _, err = io.Copy(staged, source); err != nil {
		return fmt.Errorf("write record for %q: %v", key, err)
	}
	if err = staged.Sync(); err != nil {
		return fmt.Errorf("sync record for %q: %v", key, err)
	}
	if err = staged.Close(); err != nil {
		return err
	}

	if noOverWrite {
		has, err := l.Has(ctx, key)
		if err != nil {
			return err
		}
		if has {
			return status.ErrExists.Wrapf("%s", key)
		}
	}
	return l.fs.Rename(stagedName, name)
}

func (l *localFS) Walk(ctx context.Context, prefix string, fn func(storage.ObjectInfo) error) error {
	root := "."
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		root = filepath.FromSlash(prefix[:i])
		if root == "" {
			root = "."
		}
	}
	if _, err := l.fs.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return afero.Walk(l.fs, root, func(pth string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), putStagePrefix) {
			return nil
		}
		key := path.Clean(filepath.ToSlash(pth))
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		return fn(storage.ObjectInfo{Key: key, Size: info.Size()})
	})
}

func (l *localFS) String() string {
	const localfs = "localfs"
	switch fs := l.fs.(type) {
	case *afero.BasePathFs:
		pp, err := fs.RealPath("")
		if err != nil {
			return localfs
		}
		return localfs + "@" + pp
	case *afero.MemMapFs:
		return localfs + "@memory"
	default:
		return localfs
	}
}
