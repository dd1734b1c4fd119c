// Copyright © 2018 One Concern

package archiver

import (
	"os"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// metadata carried over from an original file to its pokeball, and back
type metadata struct {
	perm  os.FileMode
	mtime time.Time
	atime time.Time
}

// metadataOf captures the metadata of a file before it is read
func (a *Archiver) metadataOf(path string, info os.FileInfo) metadata {
	m := metadata{
		perm:  info.Mode().Perm(),
		mtime: info.ModTime(),
	}
	atime, ok := a.accessTime(path)
	if !ok {
		atime = m.mtime
	}
	m.atime = atime
	return m
}

func (a *Archiver) applyMetadata(m metadata, path string) error {
	if err := a.fs.Chmod(path, m.perm); err != nil {
		return err
	}
	return a.fs.Chtimes(path, m.atime, m.mtime)
}

// accessTime of a file, when it lives on the OS file system
func (a *Archiver) accessTime(path string) (time.Time, bool) {
	var real string
	switch fs := a.fs.(type) {
	case *afero.OsFs:
		real = path
	case *afero.BasePathFs:
		p, err := fs.RealPath(path)
		if err != nil {
			return time.Time{}, false
		}
		real = p
	default:
		return time.Time{}, false
	}
	return lstatAtime(real)
}

// syncDir flushes a directory entry after a rename. Not all platforms support this: errors are ignored.
func (a *Archiver) syncDir(dir string) {
	d, err := a.fs.Open(dir)
	if err != nil {
		return
	}
	defer func() { _ = d.Close() }()
	if err := d.Sync(); err != nil {
		a.l.Debug("directory sync not supported", zap.String("path", dir), zap.Error(err))
	}
}
