// Copyright © 2018 One Concern

// Package archiver catches files into pokeballs and releases them back.
//
// Catching a file uploads its content to a blob store, keyed by the hash of the content,
// then replaces the file by a small pokeball which records this hash.
// Releasing a pokeball downloads the content and restores the original file in its place.
//
// Every step is ordered so that an interruption at any point leaves either the original
// file or its pokeball (or both) on disk, and re-running the same command completes the job.
package archiver

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/pokedex/pkg/blobstore"
	"github.com/oneconcern/pokedex/pkg/fingerprint"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Options for a catch or release run
type Options struct {
	// Recurse into directories. Without it, directories are skipped.
	Recurse bool

	// Delete the original after a catch, or the pokeball after a release.
	Delete bool
}

// DefaultOptions are those of the command line: no recursion, delete
func DefaultOptions() Options {
	return Options{Delete: true}
}

// Option configures an Archiver
type Option func(*Archiver)

// Fs sets the file system the archiver works on. The default is the OS file system.
func Fs(fs afero.Fs) Option {
	return func(a *Archiver) {
		if fs != nil {
			a.fs = fs
		}
	}
}

// Logger for the archiver
func Logger(l *zap.Logger) Option {
	return func(a *Archiver) {
		if l != nil {
			a.l = l
		}
	}
}

// Journal records every successful catch and release
func Journal(l *zap.Logger) Option {
	return func(a *Archiver) {
		if l != nil {
			a.journal = l
		}
	}
}

// Fingerprint sets the hash maker used to catch files. The default hashes with sha256.
func Fingerprint(m *fingerprint.Maker) Option {
	return func(a *Archiver) {
		if m != nil {
			a.maker = m
		}
	}
}

// Concurrency sets how many files of the same directory may be processed at once.
// The default of 1 processes files one by one.
func Concurrency(n int) Option {
	return func(a *Archiver) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// VerifyRelease hashes downloaded content before it replaces a pokeball. Enabled by default.
func VerifyRelease(enabled bool) Option {
	return func(a *Archiver) {
		a.verify = enabled
	}
}

// OnResult registers a function called as soon as a path is processed.
//
// Calls are serialized.
func OnResult(fn func(Result)) Option {
	return func(a *Archiver) {
		a.onResult = fn
	}
}

// Archiver catches and releases files against a blob store
type Archiver struct {
	blobs       blobstore.BlobStore
	fs          afero.Fs
	l           *zap.Logger
	journal     *zap.Logger
	maker       *fingerprint.Maker
	concurrency int
	verify      bool
	onResult    func(Result)

	uploads singleflight.Group
}

// New archiver working with a blob store
func New(blobs blobstore.BlobStore, opts ...Option) *Archiver {
	a := &Archiver{
		blobs:       blobs,
		fs:          afero.NewOsFs(),
		l:           zap.NewNop(),
		journal:     zap.NewNop(),
		maker:       fingerprint.MustNew(),
		concurrency: 1,
		verify:      true,
	}
	for _, apply := range opts {
		apply(a)
	}
	return a
}

// Catch a file, or the files under a directory when recursing
func (a *Archiver) Catch(ctx context.Context, path string, opts Options) *Report {
	return a.CatchAll(ctx, []string{path}, opts)
}

// CatchAll catches several paths, in order, into a single report
func (a *Archiver) CatchAll(ctx context.Context, paths []string, opts Options) *Report {
	return a.run(ctx, OpCatch, paths, opts)
}

// Release a pokeball, or the pokeballs under a directory when recursing
func (a *Archiver) Release(ctx context.Context, path string, opts Options) *Report {
	return a.ReleaseAll(ctx, []string{path}, opts)
}

// ReleaseAll releases several paths, in order, into a single report
func (a *Archiver) ReleaseAll(ctx context.Context, paths []string, opts Options) *Report {
	return a.run(ctx, OpRelease, paths, opts)
}

func (a *Archiver) run(ctx context.Context, op Op, paths []string, opts Options) *Report {
	report := newReport(op, a.onResult)
	w := walker{Archiver: a, op: op, opts: opts, report: report}
	for _, path := range paths {
		w.visit(ctx, CleanPath(path))
	}
	a.l.Debug("run complete",
		zap.String("op", string(op)),
		zap.Int("caught", report.Count(Caught)),
		zap.Int("released", report.Count(Released)),
		zap.Int("skipped", report.Count(Skipped)),
		zap.Int("failed", report.Count(Failed)),
	)
	return report
}

// CleanPath strips trailing path separators, except for the root directory
func CleanPath(path string) string {
	sep := string(os.PathSeparator)
	trimmed := strings.TrimRight(path, sep+"/")
	if trimmed == "" && path != "" {
		return sep
	}
	if vol := filepath.VolumeName(path); vol != "" && trimmed == vol {
		return vol + sep
	}
	return trimmed
}

func (a *Archiver) record(op Op, path string, res Result) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	a.journal.Info(string(op),
		zap.Stringer("hash", res.Hash),
		zap.String("path", abs),
	)
}
