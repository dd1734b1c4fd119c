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
	"golang.org/x/sync/errgroup"
)

type kind int

const (
	kindMissing kind = iota
	kindLink
	kindDir
	kindRegular
	kindIrregular
)

// walker applies the catch or release policy to paths, descending into directories.
//
// Within a directory, all non-directory entries are handled first, then sub-directories
// one at a time, in name order.
type walker struct {
	*Archiver
	op     Op
	opts   Options
	report *Report
}

func (w walker) visit(ctx context.Context, path string) {
	if err := ctx.Err(); err != nil {
		w.fail(path, status.ErrInterrupted.Wrap(err))
		return
	}

	info, k, err := w.classify(path)
	if err != nil {
		w.fail(path, status.ErrFilesystem.Wrap(err))
		return
	}

	switch {
	case k == kindMissing:
		w.skip(path, status.ErrNotFound)
		return
	case k != kindDir && isTempName(path):
		w.skip(path, status.ErrSkippedTemporary)
		return
	case w.op == OpCatch && pokeball.IsStubName(path):
		w.skip(path, status.ErrAlreadyCaught)
		return
	case k == kindLink:
		w.skip(path, status.ErrSkippedLink)
		return
	case k == kindDir:
		if !w.opts.Recurse {
			w.skip(path, status.ErrSkippedDirectory)
			return
		}
		w.visitDir(ctx, path)
		return
	case w.op == OpRelease && !pokeball.IsStubName(path):
		w.skip(path, status.ErrNotStub)
		return
	case k == kindIrregular:
		w.skip(path, status.ErrSkippedIrregular)
		return
	}

	var res Result
	if w.op == OpCatch {
		res = w.catch(ctx, path, info, w.opts)
	} else {
		res = w.release(ctx, path, info, w.opts)
	}
	w.report.add(res)
}

func (w walker) visitDir(ctx context.Context, dir string) {
	entries, err := afero.ReadDir(w.fs, dir)
	if err != nil {
		w.fail(dir, status.ErrFilesystem.Wrap(err))
		return
	}

	var files, dirs []string
	for _, entry := range entries {
		child := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			dirs = append(dirs, child)
			continue
		}
		files = append(files, child)
	}
	w.l.Debug("visiting directory", zap.String("path", dir), zap.Int("files", len(files)), zap.Int("directories", len(dirs)))

	w.visitBatch(ctx, files)
	for _, sub := range dirs {
		w.visit(ctx, sub)
	}
}

func (w walker) visitBatch(ctx context.Context, files []string) {
	if w.concurrency <= 1 || len(files) <= 1 {
		for _, file := range files {
			w.visit(ctx, file)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for _, file := range files {
		file := file
		g.Go(func() error {
			w.visit(ctx, file)
			return nil
		})
	}
	_ = g.Wait()
}

func (w walker) classify(path string) (os.FileInfo, kind, error) {
	var (
		info os.FileInfo
		err  error
	)
	if lstater, ok := w.fs.(afero.Lstater); ok {
		info, _, err = lstater.LstatIfPossible(path)
	} else {
		info, err = w.fs.Stat(path)
	}
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
			return nil, kindMissing, nil
		}
		return nil, kindMissing, err
	}

	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return info, kindLink, nil
	case mode.IsDir():
		return info, kindDir, nil
	case mode.IsRegular():
		return info, kindRegular, nil
	default:
		return info, kindIrregular, nil
	}
}

func (w walker) skip(path string, reason error) {
	w.l.Debug("skipping", zap.String("op", string(w.op)), zap.String("path", path), zap.Error(reason))
	w.report.add(Result{Path: path, Outcome: Skipped, Err: reason})
}

func (w walker) fail(path string, err error) {
	w.l.Debug("failed", zap.String("op", string(w.op)), zap.String("path", path), zap.Error(err))
	w.report.add(Result{Path: path, Outcome: Failed, Err: err})
}
