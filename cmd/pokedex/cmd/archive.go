// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"

	"github.com/oneconcern/pokedex/pkg/archiver"
	"github.com/oneconcern/pokedex/pkg/blobstore"
	"github.com/oneconcern/pokedex/pkg/dlogger"
	"github.com/oneconcern/pokedex/pkg/fingerprint"
	"github.com/oneconcern/pokedex/pkg/pokeball"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func openBlobStore(ctx context.Context) (*blobstore.Remote, error) {
	cfg := blobstore.Config{
		S3:     config.S3,
		GCS:    config.GCS,
		Logger: logger,
	}
	if pokedexFlags.root.verbose {
		p := &progressLogger{l: logger}
		cfg.Progress = p.observe
	}
	blobs, err := blobstore.Open(ctx, config.BlobStore, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}
	logger.Debug("using blob store", zap.Stringer("blobstore", blobs))
	return blobs, nil
}

func newArchiver(cmd *cobra.Command, blobs blobstore.BlobStore, opts ...archiver.Option) (*archiver.Archiver, func(), error) {
	journal, err := dlogger.GetJournal(config.Journal)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open journal %q: %w", config.Journal, err)
	}
	printer := newResultPrinter(cmd)
	opts = append([]archiver.Option{
		archiver.Logger(logger),
		archiver.Journal(journal),
		archiver.Concurrency(config.Concurrency),
		archiver.OnResult(printer.print),
	}, opts...)
	return archiver.New(blobs, opts...), func() { _ = journal.Sync() }, nil
}

func archiveOptions() archiver.Options {
	return archiver.Options{
		Recurse: pokedexFlags.archive.recurse,
		Delete:  !pokedexFlags.archive.noDelete,
	}
}

// cleanArgs strips trailing separators. When catching, pokeballs given as arguments are dropped.
func cleanArgs(op archiver.Op, args []string) []string {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		path := archiver.CleanPath(arg)
		if op == archiver.OpCatch && pokeball.IsStubName(path) {
			logger.Debug("ignoring pokeball", zap.String("path", path))
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

type runFunc func(*archiver.Archiver, context.Context, []string, archiver.Options) *archiver.Report

func runArchiver(cmd *cobra.Command, op archiver.Op, args []string, run runFunc, opts ...archiver.Option) error {
	ctx := cmd.Context()
	paths := cleanArgs(op, args)
	if len(paths) == 0 {
		return nil
	}

	blobs, err := openBlobStore(ctx)
	if err != nil {
		return err
	}
	a, closeJournal, err := newArchiver(cmd, blobs, opts...)
	if err != nil {
		return err
	}
	defer closeJournal()

	report := run(a, ctx, paths, archiveOptions())
	newResultPrinter(cmd).summary(report)
	if report.HasFailures() {
		return errFailures.Wrapf("%d of %d", report.Count(archiver.Failed), len(report.Results()))
	}
	return nil
}

func makeFingerprint() (*fingerprint.Maker, error) {
	maker, err := fingerprint.New(fingerprint.Algorithm(config.Hash))
	if err != nil {
		return nil, fmt.Errorf("invalid hash %q (supported: %s, %s): %w", config.Hash, fingerprint.SHA256, fingerprint.Blake2b, err)
	}
	return maker, nil
}
