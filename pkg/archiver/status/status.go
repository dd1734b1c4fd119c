// Copyright © 2018 One Concern

// Package status declares the outcomes reported by the archiver for a path.
//
// Skips are expected conditions: there is nothing to do for the path.
// All other errors are failures: something went wrong and the path was left untouched,
// or in a state from which the same command can be re-run.
package status

import (
	"github.com/oneconcern/pokedex/pkg/errors"
	"github.com/oneconcern/pokedex/pkg/pokeball"
)

var (
	// ErrNotFound indicates that the input path does not exist
	ErrNotFound = errors.New("no such file or directory")

	// ErrAlreadyCaught indicates that catch was asked for a pokeball
	ErrAlreadyCaught = errors.New("already a pokeball")

	// ErrNotStub indicates that release was asked for a file which is not a pokeball
	ErrNotStub = errors.New("not a pokeball")

	// ErrSkippedLink indicates a symbolic link, which is never followed
	ErrSkippedLink = errors.New("skipping link")

	// ErrSkippedDirectory indicates a directory while not recursing
	ErrSkippedDirectory = errors.New("skipping directory")

	// ErrSkippedIrregular indicates a device, socket, pipe or other non-regular file
	ErrSkippedIrregular = errors.New("skipping irregular file")

	// ErrSkippedTemporary indicates a temporary file left behind by an interrupted catch or release
	ErrSkippedTemporary = errors.New("skipping temporary file")
)

var (
	// ErrMalformedStub indicates that the content of a pokeball does not parse
	ErrMalformedStub = pokeball.ErrMalformedStub

	// ErrInvalidArgument indicates a violation of the pokeball naming convention
	ErrInvalidArgument = pokeball.ErrInvalidArgument

	// ErrBlobStore indicates a failure of the blob store (transport, authorization, missing blob)
	ErrBlobStore = errors.New("blob store error")

	// ErrFilesystem indicates a local file system failure (permission, disk full, rename)
	ErrFilesystem = errors.New("filesystem error")

	// ErrHashMismatch indicates that downloaded content does not match the hash recorded in its pokeball
	ErrHashMismatch = errors.New("content hash mismatch")

	// ErrInterrupted indicates that the operation was cancelled before completion
	ErrInterrupted = errors.New("interrupted")
)

var skips = []error{
	ErrNotFound,
	ErrAlreadyCaught,
	ErrNotStub,
	ErrSkippedLink,
	ErrSkippedDirectory,
	ErrSkippedIrregular,
	ErrSkippedTemporary,
}

// IsSkip tells if err reports a skipped path rather than a failure
func IsSkip(err error) bool {
	if err == nil {
		return false
	}
	for _, skip := range skips {
		if errors.Is(err, skip) {
			return true
		}
	}
	return false
}
