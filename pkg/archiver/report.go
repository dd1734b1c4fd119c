// Copyright © 2018 One Concern

package archiver

import (
	"fmt"
	"sync"

	"github.com/oneconcern/pokedex/pkg/pokeball"
	"go.uber.org/multierr"
)

// Op is the archiving operation a report describes
type Op string

const (
	// OpCatch replaces files by pokeballs
	OpCatch Op = "catch"

	// OpRelease restores files from pokeballs
	OpRelease Op = "release"
)

// Outcome of processing a single path
type Outcome int

const (
	// Caught means that the content is in the blob store and the pokeball is in place
	Caught Outcome = iota + 1

	// Released means that the original file is restored in place
	Released

	// Skipped means that there was nothing to do for this path
	Skipped

	// Failed means that the path was left untouched or in a recoverable state
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Caught:
		return "caught"
	case Released:
		return "released"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result for a single path.
//
// Target is the pokeball written by a catch, or the file restored by a release.
// Uploaded tells if a catch had to upload the content, or found it already in the blob store.
type Result struct {
	Op       Op
	Path     string
	Target   string
	Outcome  Outcome
	Hash     pokeball.Hash
	Size     int64
	Uploaded bool
	Err      error
}

// Report collects the results of a catch or release run, in processing order.
//
// A Report is safe for concurrent use.
type Report struct {
	Op Op

	mu       sync.Mutex
	results  []Result
	onResult func(Result)
}

func newReport(op Op, onResult func(Result)) *Report {
	return &Report{Op: op, onResult: onResult}
}

func (r *Report) add(res Result) {
	res.Op = r.Op
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	if r.onResult != nil {
		r.onResult(res)
	}
}

// Merge appends the results of another report
func (r *Report) Merge(other *Report) {
	if other == nil || other == r {
		return
	}
	results := other.Results()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, results...)
}

// Results returns a copy of all results
func (r *Report) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

// Count the results with a given outcome
func (r *Report) Count(outcome Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for _, res := range r.results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Bytes sums the size of the files caught or released
func (r *Report) Bytes() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, res := range r.results {
		if res.Outcome == Caught || res.Outcome == Released {
			n += res.Size
		}
	}
	return n
}

// HasFailures tells if at least one path failed
func (r *Report) HasFailures() bool {
	return r.Count(Failed) > 0
}

// Err combines all failures, or returns nil. Skips are not errors.
func (r *Report) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	for _, res := range r.results {
		if res.Outcome != Failed {
			continue
		}
		err = multierr.Append(err, res.describe())
	}
	return err
}

func (res Result) describe() error {
	if res.Hash.IsZero() {
		return fmt.Errorf("%s %s: %w", res.Op, res.Path, res.Err)
	}
	return fmt.Errorf("%s %s (%s): %w", res.Op, res.Path, res.Hash, res.Err)
}
