// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"io"
	"sync"

	units "github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/oneconcern/pokedex/pkg/archiver"
	"github.com/oneconcern/pokedex/pkg/archiver/status"
	"github.com/oneconcern/pokedex/pkg/blobstore"
	"github.com/oneconcern/pokedex/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	okColor   = color.New(color.FgGreen)
	skipColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.FgHiBlack)
)

func infof(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func errorf(w io.Writer, format string, args ...interface{}) {
	_, _ = failColor.Fprintf(w, format+"\n", args...)
}

// quietSkips are routine on re-runs and mixed directories: the archiver logs them at debug level
var quietSkips = []error{
	status.ErrNotFound,
	status.ErrAlreadyCaught,
	status.ErrNotStub,
	status.ErrSkippedTemporary,
}

// resultPrinter prints one line per processed path
type resultPrinter struct {
	out, errOut io.Writer
}

func newResultPrinter(cmd *cobra.Command) resultPrinter {
	return resultPrinter{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
}

func (p resultPrinter) quiet(res archiver.Result) bool {
	for _, skip := range quietSkips {
		if errors.Is(res.Err, skip) {
			return true
		}
	}
	return false
}

func (p resultPrinter) print(res archiver.Result) {
	switch res.Outcome {
	case archiver.Caught:
		stored := "already stored"
		if res.Uploaded {
			stored = "uploaded"
		}
		_, _ = okColor.Fprint(p.out, "caught: ")
		infof(p.out, "%s %s\n", res.Path, dimColor.Sprintf("(%s, %s)", units.HumanSize(float64(res.Size)), stored))
	case archiver.Released:
		_, _ = okColor.Fprint(p.out, "released: ")
		infof(p.out, "%s %s\n", res.Target, dimColor.Sprintf("(%s)", units.HumanSize(float64(res.Size))))
	case archiver.Skipped:
		if p.quiet(res) {
			return
		}
		_, _ = skipColor.Fprint(p.out, "skipping: ")
		infof(p.out, "%s: %v\n", res.Path, res.Err)
	case archiver.Failed:
		_, _ = failColor.Fprint(p.errOut, "FAILED: ")
		if res.Hash.IsZero() {
			infof(p.errOut, "%s: %v\n", res.Path, res.Err)
			return
		}
		infof(p.errOut, "%s (%s): %v\n", res.Path, res.Hash, res.Err)
	}
}

func (p resultPrinter) summary(report *archiver.Report) {
	var done string
	switch report.Op {
	case archiver.OpCatch:
		done = fmt.Sprintf("caught %d", report.Count(archiver.Caught))
	default:
		done = fmt.Sprintf("released %d", report.Count(archiver.Released))
	}
	line := fmt.Sprintf("%s (%s), skipped %d, failed %d\n",
		done, units.HumanSize(float64(report.Bytes())), report.Count(archiver.Skipped), report.Count(archiver.Failed))
	if report.HasFailures() {
		_, _ = failColor.Fprint(p.out, line)
		return
	}
	infof(p.out, "%s", line)
}

// progressLogger logs transfers at debug level
type progressLogger struct {
	mu sync.Mutex
	l  *zap.Logger
}

func (p *progressLogger) observe(event blobstore.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fields := []zap.Field{
		zap.String("direction", string(event.Direction)),
		zap.String("path", event.Path),
		zap.Stringer("hash", event.Hash),
		zap.String("transferred", units.HumanSize(float64(event.Transferred))),
	}
	if event.Total >= 0 {
		fields = append(fields, zap.String("total", units.HumanSize(float64(event.Total))))
	}
	if event.Done {
		p.l.Debug("transfer complete", fields...)
		return
	}
	p.l.Debug("transferring", fields...)
}
