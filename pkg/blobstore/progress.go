package blobstore

import (
	"io"

	units "github.com/docker/go-units"
	"github.com/oneconcern/pokedex/pkg/pokeball"
)

// Direction of a transfer
type Direction string

const (
	// Upload of a local file to the store
	Upload Direction = "upload"

	// Download of a blob to a local file
	Download Direction = "download"

	progressStep = 1 * units.MiB
)

// ProgressEvent reports the state of a transfer.
//
// Total is -1 when the size of the transfer is not known in advance.
type ProgressEvent struct {
	Direction   Direction
	Hash        pokeball.Hash
	Path        string
	Transferred int64
	Total       int64
	Done        bool
}

// ProgressFunc receives progress updates during transfers.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)

type progressReader struct {
	r        io.Reader
	fn       ProgressFunc
	event    ProgressEvent
	reported int64
}

func newProgressReader(r io.Reader, fn ProgressFunc, event ProgressEvent) *progressReader {
	return &progressReader{r: r, fn: fn, event: event}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.event.Transferred += int64(n)
	if p.fn != nil && p.event.Transferred-p.reported >= progressStep {
		p.reported = p.event.Transferred
		p.fn(p.event)
	}
	return n, err
}

func (p *progressReader) done() {
	if p.fn == nil {
		return
	}
	p.event.Done = true
	if p.event.Total < 0 {
		p.event.Total = p.event.Transferred
	}
	p.fn(p.event)
}
