package blobstore

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/oneconcern/pokedex/pkg/errors"
	"github.com/oneconcern/pokedex/pkg/pokeball"
	"github.com/oneconcern/pokedex/pkg/storage"
	"github.com/oneconcern/pokedex/pkg/storage/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultPrefix is the key prefix under which blobs are stored
const DefaultPrefix = "blobs/"

// BlobStore is a content-addressed store of file contents.
//
// Implementations must be safe for concurrent use. Put must be idempotent:
// uploading the same hash twice with identical content is not an error.
type BlobStore interface {
	Has(ctx context.Context, hash pokeball.Hash) (bool, error)
	Put(ctx context.Context, hash pokeball.Hash, localPath string) error
	Get(ctx context.Context, hash pokeball.Hash, localPath string) error
}

var _ BlobStore = &Remote{}

// Usage summarizes the content of a blob store
type Usage struct {
	Blobs int
	Bytes int64
}

// Option for a Remote blob store
type Option func(*Remote)

// Prefix sets the key prefix for blobs. It defaults to "blobs/".
func Prefix(prefix string) Option {
	return func(r *Remote) {
		r.prefix = prefix
	}
}

// Fs sets the file system where local files are read and written. It defaults to the OS file system.
func Fs(fs afero.Fs) Option {
	return func(r *Remote) {
		if fs != nil {
			r.fs = fs
		}
	}
}

// Progress sets a callback observing transfers
func Progress(fn ProgressFunc) Option {
	return func(r *Remote) {
		r.progress = fn
	}
}

// Logger for the blob store
func Logger(l *zap.Logger) Option {
	return func(r *Remote) {
		if l != nil {
			r.l = l
		}
	}
}

// Remote is a BlobStore backed by a storage.Store
type Remote struct {
	store    storage.Store
	prefix   string
	fs       afero.Fs
	progress ProgressFunc
	l        *zap.Logger
}

// New blob store on top of a storage backend
func New(store storage.Store, opts ...Option) *Remote {
	r := &Remote{
		store:  store,
		prefix: DefaultPrefix,
		fs:     afero.NewOsFs(),
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(r)
	}
	if r.prefix != "" && !strings.HasSuffix(r.prefix, "/") {
		r.prefix += "/"
	}
	return r
}

func (r *Remote) String() string {
	return r.store.String() + "/" + r.prefix
}

// Key under which a blob is stored
func (r *Remote) Key(hash pokeball.Hash) string {
	return r.prefix + hash.String()
}

// Has tells if a blob exists for hash
func (r *Remote) Has(ctx context.Context, hash pokeball.Hash) (bool, error) {
	if err := hash.Validate(); err != nil {
		return false, err
	}
	return r.store.Has(ctx, r.Key(hash))
}

// Put uploads the content of the local file under hash.
//
// The blob is written only if it does not exist yet: blobs are immutable.
func (r *Remote) Put(ctx context.Context, hash pokeball.Hash, localPath string) error {
	if err := hash.Validate(); err != nil {
		return err
	}
	f, err := r.fs.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	total := int64(-1)
	if fi, err := f.Stat(); err == nil {
		total = fi.Size()
	}

	rdr := newProgressReader(f, r.progress, ProgressEvent{
		Direction: Upload,
		Hash:      hash,
		Path:      localPath,
		Total:     total,
	})

	err = r.store.Put(ctx, r.Key(hash), rdr, storage.NoOverWrite)
	if errors.Is(err, status.ErrExists) {
		r.l.Debug("blob already exists", zap.Stringer("hash", hash))
		return nil
	}
	if err != nil {
		return err
	}
	rdr.done()
	return nil
}

// Get downloads the blob for hash into the local file, which is created or truncated
func (r *Remote) Get(ctx context.Context, hash pokeball.Hash, localPath string) error {
	if err := hash.Validate(); err != nil {
		return err
	}
	blob, err := r.store.Get(ctx, r.Key(hash))
	if err != nil {
		return err
	}
	defer blob.Close()

	total := int64(-1)
	if st, ok := blob.(interface{ Stat() (os.FileInfo, error) }); ok {
		if fi, err := st.Stat(); err == nil {
			total = fi.Size()
		}
	}

	f, err := r.fs.OpenFile(localPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	rdr := newProgressReader(blob, r.progress, ProgressEvent{
		Direction: Download,
		Hash:      hash,
		Path:      localPath,
		Total:     total,
	})
	if _, err = io.Copy(f, contextReader{ctx: ctx, r: rdr}); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	rdr.done()
	return nil
}

// Usage counts blobs and their total size
func (r *Remote) Usage(ctx context.Context) (Usage, error) {
	var u Usage
	err := r.store.Walk(ctx, r.prefix, func(info storage.ObjectInfo) error {
		u.Blobs++
		u.Bytes += info.Size
		return nil
	})
	return u, err
}

// contextReader interrupts a copy when the context is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
