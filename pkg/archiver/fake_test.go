package archiver

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/oneconcern/pokedex/pkg/blobstore"
	"github.com/oneconcern/pokedex/pkg/pokeball"
	"github.com/oneconcern/pokedex/pkg/storage/status"
	"github.com/spf13/afero"
)

var _ blobstore.BlobStore = &fakeBlobs{}

// fakeBlobs is an in-memory blob store counting calls, with hooks to inject failures
type fakeBlobs struct {
	fs afero.Fs

	mu    sync.Mutex
	blobs map[pokeball.Hash][]byte
	has   int
	puts  int
	gets  int

	onPut func(pokeball.Hash) error
	onGet func(hash pokeball.Hash, localPath string) error
}

func newFakeBlobs(fs afero.Fs) *fakeBlobs {
	return &fakeBlobs{fs: fs, blobs: make(map[pokeball.Hash][]byte)}
}

func (f *fakeBlobs) Has(_ context.Context, hash pokeball.Hash) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.has++
	_, ok := f.blobs[hash]
	return ok, nil
}

func (f *fakeBlobs) Put(ctx context.Context, hash pokeball.Hash, localPath string) error {
	f.mu.Lock()
	f.puts++
	hook := f.onPut
	f.mu.Unlock()
	if hook != nil {
		if err := hook(hash); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := afero.ReadFile(f.fs, localPath)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[hash] = content
	return nil
}

func (f *fakeBlobs) Get(ctx context.Context, hash pokeball.Hash, localPath string) error {
	f.mu.Lock()
	f.gets++
	hook := f.onGet
	content, ok := f.blobs[hash]
	f.mu.Unlock()
	if hook != nil {
		if err := hook(hash, localPath); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ok {
		return status.ErrNotExists.Wrapf("%s", hash)
	}
	return afero.WriteFile(f.fs, localPath, content, 0o600)
}

func (f *fakeBlobs) set(hash pokeball.Hash, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[hash] = content
}

func (f *fakeBlobs) content(hash pokeball.Hash) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blobs[hash]
	return b, ok
}

func (f *fakeBlobs) counts() (has, puts, gets int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.has, f.puts, f.gets
}

// partialWrite simulates a transfer dying midway
func partialWrite(fs afero.Fs, localPath string, content []byte) error {
	f, err := fs.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = f.Write(content[:len(content)/2])
	if err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}
