package archiver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/oneconcern/pokedex/pkg/archiver/status"
	"github.com/oneconcern/pokedex/pkg/errors"
	"github.com/oneconcern/pokedex/pkg/pokeball"
	storagestatus "github.com/oneconcern/pokedex/pkg/storage/status"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const (
	helloDigest = "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03"
	helloStub   = "POKEBALL\nsha256_" + helloDigest + "\n"
)

var (
	helloHash = pokeball.Hash{Algorithm: "sha256", Digest: helloDigest}
	someTime  = time.Date(2019, 3, 14, 15, 9, 26, 0, time.UTC)
)

// opencensus stats collection goroutine, started on init by the GCS client linked in by the blob store backends
var ignoreOpencensus = goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start")

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, ignoreOpencensus)
}

func fixture(t testing.TB, opts ...Option) (afero.Fs, *fakeBlobs, *Archiver) {
	fs := afero.NewMemMapFs()
	blobs := newFakeBlobs(fs)
	opts = append([]Option{Fs(fs), Logger(zaptest.NewLogger(t))}, opts...)
	return fs, blobs, New(blobs, opts...)
}

func writeFile(t testing.TB, fs afero.Fs, path, content string) {
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o640))
	require.NoError(t, fs.Chtimes(path, someTime, someTime))
}

func readFile(t testing.TB, fs afero.Fs, path string) string {
	b, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(b)
}

func exists(t testing.TB, fs afero.Fs, path string) bool {
	ok, err := afero.Exists(fs, path)
	require.NoError(t, err)
	return ok
}

func names(t testing.TB, fs afero.Fs, dir string) []string {
	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.Name())
	}
	return out
}

func paths(report *Report) []string {
	var out []string
	for _, res := range report.Results() {
		out = append(out, res.Path)
	}
	return out
}

func single(t testing.TB, report *Report) Result {
	results := report.Results()
	require.Len(t, results, 1)
	return results[0]
}

func TestCatchRelease(t *testing.T) {
	ctx := context.Background()
	fs, blobs, a := fixture(t)
	writeFile(t, fs, "/work/notes.txt", "hello\n")

	caught := single(t, a.Catch(ctx, "/work/notes.txt", DefaultOptions()))
	require.NoError(t, caught.Err)
	assert.Equal(t, Caught, caught.Outcome)
	assert.Equal(t, OpCatch, caught.Op)
	assert.Equal(t, "/work/notes.txt__pokeball", caught.Target)
	assert.Equal(t, helloHash, caught.Hash)
	assert.EqualValues(t, 6, caught.Size)
	assert.True(t, caught.Uploaded)

	assert.False(t, exists(t, fs, "/work/notes.txt"))
	assert.Equal(t, helloStub, readFile(t, fs, "/work/notes.txt__pokeball"))
	assert.Equal(t, []string{"notes.txt__pokeball"}, names(t, fs, "/work"))

	content, ok := blobs.content(helloHash)
	require.True(t, ok)
	assert.Equal(t, "hello\n", string(content))

	info, err := fs.Stat("/work/notes.txt__pokeball")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	assert.True(t, someTime.Equal(info.ModTime()))

	released := single(t, a.Release(ctx, "/work/notes.txt__pokeball", DefaultOptions()))
	require.NoError(t, released.Err)
	assert.Equal(t, Released, released.Outcome)
	assert.Equal(t, "/work/notes.txt", released.Target)
	assert.Equal(t, helloHash, released.Hash)
	assert.EqualValues(t, 6, released.Size)

	assert.Equal(t, "hello\n", readFile(t, fs, "/work/notes.txt"))
	assert.Equal(t, []string{"notes.txt"}, names(t, fs, "/work"))

	info, err = fs.Stat("/work/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	assert.True(t, someTime.Equal(info.ModTime()))
}

func TestCatchIdempotent(t *testing.T) {
	ctx := context.Background()
	fs, blobs, a := fixture(t)
	writeFile(t, fs, "/work/notes.txt", "hello\n")

	require.False(t, a.Catch(ctx, "/work/notes.txt", DefaultOptions()).HasFailures())

	again := single(t, a.Catch(ctx, "/work/notes.txt", DefaultOptions()))
	assert.Equal(t, Skipped, again.Outcome)
	assert.True(t, errors.Is(again.Err, status.ErrNotFound))

	stub := single(t, a.Catch(ctx, "/work/notes.txt__pokeball", DefaultOptions()))
	assert.Equal(t, Skipped, stub.Outcome)
	assert.True(t, errors.Is(stub.Err, status.ErrAlreadyCaught))
	assert.Equal(t, helloStub, readFile(t, fs, "/work/notes.txt__pokeball"))

	_, puts, _ := blobs.counts()
	assert.Equal(t, 1, puts)
}

func TestCatchExistingBlob(t *testing.T) {
	ctx := context.Background()
	fs, blobs, a := fixture(t)
	writeFile(t, fs, "/work/notes.txt", "hello\n")
	blobs.set(helloHash, []byte("hello\n"))

	res := single(t, a.Catch(ctx, "/work/notes.txt", DefaultOptions()))
	require.NoError(t, res.Err)
	assert.Equal(t, Caught, res.Outcome)
	assert.False(t, res.Uploaded)

	has, puts, _ := blobs.counts()
	assert.Equal(t, 1, has)
	assert.Equal(t, 0, puts)
}

func TestCatchDeduplicates(t *testing.T) {
	ctx := context.Background()
	fs, blobs, a := fixture(t)
	writeFile(t, fs, "/work/a.txt", "hello\n")
	writeFile(t, fs, "/work/b.txt", "hello\n")

	report := a.Catch(ctx, "/work", Options{Recurse: true, Delete: true})
	require.NoError(t, report.Err())
	assert.Equal(t, 2, report.Count(Caught))

	results := report.Results()
	assert.True(t, results[0].Uploaded)
	assert.False(t, results[1].Uploaded)
	assert.Equal(t, results[0].Hash, results[1].Hash)

	has, puts, _ := blobs.counts()
	assert.Equal(t, 2, has)
	assert.Equal(t, 1, puts)
	assert.Equal(t, helloStub, readFile(t, fs, "/work/a.txt__pokeball"))
	assert.Equal(t, helloStub, readFile(t, fs, "/work/b.txt__pokeball"))
}

func TestCatchNoDelete(t *testing.T) {
	ctx := context.Background()
	fs, _, a := fixture(t)
	writeFile(t, fs, "/work/notes.txt", "hello\n")

	res := single(t, a.Catch(ctx, "/work/notes.txt", Options{}))
	require.NoError(t, res.Err)
	assert.Equal(t, "hello\n", readFile(t, fs, "/work/notes.txt"))
	assert.Equal(t, helloStub, readFile(t, fs, "/work/notes.txt__pokeball"))

	released := single(t, a.Release(ctx, "/work/notes.txt__pokeball", Options{}))
	require.NoError(t, released.Err)
	assert.Equal(t, "hello\n", readFile(t, fs, "/work/notes.txt"))
	assert.True(t, exists(t, fs, "/work/notes.txt__pokeball"))
}

func TestCatchEmptyFile(t *testing.T) {
	ctx := context.Background()
	fs, _, a := fixture(t)
	writeFile(t, fs, "/work/empty", "")

	res := single(t, a.Catch(ctx, "/work/empty", DefaultOptions()))
	require.NoError(t, res.Err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", res.Hash.Digest)

	res = single(t, a.Release(ctx, "/work/empty__pokeball", DefaultOptions()))
	require.NoError(t, res.Err)
	assert.Equal(t, "", readFile(t, fs, "/work/empty"))
}

func TestCatchUploadFailure(t *testing.T) {
	ctx := context.Background()
	fs, blobs, a := fixture(t)
	writeFile(t, fs, "/work/notes.txt", "hello\n")
	blobs.onPut = func(pokeball.Hash) error { return fmt.Errorf("access denied") }

	report := a.Catch(ctx, "/work/notes.txt", DefaultOptions())
	res := single(t, report)
	assert.Equal(t, Failed, res.Outcome)
	assert.True(t, errors.Is(res.Err, status.ErrBlobStore))
	assert.Contains(t, res.Err.Error(), "access denied")
	assert.Equal(t, helloHash, res.Hash)

	assert.Equal(t, []string{"notes.txt"}, names(t, fs, "/work"))

	require.Error(t, report.Err())
	assert.Contains(t, report.Err().Error(), "/work/notes.txt")
	assert.Contains(t, report.Err().Error(), helloHash.String())
}

func TestSkipDirectory(t *testing.T) {
	ctx := context.Background()
	fs, _, a := fixture(t)
	writeFile(t, fs, "/photos/cat.jpg", "meow")

	res := single(t, a.Catch(ctx, "/photos", DefaultOptions()))
	assert.Equal(t, Skipped, res.Outcome)
	assert.True(t, errors.Is(res.Err, status.ErrSkippedDirectory))
	assert.Equal(t, []string{"cat.jpg"}, names(t, fs, "/photos"))

	res = single(t, a.Release(ctx, "/photos", DefaultOptions()))
	assert.True(t, errors.Is(res.Err, status.ErrSkippedDirectory))
}

func TestSkipTemporary(t *testing.T) {
	ctx := context.Background()
	fs, blobs, a := fixture(t)
	// left behind by a killed catch, then a killed release
	writeFile(t, fs, "/work/.notes.txt__pokeball.pokeball-123__TEMP", helloStub)
	writeFile(t, fs, "/work/.notes.txt-456__TEMP", "hel")
	writeFile(t, fs, "/work/notes.txt__pokeball", helloStub)
	blobs.set(helloHash, []byte("hello\n"))

	report := a.Catch(ctx, "/work", Options{Recurse: true, Delete: true})
	require.NoError(t, report.Err())
	assert.Equal(t, 3, report.Count(Skipped))
	for _, res := range report.Results() {
		if strings.HasSuffix(res.Path, "__TEMP") {
			assert.Truef(t, errors.Is(res.Err, status.ErrSkippedTemporary), "%s: %v", res.Path, res.Err)
		}
	}
	_, puts, _ := blobs.counts()
	assert.Zero(t, puts)

	report = a.Release(ctx, "/work", Options{Recurse: true, Delete: true})
	require.NoError(t, report.Err())
	assert.Equal(t, 1, report.Count(Released))
	assert.Equal(t, 2, report.Count(Skipped))
	assert.Equal(t, "hello\n", readFile(t, fs, "/work/notes.txt"))
	assert.Equal(t, "hel", readFile(t, fs, "/work/.notes.txt-456__TEMP"))
}

func TestTempPattern(t *testing.T) {
	assert.Equal(t, ".notes.txt-*__TEMP", tempPattern("/work/notes.txt", ""))
	assert.Equal(t, ".notes.txt__pokeball.pokeball-*__TEMP", tempPattern("/work/notes.txt__pokeball", ".pokeball"))

	long := tempPattern("/work/"+strings.Repeat("n", 240), "")
	assert.Equal(t, "."+strings.Repeat("n", maxTempPrefix)+"-*__TEMP", long)

	// multi-byte runes are never split
	wide := tempPattern(strings.Repeat("é", 40), ".pokeball")
	assert.True(t, utf8.ValidString(wide))
	assert.LessOrEqual(t, len(wide), maxTempPrefix+len(".-*.pokeball__TEMP"))

	assert.True(t, isTempName("/work/.notes.txt-4242__TEMP"))
	assert.False(t, isTempName("/work/notes.txt__TEMP"))
	assert.False(t, isTempName("/work/.profile"))
}

func TestReleaseNotStub(t *testing.T) {
	ctx := context.Background()
	fs, blobs, a := fixture(t)
	writeFile(t, fs, "/work/notes.txt", "hello\n")

	res := single(t, a.Release(ctx, "/work/notes.txt", DefaultOptions()))
	assert.Equal(t, Skipped, res.Outcome)
	assert.True(t, errors.Is(res.Err, status.ErrNotStub))
	assert.Equal(t, "hello\n", readFile(t, fs, "/work/notes.txt"))

	res = single(t, a.Release(ctx, "/work/missing__pokeball", DefaultOptions()))
	assert.True(t, errors.Is(res.Err, status.ErrNotFound))

	_, _, gets := blobs.counts()
	assert.Zero(t, gets)
}

func TestTraversalOrder(t *testing.T) {
	ctx := context.Background()
	fs, _, a := fixture(t)
	for _, path := range []string{
		"/tree/z.txt",
		"/tree/b.txt",
		"/tree/sub/c.txt",
		"/tree/sub/deeper/d.txt",
		"/tree/a.txt",
		"/tree/other/e.txt",
	} {
		writeFile(t, fs, path, path)
	}

	report := a.Catch(ctx, "/tree/", Options{Recurse: true, Delete: true})
	require.NoError(t, report.Err())
	assert.Equal(t, []string{
		"/tree/a.txt",
		"/tree/b.txt",
		"/tree/z.txt",
		"/tree/other/e.txt",
		"/tree/sub/c.txt",
		"/tree/sub/deeper/d.txt",
	}, paths(report))

	// pokeballs are skipped on a second pass
	again := a.Catch(ctx, "/tree", Options{Recurse: true, Delete: true})
	assert.Equal(t, 6, again.Count(Skipped))
	assert.False(t, again.HasFailures())

	released := a.Release(ctx, "/tree", Options{Recurse: true, Delete: true})
	require.NoError(t, released.Err())
	assert.Equal(t, 6, released.Count(Released))
	assert.Equal(t, "/tree/sub/deeper/d.txt", readFile(t, fs, "/tree/sub/deeper/d.txt"))
	assert.Equal(t, []string{"a.txt", "b.txt", "other", "sub", "z.txt"}, names(t, fs, "/tree"))
}

func TestReleaseMixedDirectory(t *testing.T) {
	ctx := context.Background()
	fs, blobs, a := fixture(t)
	writeFile(t, fs, "/mixed/keep.txt", "not archived")
	writeFile(t, fs, "/mixed/notes.txt__pokeball", helloStub)
	blobs.set(helloHash, []byte("hello\n"))

	report := a.Release(ctx, "/mixed", Options{Recurse: true, Delete: true})
	require.NoError(t, report.Err())
	assert.Equal(t, 1, report.Count(Released))
	assert.Equal(t, 1, report.Count(Skipped))
	assert.Equal(t, "not archived", readFile(t, fs, "/mixed/keep.txt"))
	assert.Equal(t, "hello\n", readFile(t, fs, "/mixed/notes.txt"))
}

func TestReleaseOverwritesTarget(t *testing.T) {
	ctx := context.Background()
	fs, blobs, a := fixture(t)
	writeFile(t, fs, "/work/notes.txt", "stale content")
	writeFile(t, fs, "/work/notes.txt__pokeball", helloStub)
	blobs.set(helloHash, []byte("hello\n"))

	res := single(t, a.Release(ctx, "/work/notes.txt__pokeball", DefaultOptions()))
	require.NoError(t, res.Err)
	assert.Equal(t, "hello\n", readFile(t, fs, "/work/notes.txt"))
}

func TestReleaseMalformed(t *testing.T) {
	ctx := context.Background()

	for _, content := range []string{
		"",
		"garbage\n",
		"POKEBALL\n",
		"POKEBALL\nnot a hash\n",
		"POKEBALL\n" + strings.Repeat("x", pokeball.MaxStubSize) + "\nsha256_" + helloDigest + "\n",
	} {
		fs, blobs, a := fixture(t)
		writeFile(t, fs, "/work/bad__pokeball", content)

		res := single(t, a.Release(ctx, "/work/bad__pokeball", DefaultOptions()))
		assert.Equal(t, Failed, res.Outcome)
		assert.Truef(t, errors.Is(res.Err, status.ErrMalformedStub), "%v", res.Err)
		assert.Equal(t, content, readFile(t, fs, "/work/bad__pokeball"))
		assert.False(t, exists(t, fs, "/work/bad"))

		_, _, gets := blobs.counts()
		assert.Zero(t, gets)
	}
}

func TestReleaseMissingBlob(t *testing.T) {
	ctx := context.Background()
	fs, _, a := fixture(t)
	writeFile(t, fs, "/work/notes.txt__pokeball", helloStub)

	res := single(t, a.Release(ctx, "/work/notes.txt__pokeball", DefaultOptions()))
	assert.Equal(t, Failed, res.Outcome)
	assert.True(t, errors.Is(res.Err, status.ErrBlobStore))
	assert.True(t, errors.Is(res.Err, storagestatus.ErrNotExists))
	assert.Equal(t, []string{"notes.txt__pokeball"}, names(t, fs, "/work"))
}

func TestReleaseInterruptedTransfer(t *testing.T) {
	ctx := context.Background()
	fs, blobs, a := fixture(t)
	content := []byte(strings.Repeat("0123456789", 100))
	writeFile(t, fs, "/work/data.bin", string(content))

	caught := single(t, a.Catch(ctx, "/work/data.bin", DefaultOptions()))
	require.NoError(t, caught.Err)

	blobs.onGet = func(_ pokeball.Hash, localPath string) error {
		return partialWrite(fs, localPath, content)
	}
	res := single(t, a.Release(ctx, "/work/data.bin__pokeball", DefaultOptions()))
	assert.Equal(t, Failed, res.Outcome)
	assert.True(t, errors.Is(res.Err, status.ErrBlobStore))

	// neither the target nor the partial download are left behind
	assert.Equal(t, []string{"data.bin__pokeball"}, names(t, fs, "/work"))

	blobs.onGet = nil
	res = single(t, a.Release(ctx, "/work/data.bin__pokeball", DefaultOptions()))
	require.NoError(t, res.Err)
	assert.Equal(t, string(content), readFile(t, fs, "/work/data.bin"))
	assert.Equal(t, []string{"data.bin"}, names(t, fs, "/work"))
}

func TestReleaseHashMismatch(t *testing.T) {
	ctx := context.Background()
	fs, blobs, a := fixture(t)
	writeFile(t, fs, "/work/notes.txt__pokeball", helloStub)
	blobs.set(helloHash, []byte("corrupted\n"))

	res := single(t, a.Release(ctx, "/work/notes.txt__pokeball", DefaultOptions()))
	assert.Equal(t, Failed, res.Outcome)
	assert.True(t, errors.Is(res.Err, status.ErrHashMismatch))
	assert.Equal(t, []string{"notes.txt__pokeball"}, names(t, fs, "/work"))

	unverified := New(blobs, Fs(fs), VerifyRelease(false))
	res = single(t, unverified.Release(ctx, "/work/notes.txt__pokeball", DefaultOptions()))
	require.NoError(t, res.Err)
	assert.Equal(t, "corrupted\n", readFile(t, fs, "/work/notes.txt"))
	assert.EqualValues(t, 10, res.Size)
}

func TestReleaseLegacyStub(t *testing.T) {
	ctx := context.Background()
	fs, blobs, a := fixture(t)
	blobs.set(helloHash, []byte("hello\n"))
	writeFile(t, fs, "/work/good__pokeball", "POKEBALL\n6\nsha256_"+helloDigest+"\n")
	writeFile(t, fs, "/work/bad__pokeball", "POKEBALL\n7\nsha256_"+helloDigest+"\n")

	res := single(t, a.Release(ctx, "/work/good__pokeball", DefaultOptions()))
	require.NoError(t, res.Err)
	assert.Equal(t, "hello\n", readFile(t, fs, "/work/good"))

	res = single(t, a.Release(ctx, "/work/bad__pokeball", DefaultOptions()))
	assert.True(t, errors.Is(res.Err, status.ErrHashMismatch))
}

func TestReleaseUnknownAlgorithm(t *testing.T) {
	ctx := context.Background()
	fs, blobs, a := fixture(t)
	hash := pokeball.Hash{Algorithm: "md5", Digest: "b1946ac92492d2347c6235b4d2611184"}
	blobs.set(hash, []byte("hello\n"))
	writeFile(t, fs, "/work/notes.txt__pokeball", string(pokeball.Encode(hash)))

	res := single(t, a.Release(ctx, "/work/notes.txt__pokeball", DefaultOptions()))
	require.NoError(t, res.Err)
	assert.Equal(t, "hello\n", readFile(t, fs, "/work/notes.txt"))
}

func TestInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fs, blobs, a := fixture(t)
	writeFile(t, fs, "/work/a.txt", "hello\n")
	writeFile(t, fs, "/work/b.txt", "world\n")

	report := a.Catch(ctx, "/work", Options{Recurse: true, Delete: true})
	assert.True(t, report.HasFailures())
	for _, res := range report.Results() {
		assert.True(t, errors.Is(res.Err, status.ErrInterrupted))
	}
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, names(t, fs, "/work"))

	_, puts, _ := blobs.counts()
	assert.Zero(t, puts)
}

func TestInterruptedUpload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fs, blobs, a := fixture(t)
	writeFile(t, fs, "/work/notes.txt", "hello\n")
	blobs.onPut = func(pokeball.Hash) error {
		cancel()
		return nil
	}

	res := single(t, a.Catch(ctx, "/work/notes.txt", DefaultOptions()))
	assert.Equal(t, Failed, res.Outcome)
	assert.True(t, errors.Is(res.Err, status.ErrInterrupted))
	assert.Equal(t, []string{"notes.txt"}, names(t, fs, "/work"))
}

func TestCatchAll(t *testing.T) {
	ctx := context.Background()
	fs, _, a := fixture(t)
	writeFile(t, fs, "/work/a.txt", "hello\n")
	writeFile(t, fs, "/work/b.txt", "world\n")
	writeFile(t, fs, "/work/c.txt__pokeball", helloStub)

	report := a.CatchAll(ctx, []string{"/work/b.txt", "/work/missing", "/work/a.txt", "/work/c.txt__pokeball"}, DefaultOptions())
	assert.Equal(t, OpCatch, report.Op)
	assert.Equal(t, []string{"/work/b.txt", "/work/missing", "/work/a.txt", "/work/c.txt__pokeball"}, paths(report))
	assert.Equal(t, 2, report.Count(Caught))
	assert.Equal(t, 2, report.Count(Skipped))
	assert.EqualValues(t, 12, report.Bytes())
	assert.NoError(t, report.Err())

	released := a.ReleaseAll(ctx, []string{"/work/a.txt__pokeball", "/work/b.txt__pokeball"}, DefaultOptions())
	assert.Equal(t, OpRelease, released.Op)
	assert.Equal(t, 2, released.Count(Released))
}

func TestConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpencensus)
	ctx := context.Background()
	fs, blobs, a := fixture(t, Concurrency(4))
	const files, distinct = 40, 5
	for i := 0; i < files; i++ {
		writeFile(t, fs, fmt.Sprintf("/work/file-%02d.txt", i), fmt.Sprintf("content %d\n", i%distinct))
	}
	writeFile(t, fs, "/work/sub/last.txt", "content 0\n")

	var (
		mu   sync.Mutex
		seen []string
	)
	a = New(blobs, Fs(fs), Concurrency(4), OnResult(func(res Result) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, res.Path)
	}))

	report := a.Catch(ctx, "/work", Options{Recurse: true, Delete: true})
	require.NoError(t, report.Err())
	assert.Equal(t, files+1, report.Count(Caught))

	var uploaded int
	for _, res := range report.Results() {
		if res.Uploaded {
			uploaded++
		}
	}
	assert.Equal(t, distinct, uploaded)
	_, puts, _ := blobs.counts()
	assert.Equal(t, distinct, puts)

	// sub-directories come after all the files of their parent
	results := paths(report)
	assert.Equal(t, "/work/sub/last.txt", results[len(results)-1])
	assert.Equal(t, results, seen)

	released := a.Release(ctx, "/work", Options{Recurse: true, Delete: true})
	require.NoError(t, released.Err())
	assert.Equal(t, files+1, released.Count(Released))
	for i := 0; i < files; i++ {
		assert.Equal(t, fmt.Sprintf("content %d\n", i%distinct), readFile(t, fs, fmt.Sprintf("/work/file-%02d.txt", i)))
	}
}

func TestJournal(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.InfoLevel)
	fs, _, a := fixture(t, Journal(zap.New(core)))
	writeFile(t, fs, "/work/notes.txt", "hello\n")

	require.NoError(t, a.Catch(ctx, "/work/notes.txt", DefaultOptions()).Err())
	require.NoError(t, a.Release(ctx, "/work/notes.txt__pokeball", DefaultOptions()).Err())

	entries := logs.All()
	require.Len(t, entries, 2)
	abs, err := filepath.Abs("/work/notes.txt")
	require.NoError(t, err)
	for i, op := range []string{"catch", "release"} {
		assert.Equal(t, op, entries[i].Message)
		fields := entries[i].ContextMap()
		assert.Equal(t, helloHash.String(), fields["hash"])
		assert.Equal(t, abs, fields["path"])
	}
}

func TestReportErr(t *testing.T) {
	report := newReport(OpRelease, nil)
	report.add(Result{Path: "a", Outcome: Released})
	report.add(Result{Path: "b", Outcome: Skipped, Err: status.ErrNotStub})
	assert.NoError(t, report.Err())
	assert.False(t, report.HasFailures())

	report.add(Result{Path: "c", Outcome: Failed, Err: status.ErrFilesystem.Wrapf("disk full")})
	report.add(Result{Path: "d", Outcome: Failed, Hash: helloHash, Err: status.ErrBlobStore})
	err := report.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrFilesystem))
	assert.True(t, errors.Is(err, status.ErrBlobStore))
	assert.Contains(t, err.Error(), "release c: filesystem error: disk full")
	assert.Contains(t, err.Error(), "release d ("+helloHash.String()+"): blob store error")

	other := newReport(OpRelease, nil)
	other.add(Result{Path: "e", Outcome: Released})
	report.Merge(other)
	report.Merge(report)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, paths(report))
	assert.Equal(t, 2, report.Count(Released))
	assert.Equal(t, "failed", Failed.String())
}

func TestCleanPath(t *testing.T) {
	for in, out := range map[string]string{
		"":             "",
		"/":            "/",
		"///":          "/",
		"photos/":      "photos",
		"photos//":     "photos",
		"/a/b/":        "/a/b",
		"notes.txt":    "notes.txt",
		"./notes.txt/": "./notes.txt",
	} {
		assert.Equalf(t, out, CleanPath(in), "%q", in)
	}
}

func TestOutcomeStrings(t *testing.T) {
	all := []string{Caught.String(), Released.String(), Skipped.String(), Failed.String(), Outcome(0).String()}
	sort.Strings(all)
	assert.Equal(t, []string{"caught", "failed", "released", "skipped", "unknown"}, all)
}
