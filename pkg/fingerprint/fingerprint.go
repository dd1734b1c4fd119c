// Package fingerprint computes the content hash of files.
//
// The content hash is the key under which a file's bytes are stored in the blob store.
package fingerprint

import (
	"context"
	"encoding/hex"
	"hash"
	"io"

	units "github.com/docker/go-units"
	blake2b "github.com/minio/blake2b-simd"
	"github.com/oneconcern/pokedex/pkg/errors"
	"github.com/oneconcern/pokedex/pkg/pokeball"
	digest "github.com/opencontainers/go-digest"
	"github.com/spf13/afero"
)

const (
	// SHA256 is the default hashing algorithm
	SHA256 = "sha256"

	// Blake2b is the 512 bits blake2b algorithm
	Blake2b = "blake2b"

	defaultBufferSize = 1 * units.MiB
)

// ErrUnsupportedAlgorithm indicates that no hasher is known for an algorithm name
var ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")

var hashers = map[string]func() hash.Hash{
	SHA256: func() hash.Hash {
		return digest.SHA256.Digester().Hash()
	},
	Blake2b: blake2b.New512,
}

// Supported tells if an algorithm name is known
func Supported(algorithm string) bool {
	_, ok := hashers[algorithm]
	return ok
}

// Option for a Maker
type Option func(*Maker)

// Algorithm sets the hashing algorithm. It defaults to sha256.
func Algorithm(name string) Option {
	return func(m *Maker) {
		if name != "" {
			m.algorithm = name
		}
	}
}

// BufferSize sets the size of read buffers
func BufferSize(sz int) Option {
	return func(m *Maker) {
		if sz > 0 {
			m.bufferSize = sz
		}
	}
}

// New fingerprint Maker
func New(opts ...Option) (*Maker, error) {
	m := &Maker{
		algorithm:  SHA256,
		bufferSize: defaultBufferSize,
	}

	for _, apply := range opts {
		apply(m)
	}
	if !Supported(m.algorithm) {
		return nil, ErrUnsupportedAlgorithm.Wrapf("%q", m.algorithm)
	}
	return m, nil
}

// MustNew builds a Maker or panics
func MustNew(opts ...Option) *Maker {
	m, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// ForHash returns a Maker computing hashes with the same algorithm as h
func ForHash(h pokeball.Hash, opts ...Option) (*Maker, error) {
	return New(append(opts, Algorithm(h.Algorithm))...)
}

// Maker computes content hashes
type Maker struct {
	algorithm  string
	bufferSize int
}

// AlgorithmName of this Maker
func (m *Maker) AlgorithmName() string {
	return m.algorithm
}

// Sum hashes all the bytes from a reader. It returns the hash and the number of bytes read.
func (m *Maker) Sum(ctx context.Context, r io.Reader) (pokeball.Hash, int64, error) {
	hasher := hashers[m.algorithm]()
	buffer := make([]byte, m.bufferSize)
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return pokeball.Hash{}, total, err
		}
		n, err := r.Read(buffer)
		if n > 0 {
			_, _ = hasher.Write(buffer[:n])
			total += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return pokeball.Hash{}, total, err
		}
	}

	return pokeball.Hash{
		Algorithm: m.algorithm,
		Digest:    hex.EncodeToString(hasher.Sum(nil)),
	}, total, nil
}

// File hashes the content of the file at path
func (m *Maker) File(ctx context.Context, fs afero.Fs, path string) (pokeball.Hash, int64, error) {
	f, err := fs.Open(path)
	if err != nil {
		return pokeball.Hash{}, 0, err
	}
	defer f.Close()

	return m.Sum(ctx, f)
}
