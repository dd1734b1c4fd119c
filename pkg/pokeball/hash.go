package pokeball

import (
	"strings"
)

const hashSeparator = "_"

// Hash is a content digest tagged with the algorithm used to compute it
type Hash struct {
	Algorithm string
	Digest    string
}

// NewHash builds a hash from an algorithm name and a hex encoded digest
func NewHash(algorithm, digest string) (Hash, error) {
	h := Hash{Algorithm: algorithm, Digest: digest}
	if err := h.Validate(); err != nil {
		return Hash{}, err
	}
	return h, nil
}

// ParseHash parses the string representation of a hash, e.g. sha256_2cf24d...
func ParseHash(s string) (Hash, error) {
	i := strings.Index(s, hashSeparator)
	if i < 0 {
		return Hash{}, ErrMalformedHash.Wrapf("missing separator in %q", s)
	}
	return NewHash(s[:i], s[i+1:])
}

// String representation of the hash, used as the blob key
func (h Hash) String() string {
	if h.IsZero() {
		return ""
	}
	return h.Algorithm + hashSeparator + h.Digest
}

// IsZero tells if the hash is empty
func (h Hash) IsZero() bool {
	return h.Algorithm == "" && h.Digest == ""
}

// Validate the hash format: a lower case alphanumeric algorithm and an even-length lower case hex digest
func (h Hash) Validate() error {
	if h.Algorithm == "" {
		return ErrMalformedHash.Wrapf("empty algorithm in %q", h.String())
	}
	for _, c := range h.Algorithm {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return ErrMalformedHash.Wrapf("invalid algorithm %q", h.Algorithm)
		}
	}
	if h.Digest == "" || len(h.Digest)%2 != 0 {
		return ErrMalformedHash.Wrapf("invalid digest length in %q", h.String())
	}
	for _, c := range h.Digest {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return ErrMalformedHash.Wrapf("invalid hex digest in %q", h.String())
		}
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (h *Hash) UnmarshalText(b []byte) error {
	parsed, err := ParseHash(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
