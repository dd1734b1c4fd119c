package pokeball

import (
	"bytes"
	"strconv"
	"strings"
)

const (
	// Magic is the first line of every pokeball
	Magic = "POKEBALL"

	// MaxStubSize is the largest file considered as a pokeball when decoding from disk
	MaxStubSize = 4 * 1024

	noSize = -1
)

// Stub is the decoded content of a pokeball
type Stub struct {
	Hash Hash

	// Size of the original content, or -1 when not recorded
	Size int64
}

// Encode a hash as a canonical pokeball
func Encode(h Hash) []byte {
	var buf bytes.Buffer
	buf.Grow(len(Magic) + len(h.Algorithm) + len(h.Digest) + 3)
	buf.WriteString(Magic)
	buf.WriteByte('\n')
	buf.WriteString(h.String())
	buf.WriteByte('\n')
	return buf.Bytes()
}

// EncodeStub encodes a pokeball, with the original size as a metadata line when known
func EncodeStub(s Stub) []byte {
	if s.Size < 0 {
		return Encode(s.Hash)
	}
	var buf bytes.Buffer
	buf.WriteString(Magic)
	buf.WriteByte('\n')
	buf.WriteString(strconv.FormatInt(s.Size, 10))
	buf.WriteByte('\n')
	buf.WriteString(s.Hash.String())
	buf.WriteByte('\n')
	return buf.Bytes()
}

// Decode the hash recorded in a pokeball
func Decode(b []byte) (Hash, error) {
	s, err := DecodeStub(b)
	if err != nil {
		return Hash{}, err
	}
	return s.Hash, nil
}

// DecodeStub decodes a pokeball.
//
// The first line must be the magic line and the last non-blank line the hash.
// When a single line sits in between and holds a decimal number, it is taken as the size.
func DecodeStub(b []byte) (Stub, error) {
	lines := strings.Split(string(b), "\n")
	if strings.TrimSpace(lines[0]) != Magic {
		return Stub{}, ErrMalformedStub.Wrapf("missing %s magic line", Magic)
	}

	var rest []string
	for _, line := range lines[1:] {
		if line = strings.TrimSpace(line); line != "" {
			rest = append(rest, line)
		}
	}
	if len(rest) == 0 {
		return Stub{}, ErrMalformedStub.Wrapf("no hash line")
	}

	h, err := ParseHash(rest[len(rest)-1])
	if err != nil {
		return Stub{}, ErrMalformedStub.Wrap(err)
	}

	s := Stub{Hash: h, Size: noSize}
	if len(rest) == 2 {
		if sz, err := strconv.ParseInt(rest[0], 10, 64); err == nil && sz >= 0 {
			s.Size = sz
		}
	}
	return s, nil
}
