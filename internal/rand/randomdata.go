// Package rand generates random content for tests.
package rand

import (
	"math/rand"
	"sync"
	"time"
)

const letters = "abcdefghijklmnopqrstuvwxyz0123456789"

var (
	mu   sync.Mutex
	rgen = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec
)

// Bytes returns a random slice of bytes
func Bytes(n int) []byte {
	buf := make([]byte, n)
	mu.Lock()
	_, _ = rgen.Read(buf)
	mu.Unlock()
	return buf
}

// LetterBytes returns a random slice of bytes picked in the [0-9]|[a-z] range
func LetterBytes(n int) []byte {
	buf := Bytes(n)
	for i, b := range buf {
		buf[i] = letters[int(b)%len(letters)]
	}
	return buf
}

// LetterString returns a random string picked in the [0-9]|[a-z] range
func LetterString(n int) string {
	return string(LetterBytes(n))
}
