// Package nanoid generates short URL-safe random identifiers. Compile passes
// and probe sessions are tagged with them so log lines can be correlated.
package nanoid

import (
	"crypto/rand"
	"fmt"
	"sync"
)

// Alphabet has exactly 64 URL-safe characters, so the low 6 bits of a random
// byte select one without bias.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-_"

const (
	// Size is the length of IDs returned by New.
	Size = 21

	// PassIDSize is the shorter length used to tag a single compile pass.
	PassIDSize = 12

	// MaxSize bounds NewSize.
	MaxSize = 256

	poolBufSize = 4096 // random bytes fetched per refill
)

type randomBuffer struct {
	data [poolBufSize]byte
	pos  int
}

func (b *randomBuffer) refill() {
	if _, err := rand.Read(b.data[:]); err != nil {
		panic("nanoid: failed to read random bytes: " + err.Error())
	}
	b.pos = 0
}

var bufferPool = sync.Pool{
	New: func() any {
		buf := &randomBuffer{}
		buf.refill()
		return buf
	},
}

// New returns a Size-character ID.
func New() string {
	return generate(Size)
}

// NewSize returns an n-character ID. n must be between 1 and MaxSize.
func NewSize(n int) (string, error) {
	if n < 1 || n > MaxSize {
		return "", fmt.Errorf("nanoid: size %d out of range [1, %d]", n, MaxSize)
	}
	return generate(n), nil
}

// MustNewSize is NewSize for constant sizes. It panics on an invalid n.
func MustNewSize(n int) string {
	id, err := NewSize(n)
	if err != nil {
		panic(err)
	}
	return id
}

func generate(n int) string {
	buf := bufferPool.Get().(*randomBuffer)
	if buf.pos+n > poolBufSize {
		buf.refill()
	}

	out := make([]byte, n)
	for i, b := range buf.data[buf.pos : buf.pos+n] {
		out[i] = Alphabet[b&63]
	}
	buf.pos += n

	bufferPool.Put(buf)
	return string(out)
}

// Valid reports whether id is non-empty and drawn only from Alphabet.
func Valid(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
