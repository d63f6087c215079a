// Package uid generates short, URL-safe random identifiers (nanoid style).
package uid

import (
	"crypto/rand"
	"fmt"
	"io"
	"math"
	"math/bits"
	mrand "math/rand/v2"
	"sync"
)

// Base62Alphabet is the alphabet used for tokens and feed entry ids.
const Base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Generator draws identifiers from a fixed alphabet using rejection sampling.
type Generator struct {
	alphabet string
	mask     byte

	mu  sync.Mutex
	src io.Reader
}

var base62 = New(Base62Alphabet)

// Base62 returns a cryptographically random base62 string of length n.
func Base62(n int) string {
	return base62.Generate(n)
}

// New returns a Generator backed by crypto/rand.
func New(alphabet string) *Generator {
	return newGenerator(alphabet, rand.Reader)
}

// NewSeeded returns a deterministic Generator backed by a ChaCha8 stream.
// It is intended for tests.
func NewSeeded(alphabet string, seed [32]byte) *Generator {
	return newGenerator(alphabet, mrand.NewChaCha8(seed))
}

func newGenerator(alphabet string, src io.Reader) *Generator {
	if len(alphabet) < 2 || len(alphabet) > 256 {
		panic(fmt.Sprintf("uid: alphabet length must be between 2 and 256, got %d", len(alphabet)))
	}
	return &Generator{
		alphabet: alphabet,
		mask:     byte(1<<bits.Len(uint(len(alphabet)-1)) - 1),
		src:      src,
	}
}

// Generate returns a string of exactly n characters drawn from the alphabet.
// Bytes whose masked value falls outside the alphabet are discarded rather
// than reduced modulo its length, so every symbol is equally likely.
func (g *Generator) Generate(n int) string {
	if n <= 0 {
		return ""
	}

	size := len(g.alphabet)
	step := int(math.Ceil(1.6 * float64(int(g.mask)*n) / float64(size)))
	if step < 1 {
		step = 1
	}

	id := make([]byte, 0, n)
	buf := make([]byte, step)
	for {
		g.fill(buf)
		for _, b := range buf {
			idx := int(b & g.mask)
			if idx < size {
				id = append(id, g.alphabet[idx])
				if len(id) == n {
					return string(id)
				}
			}
		}
	}
}

func (g *Generator) fill(buf []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// An entropy failure means the OS RNG is unusable; nothing sensible can continue.
	if _, err := io.ReadFull(g.src, buf); err != nil {
		panic(fmt.Sprintf("uid: read random bytes: %v", err))
	}
}
