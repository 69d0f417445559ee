package identity

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode selects the identifier format minted at survey entry.
type Mode string

const (
	// ModeRandom produces "RID-" followed by base36 characters.
	ModeRandom Mode = "random"
	// ModeTimestamp produces unix milliseconds followed by random digits.
	ModeTimestamp Mode = "timestamp"
	// ModeUUID produces a random UUID.
	ModeUUID Mode = "uuid"
)

const (
	randomPrefix   = "RID-"
	randomLength   = 16
	numericSuffix  = 6
	base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Valid reports whether the mode is recognised.
func (m Mode) Valid() bool {
	switch m {
	case ModeRandom, ModeTimestamp, ModeUUID:
		return true
	}
	return false
}

// Generator mints tracking identifiers. Identifiers are best-effort unique
// tracking tokens, not credentials.
type Generator struct {
	mode    Mode
	entropy io.Reader
	now     func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithEntropy overrides the randomness source.
func WithEntropy(r io.Reader) Option {
	return func(g *Generator) {
		if r != nil {
			g.entropy = r
		}
	}
}

// WithClock overrides the clock used by ModeTimestamp.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator builds a generator. Unknown modes fall back to ModeRandom.
func NewGenerator(mode Mode, opts ...Option) *Generator {
	if !mode.Valid() {
		mode = ModeRandom
	}
	g := &Generator{
		mode:    mode,
		entropy: rand.Reader,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Mode returns the configured mode.
func (g *Generator) Mode() Mode { return g.mode }

// New returns a fresh identifier.
func (g *Generator) New() (string, error) {
	switch g.mode {
	case ModeTimestamp:
		digits, err := g.randomString("0123456789", numericSuffix)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(g.now().UnixMilli(), 10) + digits, nil
	case ModeUUID:
		id, err := uuid.NewRandomFromReader(g.entropy)
		if err != nil {
			return "", fmt.Errorf("identity: uuid: %w", err)
		}
		return id.String(), nil
	default:
		body, err := g.randomString(base36Alphabet, randomLength)
		if err != nil {
			return "", err
		}
		return randomPrefix + body, nil
	}
}

func (g *Generator) randomString(alphabet string, n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	limit := big.NewInt(int64(len(alphabet)))
	for range n {
		idx, err := rand.Int(g.entropy, limit)
		if err != nil {
			return "", fmt.Errorf("identity: read entropy: %w", err)
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String(), nil
}

// RandomHex returns 2*n hex characters; used where an anonymous id is needed.
func RandomHex(n int) string {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return fmt.Sprintf("%x", buf)
}
