package shortcode_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/SergeiKhy/shortlink/internal/shortcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLookup запоминает каждый проверенный код
type fakeLookup struct {
	mu    sync.Mutex
	taken map[string]bool
	all   bool
	err   error
	calls []string
}

func newLookup(taken ...string) *fakeLookup {
	l := &fakeLookup{taken: make(map[string]bool)}
	for _, c := range taken {
		l.taken[c] = true
	}
	return l
}

func (l *fakeLookup) CodeExists(_ context.Context, code string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, code)
	if l.err != nil {
		return false, l.err
	}
	return l.all || l.taken[code], nil
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func digestOf(url string, owner string) []byte {
	d := sha256.Sum256([]byte(url + owner))
	return d[:]
}

func TestGenerate_DeterministicOnHashPath(t *testing.T) {
	ctx := context.Background()

	first, err := shortcode.NewGenerator(newLookup()).Generate(ctx, "https://example.com", 42)
	require.NoError(t, err)
	second, err := shortcode.NewGenerator(newLookup()).Generate(ctx, "https://example.com", 42)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, shortcode.Encode(digestOf("https://example.com", "42"), 6), first)
}

func TestGenerate_DifferentOwnersDiffer(t *testing.T) {
	ctx := context.Background()
	g := shortcode.NewGenerator(newLookup())

	a, err := g.Generate(ctx, "https://example.com", 42)
	require.NoError(t, err)
	b, err := g.Generate(ctx, "https://example.com", 43)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestGenerate_EscalatesToSevenFromSameDigest(t *testing.T) {
	ctx := context.Background()
	digest := digestOf("https://example.com", "42")
	six := shortcode.Encode(digest, 6)
	seven := shortcode.Encode(digest, 7)

	lookup := newLookup(six)
	code, err := shortcode.NewGenerator(lookup).Generate(ctx, "https://example.com", 42)
	require.NoError(t, err)

	assert.Equal(t, seven, code)
	assert.True(t, strings.HasSuffix(seven, six), "7-symbol code extends the 6-symbol one")
	assert.Equal(t, []string{six, seven}, lookup.calls)
}

func TestGenerate_FallsBackToRandom(t *testing.T) {
	ctx := context.Background()
	digest := digestOf("https://example.com", "42")

	lookup := newLookup(shortcode.Encode(digest, 6), shortcode.Encode(digest, 7))
	g := shortcode.NewGeneratorWithSource(lookup, zeroReader{})

	code, err := g.Generate(ctx, "https://example.com", 42)
	require.NoError(t, err)
	assert.Equal(t, "000000", code)
	assert.Len(t, lookup.calls, 3)
}

func TestGenerate_RandomEscalatesLength(t *testing.T) {
	ctx := context.Background()
	digest := digestOf("https://example.com", "42")

	lookup := newLookup(shortcode.Encode(digest, 6), shortcode.Encode(digest, 7), "000000")
	g := shortcode.NewGeneratorWithSource(lookup, zeroReader{})

	code, err := g.Generate(ctx, "https://example.com", 42)
	require.NoError(t, err)
	assert.Equal(t, "0000000", code)
	// 2 хеш-кандидата + 10 попыток длины 6 + 1 попытка длины 7
	assert.Len(t, lookup.calls, 2+shortcode.MaxAttempts+1)
}

func TestGenerate_Exhausted(t *testing.T) {
	lookup := &fakeLookup{taken: map[string]bool{}, all: true}
	g := shortcode.NewGenerator(lookup)

	_, err := g.Generate(context.Background(), "https://example.com", 42)
	assert.ErrorIs(t, err, shortcode.ErrExhausted)

	lengths := shortcode.MaxLength - shortcode.MinLength + 1
	assert.Len(t, lookup.calls, 2+lengths*shortcode.MaxAttempts)
}

func TestGenerate_LookupErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	lookup := &fakeLookup{taken: map[string]bool{}, err: boom}

	_, err := shortcode.NewGenerator(lookup).Generate(context.Background(), "https://example.com", 42)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, shortcode.ErrExhausted)
}

func TestGenerate_UniquenessCheckedBeforePrefix(t *testing.T) {
	ctx := context.Background()
	const owner = int64(12345)

	suffix := shortcode.Encode(digestOf("https://example.com", "12345"), 6)
	prefixed := "34" + suffix

	// Код с префиксом уже есть, а суффикс свободен: генератор смотрит только
	// на суффикс и снова возвращает тот же код.
	lookup := newLookup(prefixed)
	code, err := shortcode.NewGenerator(lookup).Generate(ctx, "https://example.com", owner)
	require.NoError(t, err)

	assert.Equal(t, prefixed, code)
	assert.Equal(t, []string{suffix}, lookup.calls)
}

func TestGenerate_LengthAndAlphabetProperty(t *testing.T) {
	ctx := context.Background()
	owners := []int64{1, 42, 100, 12345, 9876543210, 1<<62 + 7}

	for _, owner := range owners {
		for i := 0; i < 50; i++ {
			url := "https://example.com/page/" + strings.Repeat("x", i)

			for _, lookup := range []*fakeLookup{newLookup(), collidingHashLookup(url, owner)} {
				code, err := shortcode.NewGenerator(lookup).Generate(ctx, url, owner)
				require.NoError(t, err)
				assert.True(t, shortcode.Valid(code), "owner=%d code=%q", owner, code)
			}
		}
	}
}

func collidingHashLookup(url string, owner int64) *fakeLookup {
	d := digestOf(url, strconv.FormatInt(owner, 10))
	return newLookup(shortcode.Encode(d, 6), shortcode.Encode(d, 7))
}

func TestEncode_PadsWithZeroSymbol(t *testing.T) {
	zero := make([]byte, 32)
	assert.Equal(t, "000000", shortcode.Encode(zero, 6))

	one := make([]byte, 32)
	one[7] = 1
	assert.Equal(t, "0000001", shortcode.Encode(one, 7))

	sixtyTwo := make([]byte, 32)
	sixtyTwo[7] = 62
	assert.Equal(t, "000010", shortcode.Encode(sixtyTwo, 6))
}

func TestOwnerPrefix(t *testing.T) {
	assert.Equal(t, "", shortcode.OwnerPrefix(42, 2))
	assert.Equal(t, "", shortcode.OwnerPrefix(7, 2))
	assert.Equal(t, "3", shortcode.OwnerPrefix(123, 2))
	assert.Equal(t, "34", shortcode.OwnerPrefix(12345, 2))
	assert.Equal(t, "3", shortcode.OwnerPrefix(12345, 1))
	assert.Equal(t, "", shortcode.OwnerPrefix(12345, 0))
}

func TestValid(t *testing.T) {
	assert.True(t, shortcode.Valid("abc123"))
	assert.True(t, shortcode.Valid("ABCdef12"))
	assert.False(t, shortcode.Valid("abc12"))
	assert.False(t, shortcode.Valid("abcdefghi"))
	assert.False(t, shortcode.Valid("abc-12"))
}
