// Package shortcode генерирует короткие коды для ссылок.
//
// Код состоит из двух частей: суффикса, который проверяется на уникальность,
// и префикса владельца, который приклеивается спереди уже после проверки.
//
// Суффикс берётся из SHA-256 от url||ownerID (6 символов, затем 7 из того же
// хеша), поэтому одна и та же ссылка одного владельца даёт один и тот же код.
// Если оба варианта заняты, генератор переходит на случайные суффиксы из
// crypto/rand: по 10 попыток на каждую длину от 6 до 8, потом ErrExhausted.
//
// Уникальность проверяется только для суффикса без префикса. Код с префиксом
// всё ещё может столкнуться при вставке, и тогда его отклонит уникальный
// индекс в таблице ссылок.
package shortcode

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
)

const (
	Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	MinLength      = 6
	MaxLength      = 8
	MaxAttempts    = 10
	hashEscalation = MinLength + 1
)

var ErrExhausted = errors.New("short code space exhausted")

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// Lookup сообщает, занят ли код
type Lookup interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

type Generator struct {
	lookup Lookup
	random io.Reader
}

func NewGenerator(lookup Lookup) *Generator {
	return &Generator{lookup: lookup, random: rand.Reader}
}

// NewGeneratorWithSource как NewGenerator, но с явным источником случайности
func NewGeneratorWithSource(lookup Lookup, random io.Reader) *Generator {
	return &Generator{lookup: lookup, random: random}
}

// Generate возвращает префикс владельца + уникальный суффикс
func (g *Generator) Generate(ctx context.Context, rawURL string, ownerID int64) (string, error) {
	suffix, err := g.hashSuffix(ctx, rawURL, ownerID)
	if err != nil {
		return "", err
	}

	if suffix == "" {
		suffix, err = g.randomSuffix(ctx)
		if err != nil {
			return "", err
		}
	}

	return OwnerPrefix(ownerID, MaxLength-len(suffix)) + suffix, nil
}

// hashSuffix возвращает "", если оба детерминированных варианта заняты
func (g *Generator) hashSuffix(ctx context.Context, rawURL string, ownerID int64) (string, error) {
	digest := sha256.Sum256([]byte(rawURL + strconv.FormatInt(ownerID, 10)))

	for _, n := range []int{MinLength, hashEscalation} {
		candidate := Encode(digest[:], n)
		taken, err := g.lookup.CodeExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check code %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", nil
}

func (g *Generator) randomSuffix(ctx context.Context) (string, error) {
	for length := MinLength; length <= MaxLength; length++ {
		for attempt := 0; attempt < MaxAttempts; attempt++ {
			candidate, err := g.random62(length)
			if err != nil {
				return "", fmt.Errorf("failed to generate random code: %w", err)
			}

			taken, err := g.lookup.CodeExists(ctx, candidate)
			if err != nil {
				return "", fmt.Errorf("failed to check code %q: %w", candidate, err)
			}
			if !taken {
				return candidate, nil
			}
		}
	}

	return "", fmt.Errorf("%w: no free code up to length %d", ErrExhausted, MaxLength)
}

func (g *Generator) random62(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(g.random, alphabetSize)
		if err != nil {
			return "", err
		}
		b[i] = Alphabet[num.Int64()]
	}
	return string(b), nil
}

// Encode читает первые 8 байт digest как big-endian uint64 и записывает
// его младшие n разрядов в base62, старший разряд первым. Недостающие
// разряды заполняются символом '0'.
func Encode(digest []byte, n int) string {
	var head [8]byte
	copy(head[:], digest)
	num := binary.BigEndian.Uint64(head[:])

	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = Alphabet[num%62]
		num /= 62
	}
	return string(out)
}

// OwnerPrefix десятичный id владельца без первых двух цифр, обрезанный до room символов
func OwnerPrefix(ownerID int64, room int) string {
	s := strconv.FormatInt(ownerID, 10)
	if len(s) <= 2 || room <= 0 {
		return ""
	}
	p := s[2:]
	if len(p) > room {
		p = p[:room]
	}
	return p
}

// Valid проверяет длину и алфавит кода
func Valid(code string) bool {
	if len(code) < MinLength || len(code) > MaxLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}
