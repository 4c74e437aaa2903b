// Package token выпускает и проверяет подписанные bearer токены, общие для
// шлюза и auth сервиса. Все бинарники держат один HMAC ключ, поэтому проверка
// идёт локально, без сетевых запросов и без списка отозванных токенов.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength минимальная длина ключа HS256 в байтах
const MinSecretLength = 32

var ErrWeakSecret = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)

// Type помечает токен как ACCESS или REFRESH. Решает только этот claim.
type Type string

const (
	Access  Type = "ACCESS"
	Refresh Type = "REFRESH"
)

type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec подписывает и проверяет токены. Ключ не меняется после NewCodec,
// поэтому Codec можно использовать из разных горутин.
type Codec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type Option func(*Codec)

// WithClock подменяет источник времени для iat/exp и для проверки
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	c := &Codec{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AccessTTL отдаётся клиенту как expiresIn
func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

type claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"userid"`
	Type   Type  `json:"type"`
}

// Claims набор проверенных claims. Получить его можно только из Verify,
// так что методы ниже никогда не читают непроверенный токен.
type Claims struct {
	c claims
}

func (c *Claims) Username() string { return c.c.Subject }

func (c *Claims) UserID() int64 { return c.c.UserID }

func (c *Claims) Type() Type { return c.c.Type }

func (c *Claims) ExpiresAt() time.Time { return c.c.ExpiresAt.Time }

// Issue подписывает новый токен для subject
func (c *Codec) Issue(subject string, userID int64, typ Type, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	if typ != Access && typ != Refresh {
		return "", fmt.Errorf("unknown token type %q", typ)
	}

	now := c.now()
	cl := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Type:   typ,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Pair access и refresh токены, выпущенные вместе
type Pair struct {
	AccessToken  string
	RefreshToken string
}

func (c *Codec) IssuePair(subject string, userID int64) (Pair, error) {
	access, err := c.Issue(subject, userID, Access, c.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := c.Issue(subject, userID, Refresh, c.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify проверяет подпись, алгоритм, issuer и срок действия. Любая ошибка
// даёт (nil, false), что означает "не аутентифицирован".
func (c *Codec) Verify(tokenString string) (*Claims, bool) {
	if tokenString == "" {
		return nil, false
	}

	var cl claims
	tok, err := jwt.ParseWithClaims(tokenString, &cl,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !tok.Valid {
		return nil, false
	}
	if cl.Subject == "" || (cl.Type != Access && cl.Type != Refresh) {
		return nil, false
	}

	return &Claims{c: cl}, true
}

// VerifyAccess принимает только ACCESS токены
func (c *Codec) VerifyAccess(tokenString string) (*Claims, bool) {
	return c.verifyType(tokenString, Access)
}

// VerifyRefresh принимает только REFRESH токены
func (c *Codec) VerifyRefresh(tokenString string) (*Claims, bool) {
	return c.verifyType(tokenString, Refresh)
}

// ValidateRefresh сообщает, является ли строка валидным REFRESH токеном
func (c *Codec) ValidateRefresh(tokenString string) bool {
	_, ok := c.VerifyRefresh(tokenString)
	return ok
}

func (c *Codec) verifyType(tokenString string, typ Type) (*Claims, bool) {
	cl, ok := c.Verify(tokenString)
	if !ok || cl.Type() != typ {
		return nil, false
	}
	return cl, true
}
