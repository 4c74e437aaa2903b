package middleware

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/SergeiKhy/shortlink/internal/identity"
	"github.com/SergeiKhy/shortlink/internal/token"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// redirectPath совпадает с публичным редиректом /{code}
var redirectPath = regexp.MustCompile(`^/[a-zA-Z0-9]+$`)

// EdgeAuth проверяет access токен на границе и передаёт личность
// пользователя дальше через доверенные заголовки.
//
// Middleware никогда не отклоняет запрос: без токена или с невалидным
// токеном запрос уходит дальше без заголовков, а решение принимает
// сервис-получатель.
func EdgeAuth(codec *token.Codec, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		// Заголовки от клиента не доверенные, их выставляет только шлюз
		c.Request.Header.Del(identity.HeaderUserID)
		c.Request.Header.Del(identity.HeaderUsername)

		path := c.Request.URL.Path
		if redirectPath.MatchString(path) || strings.HasPrefix(path, "/api/auth/") {
			c.Next()
			return
		}

		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		claims, ok := codec.VerifyAccess(raw)
		if !ok {
			logger.Debug("Rejected bearer token, forwarding anonymously", zap.String("path", path))
			c.Next()
			return
		}

		c.Request.Header.Set(identity.HeaderUserID, strconv.FormatInt(claims.UserID(), 10))
		c.Request.Header.Set(identity.HeaderUsername, claims.Username())

		c.Next()
	}
}

// bearerToken достаёт токен из заголовка Authorization вида "Bearer <token>"
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(bearerPrefix):])
	if raw == "" {
		return "", false
	}
	return raw, true
}
