package middleware

import (
	"strconv"

	"github.com/SergeiKhy/shortlink/internal/identity"
	"github.com/SergeiKhy/shortlink/internal/token"
	"github.com/gin-gonic/gin"
)

// TrustedIdentity переносит X-User-ID и X-Username, выставленные шлюзом,
// в контекст запроса. Запрос не отклоняется: отсутствие или мусор в
// заголовке просто оставляют контекст без личности.
func TrustedIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(identity.HeaderUserID)
		if raw == "" {
			c.Next()
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			c.Next()
			return
		}

		id := identity.Identity{
			UserID:   userID,
			Username: c.GetHeader(identity.HeaderUsername),
		}
		c.Request = c.Request.WithContext(identity.NewContext(c.Request.Context(), id))

		c.Next()
	}
}

// BearerAuthentication используется auth сервисом для /me и /validate.
// Валидный access токен привязывает личность к контексту, иначе
// привязывается identity.Anonymous и запрос идёт дальше.
func BearerAuthentication(codec *token.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identity.Anonymous

		if raw, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, ok := codec.VerifyAccess(raw); ok {
				id = identity.Identity{
					UserID:   claims.UserID(),
					Username: claims.Username(),
				}
			}
		}

		c.Request = c.Request.WithContext(identity.NewContext(c.Request.Context(), id))
		c.Next()
	}
}
