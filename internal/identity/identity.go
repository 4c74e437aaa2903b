// Package identity передаёт аутентифицированного пользователя через context запроса.
package identity

import "context"

// Заголовки, которые шлюз выставляет после проверки access токена. Сервисы
// доверяют им только потому, что шлюз единственная точка входа.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUsername = "X-Username"
)

// AnonymousUsername помечает запрос, прошедший аутентификацию без валидных данных
const AnonymousUsername = "anonymousUser"

type Identity struct {
	UserID   int64
	Username string
}

var Anonymous = Identity{Username: AnonymousUsername}

// IsAnonymous true для Anonymous и для нулевого значения. Пользователь,
// известный только по id (URL сервис видит лишь X-User-ID), не анонимный.
func (i Identity) IsAnonymous() bool {
	if i.Username == AnonymousUsername {
		return true
	}
	return i.Username == "" && i.UserID <= 0
}

type ctxKey struct{}

func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext возвращает личность из контекста. ok == false, если её нет
// или она анонимная.
func FromContext(ctx context.Context) (Identity, bool) {
	id, bound := ctx.Value(ctxKey{}).(Identity)
	if !bound || id.IsAnonymous() {
		return Identity{}, false
	}
	return id, true
}
