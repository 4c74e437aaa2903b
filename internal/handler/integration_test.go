//go:build integration

package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SergeiKhy/shortlink/internal/config"
	"github.com/SergeiKhy/shortlink/internal/gateway"
	"github.com/SergeiKhy/shortlink/internal/handler"
	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/repository"
	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/SergeiKhy/shortlink/internal/shortcode"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// TestEnv хранит окружение для сквозных тестов: шлюз перед двумя сервисами
type TestEnv struct {
	gateway        http.Handler
	gatewayServer  *httptest.Server
	authServer     *httptest.Server
	urlServer      *httptest.Server
	dbContainer    testcontainers.Container
	redisContainer testcontainers.Container
	db             *repository.PostgresDB
	redis          *repository.RedisDB
}

// setupTestEnv поднимает PostgreSQL и Redis в контейнерах и собирает все три сервиса
func setupTestEnv(t *testing.T) *TestEnv {
	ctx := t.Context()
	gin.SetMode(gin.TestMode)

	// Запускаем контейнер PostgreSQL
	dbContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("shortener"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	// Запускаем контейнер Redis
	redisContainer, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)

	dbHost, err := dbContainer.Host(ctx)
	require.NoError(t, err)
	dbPort, err := dbContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	db, err := repository.NewPostgresDB(config.DBConfig{
		Host:     dbHost,
		Port:     dbPort.Port(),
		User:     "user",
		Password: "password",
		Name:     "shortener",
	})
	require.NoError(t, err)
	require.NoError(t, repository.MigrateUsers(ctx, db))
	require.NoError(t, repository.MigrateLinks(ctx, db))

	redisClient, err := repository.NewRedisClient(config.RedisConfig{
		Host: redisHost,
		Port: redisPort.Port(),
	})
	require.NoError(t, err)

	logger := zap.NewNop()
	codec := newCodec(t)

	// Auth сервис
	authService := service.NewAuthService(repository.NewUserRepository(db), codec, logger)
	authServer := httptest.NewServer(handler.NewAuthRouter(authService, codec, logger))

	// URL сервис
	linkRepo := repository.NewLinkRepository(db)
	linkService := service.NewLinkService(
		linkRepo,
		repository.NewCacheRepository(redisClient),
		shortcode.NewGenerator(linkRepo),
		logger,
	)
	urlServer := httptest.NewServer(handler.NewURLRouter(linkService, "http://sho.rt", logger))

	// Шлюз
	proxy, err := gateway.NewProxy(config.GatewayConfig{
		AuthServiceURL: authServer.URL,
		URLServiceURL:  urlServer.URL,
	}, logger)
	require.NoError(t, err)

	// ReverseProxy под gin требует http.CloseNotifier, поэтому шлюз
	// слушает настоящий порт, а не пишет в ResponseRecorder
	gatewayServer := httptest.NewServer(handler.NewGatewayRouter(proxy, codec, logger))

	return &TestEnv{
		gateway:        remote{t: t, url: gatewayServer.URL},
		gatewayServer:  gatewayServer,
		authServer:     authServer,
		urlServer:      urlServer,
		dbContainer:    dbContainer,
		redisContainer: redisContainer,
		db:             db,
		redis:          redisClient,
	}
}

// teardown очищает ресурсы после теста
func (env *TestEnv) teardown(t *testing.T) {
	env.gatewayServer.Close()
	env.authServer.Close()
	env.urlServer.Close()
	env.db.Close()
	env.redis.Close()

	ctx := t.Context()
	if env.dbContainer != nil {
		env.dbContainer.Terminate(ctx)
	}
	if env.redisContainer != nil {
		env.redisContainer.Terminate(ctx)
	}
}

// remote пересылает запрос в сервер по сети и копирует ответ в recorder,
// чтобы сквозные тесты пользовались теми же doJSON и register
type remote struct {
	t   *testing.T
	url string
}

var noRedirects = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func (r remote) ServeHTTP(w http.ResponseWriter, in *http.Request) {
	req, err := http.NewRequest(in.Method, r.url+in.URL.RequestURI(), in.Body)
	require.NoError(r.t, err)
	req.Header = in.Header.Clone()

	resp, err := noRedirects.Do(req)
	require.NoError(r.t, err)
	defer resp.Body.Close()

	for k, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// TestIntegration_FullFlow проходит весь путь через шлюз: регистрация,
// создание ссылки, редирект, статистика и удаление
func TestIntegration_FullFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	pair := register(t, env.gateway)

	t.Run("login", func(t *testing.T) {
		w := doJSON(env.gateway, "POST", "/api/auth/login", gin.H{"username": "alice", "password": "pw1"}, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(env.gateway, "POST", "/api/auth/login", gin.H{"username": "alice", "password": "bad"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("me", func(t *testing.T) {
		w := doJSON(env.gateway, "GET", "/api/auth/me", nil, bearer(pair.AccessToken))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"alice"`)
	})

	// Без токена шлюз пропускает запрос, а URL сервис отвечает 401
	w := doJSON(env.gateway, "POST", "/api/urls", gin.H{"originalUrl": "https://example.com"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Поддельный X-User-ID не помогает
	w = doJSON(env.gateway, "GET", "/api/urls", nil, map[string]string{"X-User-ID": "1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(env.gateway, "POST", "/api/urls", gin.H{"originalUrl": "https://example.com"}, bearer(pair.AccessToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created handler.CreateLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	t.Run("redirect", func(t *testing.T) {
		w := doJSON(env.gateway, "GET", "/"+created.ShortCode, nil, nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://example.com", w.Header().Get("Location"))
	})

	t.Run("stats", func(t *testing.T) {
		w := doJSON(env.gateway, "GET", "/api/urls/stats/"+created.ShortCode, nil, bearer(pair.AccessToken))
		require.Equal(t, http.StatusOK, w.Code)

		var link models.Link
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
		assert.Equal(t, int64(1), link.ClickCount)
	})

	t.Run("list", func(t *testing.T) {
		w := doJSON(env.gateway, "GET", "/api/urls", nil, bearer(pair.AccessToken))
		require.Equal(t, http.StatusOK, w.Code)

		var links []models.Link
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &links))
		assert.Len(t, links, 1)
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(env.gateway, "POST", "/api/auth/register", gin.H{
			"username": "mallory",
			"password": "pw2",
			"email":    "m@x.io",
		}, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		var other models.TokenPair
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &other))

		w = doJSON(env.gateway, "DELETE", "/api/urls/"+created.ShortCode, nil, bearer(other.AccessToken))
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(env.gateway, "DELETE", "/api/urls/"+created.ShortCode, nil, bearer(pair.AccessToken))
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(env.gateway, "GET", "/"+created.ShortCode, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("refresh", func(t *testing.T) {
		w := doJSON(env.gateway, "POST", "/api/auth/refresh", nil, bearer(pair.RefreshToken))
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(env.gateway, "POST", "/api/auth/refresh", nil, bearer(pair.AccessToken))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
