package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SergeiKhy/shortlink/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.env"), config.DefaultGatewayPort)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 100, cfg.Redis.PoolSize)
	assert.Equal(t, "shortlink", cfg.Redis.KeyPrefix)
	assert.Equal(t, "url-shortener-application", cfg.JWT.Issuer)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Link.DefaultTTL)
	assert.Equal(t, "http://localhost:8081", cfg.Gateway.AuthServiceURL)
	assert.Equal(t, "http://localhost:8082", cfg.Gateway.URLServiceURL)
}

func TestLoadFile_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "APP_PORT=9000\n" +
		"DB_NAME=shortener\n" +
		"JWT_SECRET=0123456789abcdef0123456789abcdef\n" +
		"JWT_ACCESS_TTL=5m\n" +
		"PUBLIC_BASE_URL=https://sho.rt/\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadFile(path, config.DefaultGatewayPort)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "shortener", cfg.DB.Name)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.JWT.Secret)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, "https://sho.rt", cfg.App.PublicBaseURL, "trailing slash is trimmed")
}

func TestLoadFile_EnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=9000\n"), 0o600))
	t.Setenv("APP_PORT", "9100")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_KEY_PREFIX", "staging")

	cfg, err := config.LoadFile(path, config.DefaultGatewayPort)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.App.Port)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "staging", cfg.Redis.KeyPrefix)
}

func TestLoadFile_InvalidLinkTTLFallsBack(t *testing.T) {
	t.Setenv("LINK_DEFAULT_TTL", "0s")

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.env"), config.DefaultURLPort)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, cfg.Link.DefaultTTL)
}

// TestLoadFile_DefaultPortsDoNotCollide проверяет, что три бинарника с
// настройками по умолчанию слушают разные порты, а шлюз смотрит на сервисы
func TestLoadFile_DefaultPortsDoNotCollide(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	gw, err := config.LoadFile(missing, config.DefaultGatewayPort)
	require.NoError(t, err)
	auth, err := config.LoadFile(missing, config.DefaultAuthPort)
	require.NoError(t, err)
	urls, err := config.LoadFile(missing, config.DefaultURLPort)
	require.NoError(t, err)

	ports := map[string]bool{gw.App.Port: true, auth.App.Port: true, urls.App.Port: true}
	assert.Len(t, ports, 3)

	assert.Equal(t, "http://localhost:"+auth.App.Port, gw.Gateway.AuthServiceURL)
	assert.Equal(t, "http://localhost:"+urls.App.Port, gw.Gateway.URLServiceURL)
	assert.Equal(t, "http://localhost:"+gw.App.Port, urls.App.PublicBaseURL)
}

func TestLoadFile_AppPortOverridesDefault(t *testing.T) {
	t.Setenv("APP_PORT", "9200")

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.env"), config.DefaultAuthPort)
	require.NoError(t, err)
	assert.Equal(t, "9200", cfg.App.Port)
}
