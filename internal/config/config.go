package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Gateway GatewayConfig
	Link    LinkConfig
}

type AppConfig struct {
	Port string
	// PublicBaseURL адрес шлюза, из него собирается полный короткий URL
	PublicBaseURL string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type GatewayConfig struct {
	AuthServiceURL string
	URLServiceURL  string
}

type LinkConfig struct {
	DefaultTTL time.Duration
}

// Порты по умолчанию: шлюз снаружи, сервисы за ним. Адреса сервисов
// в GatewayConfig по умолчанию указывают на эти же порты.
const (
	DefaultGatewayPort = "8080"
	DefaultAuthPort    = "8081"
	DefaultURLPort     = "8082"
)

// Load читает .env (если есть) и переменные окружения. Окружение важнее.
// defaultPort используется, когда APP_PORT не задан.
func Load(defaultPort string) (*Config, error) {
	return LoadFile(".env", defaultPort)
}

func LoadFile(path, defaultPort string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", defaultPort)
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:"+DefaultGatewayPort)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 100)
	v.SetDefault("REDIS_KEY_PREFIX", "shortlink")
	v.SetDefault("JWT_ISSUER", "url-shortener-application")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h")
	v.SetDefault("AUTH_SERVICE_URL", "http://localhost:"+DefaultAuthPort)
	v.SetDefault("URL_SERVICE_URL", "http://localhost:"+DefaultURLPort)
	v.SetDefault("LINK_DEFAULT_TTL", "168h")

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.PublicBaseURL = strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/")
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	cfg.Redis.KeyPrefix = v.GetString("REDIS_KEY_PREFIX")

	// Длину JWT_SECRET проверяет token.NewCodec при старте
	cfg.JWT.Secret = v.GetString("JWT_SECRET")
	cfg.JWT.Issuer = v.GetString("JWT_ISSUER")
	cfg.JWT.AccessTTL = v.GetDuration("JWT_ACCESS_TTL")
	cfg.JWT.RefreshTTL = v.GetDuration("JWT_REFRESH_TTL")

	cfg.Gateway.AuthServiceURL = v.GetString("AUTH_SERVICE_URL")
	cfg.Gateway.URLServiceURL = v.GetString("URL_SERVICE_URL")

	cfg.Link.DefaultTTL = v.GetDuration("LINK_DEFAULT_TTL")
	if cfg.Link.DefaultTTL <= 0 {
		cfg.Link.DefaultTTL = 7 * 24 * time.Hour
	}

	return &cfg, nil
}
