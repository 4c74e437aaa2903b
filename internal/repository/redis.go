package repository

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/SergeiKhy/shortlink/internal/config"
	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 5 * time.Second

// RedisDB держит клиент и пространство имён ключей URL сервиса, чтобы
// несколько окружений могли делить один Redis
type RedisDB struct {
	Client    *redis.Client
	namespace string
}

func NewRedisClient(cfg config.RedisConfig) (*RedisDB, error) {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 100
	}

	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		MinIdleConns: max(poolSize/10, 1),
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis db %d at %s: %w", cfg.DB, client.Options().Addr, err)
	}

	return &RedisDB{
		Client:    client,
		namespace: strings.Trim(cfg.KeyPrefix, ":"),
	}, nil
}

// Key собирает ключ вида "<namespace>:<kind>:<id>", без namespace "<kind>:<id>"
func (db *RedisDB) Key(kind, id string) string {
	if db.namespace == "" {
		return kind + ":" + id
	}
	return db.namespace + ":" + kind + ":" + id
}

func (db *RedisDB) Close() error {
	return db.Client.Close()
}
