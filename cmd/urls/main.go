package main

import (
	"context"
	"log"

	"github.com/SergeiKhy/shortlink/internal/config"
	"github.com/SergeiKhy/shortlink/internal/handler"
	"github.com/SergeiKhy/shortlink/internal/httpserver"
	"github.com/SergeiKhy/shortlink/internal/repository"
	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/SergeiKhy/shortlink/internal/shortcode"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load(config.DefaultURLPort)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Подключение к БД (postgres)
	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	if err := repository.MigrateLinks(context.Background(), db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Подключение к Redis
	redis, err := repository.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	// Инициализация репозиториев
	linkRepo := repository.NewLinkRepository(db)
	cacheRepo := repository.NewCacheRepository(redis)

	// Инициализация сервиса
	linkService := service.NewLinkService(
		linkRepo,
		cacheRepo,
		shortcode.NewGenerator(linkRepo),
		logger,
		service.WithLinkTTL(cfg.Link.DefaultTTL),
	)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewURLRouter(linkService, cfg.App.PublicBaseURL, logger)

	srv := httpserver.New(cfg.App.Port, router)
	if err := httpserver.Run(context.Background(), srv, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
