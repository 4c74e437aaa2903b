package main

import (
	"context"
	"log"

	"github.com/SergeiKhy/shortlink/internal/config"
	"github.com/SergeiKhy/shortlink/internal/gateway"
	"github.com/SergeiKhy/shortlink/internal/handler"
	"github.com/SergeiKhy/shortlink/internal/httpserver"
	"github.com/SergeiKhy/shortlink/internal/token"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load(config.DefaultGatewayPort)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	codec, err := token.NewCodec(token.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	})
	if err != nil {
		logger.Fatal("Invalid JWT configuration", zap.Error(err))
	}

	proxy, err := gateway.NewProxy(cfg.Gateway, logger)
	if err != nil {
		logger.Fatal("Invalid upstream configuration", zap.Error(err))
	}
	logger.Info("Routing configured",
		zap.String("auth_service", cfg.Gateway.AuthServiceURL),
		zap.String("url_service", cfg.Gateway.URLServiceURL),
	)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewGatewayRouter(proxy, codec, logger)

	srv := httpserver.New(cfg.App.Port, router)
	if err := httpserver.Run(context.Background(), srv, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
