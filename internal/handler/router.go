package handler

import (
	"github.com/SergeiKhy/shortlink/internal/gateway"
	"github.com/SergeiKhy/shortlink/internal/middleware"
	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/SergeiKhy/shortlink/internal/token"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newEngine(logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(gin.CustomRecovery(recovery(logger)))
	return router
}

// NewAuthRouter собирает роутер auth сервиса
func NewAuthRouter(authService service.AuthService, codec *token.Codec, logger *zap.Logger) *gin.Engine {
	router := newEngine(logger)
	authHandler := NewAuthHandler(authService, logger)

	router.GET("/health", healthCheck("auth-service"))

	auth := router.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/login/email", authHandler.LoginWithEmail)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)

		// Шлюз не проверяет токены на /api/auth/*, поэтому сервис делает это сам
		bearer := auth.Group("", middleware.BearerAuthentication(codec))
		bearer.GET("/me", authHandler.Me)
		bearer.POST("/validate", authHandler.Validate)
	}

	return router
}

// NewURLRouter собирает роутер URL сервиса. Личность приходит только
// из заголовков шлюза.
func NewURLRouter(linkService service.LinkService, baseURL string, logger *zap.Logger) *gin.Engine {
	router := newEngine(logger)
	linkHandler := NewLinkHandler(linkService, baseURL, logger)

	router.GET("/health", healthCheck("url-service"))

	urls := router.Group("/api/urls", middleware.TrustedIdentity())
	{
		urls.POST("", linkHandler.CreateLink)
		urls.GET("", linkHandler.ListLinks)
		urls.GET("/stats/:code", linkHandler.GetStats)
		urls.GET("/:code", linkHandler.Redirect)
		urls.DELETE("/:code", linkHandler.DeleteLink)
	}

	return router
}

// NewGatewayRouter собирает единственную внешнюю точку входа.
// EdgeAuth стоит до проксирования.
func NewGatewayRouter(proxy *gateway.Proxy, codec *token.Codec, logger *zap.Logger) *gin.Engine {
	router := newEngine(logger)
	router.Use(middleware.EdgeAuth(codec, logger))
	router.NoRoute(proxy.Handle)
	return router
}
