package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Error:   code,
		Message: message,
	})
}

// errorStatus сопоставляет ошибки сервисного слоя со статусом ответа.
// Всё неизвестное считается внутренней ошибкой без деталей.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, service.ErrConflict):
		return http.StatusBadRequest, "conflict"
	case errors.Is(err, service.ErrResourceExhausted):
		return http.StatusBadRequest, "generation_failed"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondError пишет ответ для ошибки сервиса
func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		abortWithError(c, status, code, "Internal server error")
		return
	}
	abortWithError(c, status, code, publicMessage(err))
}

// publicMessage отдаёт клиенту текст после сентинела: "invalid input: malformed url" -> "malformed url"
func publicMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	return msg
}

// recovery превращает панику в обычный 500 ответ
func recovery(logger *zap.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		logger.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
		)
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// healthCheck godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": name,
		})
	}
}
