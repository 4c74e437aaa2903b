// Package gateway маршрутизирует внешние запросы в auth и URL сервисы.
package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"regexp"
	"strings"

	"github.com/SergeiKhy/shortlink/internal/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var codePath = regexp.MustCompile(`^/([a-zA-Z0-9]+)$`)

// Proxy проксирует запросы в два downstream сервиса
type Proxy struct {
	auth   *httputil.ReverseProxy
	urls   *httputil.ReverseProxy
	logger *zap.Logger
}

func NewProxy(cfg config.GatewayConfig, logger *zap.Logger) (*Proxy, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	authURL, err := parseUpstream(cfg.AuthServiceURL)
	if err != nil {
		return nil, fmt.Errorf("auth service url: %w", err)
	}
	urlsURL, err := parseUpstream(cfg.URLServiceURL)
	if err != nil {
		return nil, fmt.Errorf("url service url: %w", err)
	}

	p := &Proxy{logger: logger}
	p.auth = p.newReverseProxy(authURL, "auth")
	p.urls = p.newReverseProxy(urlsURL, "urls")
	return p, nil
}

// Handle выбирает сервис по пути. Регистрируется как NoRoute, поэтому
// все middleware шлюза (включая EdgeAuth) уже отработали.
func (p *Proxy) Handle(c *gin.Context) {
	path := c.Request.URL.Path

	switch {
	case strings.HasPrefix(path, "/api/auth/"):
		p.auth.ServeHTTP(c.Writer, c.Request)

	case path == "/api/urls" || strings.HasPrefix(path, "/api/urls/"):
		p.urls.ServeHTTP(c.Writer, c.Request)

	case codePath.MatchString(path):
		// Публичный редирект /{code} живёт в URL сервисе по /api/urls/{code}
		code := codePath.FindStringSubmatch(path)[1]
		c.Request.URL.Path = "/api/urls/" + code
		c.Request.URL.RawPath = ""
		p.urls.ServeHTTP(c.Writer, c.Request)

	default:
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "not_found",
			"message": "Route not found",
		})
	}
}

func (p *Proxy) newReverseProxy(target *url.URL, name string) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			p.logger.Error("Upstream request failed",
				zap.String("upstream", name),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"success":false,"error":"bad_gateway","message":"Upstream service unavailable"}`))
		},
	}
}

func parseUpstream(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute http(s) url", raw)
	}
	return u, nil
}
