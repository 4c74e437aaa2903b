package handler

import (
	"net/http"

	"github.com/SergeiKhy/shortlink/internal/identity"
	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LinkHandler struct {
	service service.LinkService
	baseURL string
	logger  *zap.Logger
}

func NewLinkHandler(service service.LinkService, baseURL string, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		baseURL: baseURL,
		logger:  logger,
	}
}

type CreateLinkRequest struct {
	OriginalURL string `json:"originalUrl" binding:"required"`
}

type CreateLinkResponse struct {
	ShortCode   string `json:"shortUrl"`
	FullURL     string `json:"fullUrl"`
	OriginalURL string `json:"originalUrl"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
}

// requireIdentity пускает дальше только запросы с личностью от шлюза.
// Нет X-User-ID -> 401, мусор в нём -> 400.
func requireIdentity(c *gin.Context) (identity.Identity, bool) {
	if c.GetHeader(identity.HeaderUserID) == "" {
		abortWithError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return identity.Identity{}, false
	}

	id, ok := identity.FromContext(c.Request.Context())
	if !ok {
		abortWithError(c, http.StatusBadRequest, "invalid_user_id", "X-User-ID must be a positive integer")
		return identity.Identity{}, false
	}
	return id, true
}

// CreateLink godoc
// @Summary Create a short link
// @Description Create a new shortened URL owned by the caller
// @Tags links
// @Accept json
// @Produce json
// @Param request body CreateLinkRequest true "Link creation request"
// @Success 200 {object} CreateLinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/urls [post]
func (h *LinkHandler) CreateLink(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	link, err := h.service.CreateLink(c.Request.Context(), &models.CreateLinkInput{
		OriginalURL: req.OriginalURL,
		UserID:      id.UserID,
	})
	if err != nil {
		h.logger.Warn("Failed to create link", zap.Int64("user_id", id.UserID), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateLinkResponse{
		ShortCode:   link.ShortCode,
		FullURL:     h.baseURL + "/" + link.ShortCode,
		OriginalURL: link.OriginalURL,
		Success:     true,
		Message:     "Short URL created successfully",
	})
}

// ListLinks godoc
// @Summary List the caller's links
// @Tags links
// @Produce json
// @Success 200 {array} models.Link
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/urls [get]
func (h *LinkHandler) ListLinks(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	links, err := h.service.ListLinks(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, links)
}

// Redirect godoc
// @Summary Redirect to original URL
// @Description Redirect to the original URL by short code and count the click
// @Tags links
// @Param code path string true "Short code"
// @Success 302
// @Failure 404 {object} ErrorResponse
// @Router /api/urls/{code} [get]
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	link, err := h.service.Resolve(c.Request.Context(), code)
	if err != nil {
		h.logger.Debug("Redirect failed", zap.String("code", code), zap.Error(err))
		respondError(c, err)
		return
	}

	c.Redirect(http.StatusFound, link.OriginalURL)
}

// DeleteLink godoc
// @Summary Delete a short link
// @Tags links
// @Param code path string true "Short code"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/urls/{code} [delete]
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	code := c.Param("code")
	if err := h.service.DeleteLink(c.Request.Context(), code, id.UserID); err != nil {
		h.logger.Warn("Failed to delete link", zap.String("code", code), zap.Error(err))
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetStats godoc
// @Summary Get click statistics for a short link
// @Tags links
// @Produce json
// @Param code path string true "Short code"
// @Success 200 {object} models.Link
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/urls/stats/{code} [get]
func (h *LinkHandler) GetStats(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	code := c.Param("code")
	link, err := h.service.GetStats(c.Request.Context(), code, id.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, link)
}
