package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/repository"
	"github.com/SergeiKhy/shortlink/internal/shortcode"
	"go.uber.org/zap"
)

const (
	DefaultLinkTTL = 7 * 24 * time.Hour
	cacheTTL       = 24 * time.Hour
	maxURLLength   = 2048
)

// CodeGenerator выдаёт короткий код для (url, владелец)
type CodeGenerator interface {
	Generate(ctx context.Context, rawURL string, ownerID int64) (string, error)
}

// LinkService отвечает за жизненный цикл коротких ссылок
type LinkService interface {
	CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error)
	Resolve(ctx context.Context, code string) (*models.Link, error)
	ListLinks(ctx context.Context, userID int64) ([]models.Link, error)
	GetStats(ctx context.Context, code string, userID int64) (*models.Link, error)
	DeleteLink(ctx context.Context, code string, userID int64) error
}

type linkService struct {
	linkRepo  repository.LinkRepository
	cacheRepo repository.CacheRepository
	generator CodeGenerator
	linkTTL   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

type LinkServiceOption func(*linkService)

// WithLinkTTL меняет срок жизни ссылки (только информативный)
func WithLinkTTL(ttl time.Duration) LinkServiceOption {
	return func(s *linkService) {
		if ttl > 0 {
			s.linkTTL = ttl
		}
	}
}

func WithLinkClock(now func() time.Time) LinkServiceOption {
	return func(s *linkService) { s.now = now }
}

func NewLinkService(
	linkRepo repository.LinkRepository,
	cacheRepo repository.CacheRepository,
	generator CodeGenerator,
	logger *zap.Logger,
	opts ...LinkServiceOption,
) LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &linkService{
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		generator: generator,
		linkTTL:   DefaultLinkTTL,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *linkService) CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error) {
	if input.UserID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", ErrInvalidInput)
	}

	originalURL := strings.TrimSpace(input.OriginalURL)
	if err := validateURL(originalURL); err != nil {
		return nil, err
	}

	code, err := s.generator.Generate(ctx, originalURL, input.UserID)
	if err != nil {
		if errors.Is(err, shortcode.ErrExhausted) {
			return nil, fmt.Errorf("%w: %w", ErrResourceExhausted, err)
		}
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	now := s.now().UTC()
	link := &models.Link{
		UserID:      input.UserID,
		OriginalURL: originalURL,
		ShortCode:   code,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.linkTTL),
	}

	// Проверка в генераторе и вставка не атомарны, решает уникальный индекс
	if err := s.linkRepo.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			return nil, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return nil, err
	}

	s.cache(ctx, link)

	return link, nil
}

// Resolve находит ссылку для редиректа и засчитывает клик
func (s *linkService) Resolve(ctx context.Context, code string) (*models.Link, error) {
	if !shortcode.Valid(code) {
		return nil, fmt.Errorf("%w: link %q", ErrNotFound, code)
	}

	link, err := s.cacheRepo.Get(ctx, code)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("Link cache read failed", zap.String("code", code), zap.Error(err))
		}

		link, err = s.linkRepo.GetByShortCode(ctx, code)
		if err != nil {
			return nil, mapLinkErr(err)
		}
		s.cache(ctx, link)
	}

	count, err := s.linkRepo.IncrementClicks(ctx, code)
	if err != nil {
		// Удалена между поиском и инкрементом
		if errors.Is(err, repository.ErrLinkNotFound) {
			s.evict(ctx, code)
		}
		return nil, mapLinkErr(err)
	}

	resolved := *link
	resolved.ClickCount = count
	return &resolved, nil
}

func (s *linkService) ListLinks(ctx context.Context, userID int64) ([]models.Link, error) {
	return s.linkRepo.ListByOwner(ctx, userID)
}

func (s *linkService) GetStats(ctx context.Context, code string, userID int64) (*models.Link, error) {
	link, err := s.linkRepo.GetByShortCodeAndOwner(ctx, code, userID)
	if err != nil {
		return nil, mapLinkErr(err)
	}
	return link, nil
}

// DeleteLink возвращает ErrNotFound, если ссылка не принадлежит userID
func (s *linkService) DeleteLink(ctx context.Context, code string, userID int64) error {
	if err := s.linkRepo.DeleteByShortCodeAndOwner(ctx, code, userID); err != nil {
		return mapLinkErr(err)
	}

	s.evict(ctx, code)
	s.logger.Info("Link deleted", zap.String("code", code), zap.Int64("user_id", userID))
	return nil
}

func (s *linkService) cache(ctx context.Context, link *models.Link) {
	if err := s.cacheRepo.Set(ctx, link.ShortCode, link, cacheTTL); err != nil {
		s.logger.Warn("Failed to cache link", zap.String("code", link.ShortCode), zap.Error(err))
	}
}

func (s *linkService) evict(ctx context.Context, code string) {
	if err := s.cacheRepo.Delete(ctx, code); err != nil {
		s.logger.Warn("Failed to evict cached link", zap.String("code", code), zap.Error(err))
	}
}

func mapLinkErr(err error) error {
	if errors.Is(err, repository.ErrLinkNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// validateURL принимает только абсолютные http(s) URL с хостом
func validateURL(raw string) error {
	if raw == "" || len(raw) > maxURLLength {
		return fmt.Errorf("%w: url is empty or too long", ErrInvalidInput)
	}

	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("%w: malformed url", ErrInvalidInput)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: url scheme must be http or https", ErrInvalidInput)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: url has no host", ErrInvalidInput)
	}
	return nil
}
