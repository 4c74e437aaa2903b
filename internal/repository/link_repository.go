package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/jackc/pgx/v5"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrCodeExists   = errors.New("short code already exists")
)

// LinkRepository хранилище ссылок. Уникальность кода гарантирует только
// UNIQUE на short_code: CodeExists можно вызвать заранее, но ErrCodeExists
// из Create всё равно нужно обрабатывать.
type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	CodeExists(ctx context.Context, code string) (bool, error)
	GetByShortCode(ctx context.Context, code string) (*models.Link, error)
	GetByShortCodeAndOwner(ctx context.Context, code string, userID int64) (*models.Link, error)
	ListByOwner(ctx context.Context, userID int64) ([]models.Link, error)
	IncrementClicks(ctx context.Context, code string) (int64, error)
	DeleteByShortCodeAndOwner(ctx context.Context, code string, userID int64) error
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

const linkColumns = `id, user_id, original_url, short_code, created_at, expires_at, click_count`

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (user_id, original_url, short_code, created_at, expires_at, click_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.UserID,
		link.OriginalURL,
		link.ShortCode,
		link.CreatedAt,
		link.ExpiresAt,
		link.ClickCount,
	).Scan(&link.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

func (r *linkRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM links WHERE short_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}
	return exists, nil
}

// GetByShortCode не смотрит на expires_at
func (r *linkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE short_code = $1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, code))
}

func (r *linkRepository) GetByShortCodeAndOwner(ctx context.Context, code string, userID int64) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE short_code = $1 AND user_id = $2`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, code, userID))
}

func (r *linkRepository) ListByOwner(ctx context.Context, userID int64) ([]models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		var link models.Link
		if err := scanLink(rows, &link); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

// IncrementClicks увеличивает счётчик одним UPDATE, параллельные клики не теряются
func (r *linkRepository) IncrementClicks(ctx context.Context, code string) (int64, error) {
	query := `UPDATE links SET click_count = click_count + 1 WHERE short_code = $1 RETURNING click_count`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, code).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrLinkNotFound
		}
		return 0, fmt.Errorf("failed to increment clicks: %w", err)
	}

	return count, nil
}

func (r *linkRepository) DeleteByShortCodeAndOwner(ctx context.Context, code string, userID int64) error {
	query := `DELETE FROM links WHERE short_code = $1 AND user_id = $2`

	result, err := r.db.Pool.Exec(ctx, query, code, userID)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

func (r *linkRepository) scanOne(row pgx.Row) (*models.Link, error) {
	link := &models.Link{}
	if err := scanLink(row, link); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

func scanLink(row pgx.Row, link *models.Link) error {
	return row.Scan(
		&link.ID,
		&link.UserID,
		&link.OriginalURL,
		&link.ShortCode,
		&link.CreatedAt,
		&link.ExpiresAt,
		&link.ClickCount,
	)
}
