package models

import (
	"time"
)

type Link struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	OriginalURL string    `json:"originalUrl"`
	ShortCode   string    `json:"shortUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	// ExpiresAt информативный: просроченные ссылки не отклоняются и не удаляются
	ExpiresAt  time.Time `json:"expirationDate"`
	ClickCount int64     `json:"clickCount"`
}

type CreateLinkInput struct {
	OriginalURL string
	UserID      int64
}
