package service

import "errors"

// Ошибки сервисного слоя. Handler'ы сопоставляют их со статусами через
// errors.Is, всё остальное считается внутренней ошибкой.
var (
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")
	ErrResourceExhausted = errors.New("resource exhausted")
)
