package model

import "time"

// Post — пост пользователя: ссылка на изображение и подпись.
// Хранится в таблице posts.
type Post struct {
	// ID — UUID поста
	ID string
	// UserID — UUID владельца
	UserID string
	// ImageURL — ссылка на файл, возвращённая хранилищем
	ImageURL string
	// Caption — подпись (может быть пустой)
	Caption string
	// IdempotencyKey — клиентский токен попытки отправки (опционально)
	IdempotencyKey *string
	// CreatedAt — время создания
	CreatedAt time.Time
}
