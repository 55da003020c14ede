// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrUnauthenticated — нет аутентифицированного владельца операции.
	ErrUnauthenticated = errors.New("пользователь не аутентифицирован")
	// ErrPersistence — ошибка сохранения записи в базе данных.
	ErrPersistence = errors.New("ошибка сохранения данных")
)
