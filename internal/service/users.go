// users.go — заведение пользователя при входе через IdP.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bigkaa/snapfeed/internal/domain/model"
	"github.com/bigkaa/snapfeed/internal/repository"
)

// UserService — сервис пользователей.
type UserService struct {
	users    repository.UserRepository
	profiles ProfileInvalidator
	logger   *slog.Logger
}

// NewUserService создаёт сервис пользователей. profiles может быть nil.
func NewUserService(users repository.UserRepository, profiles ProfileInvalidator, logger *slog.Logger) *UserService {
	return &UserService{
		users:    users,
		profiles: profiles,
		logger:   logger.With(slog.String("service", "users")),
	}
}

// EnsureUser создаёт пользователя по claim sub или обновляет email/name существующего.
func (s *UserService) EnsureUser(ctx context.Context, subject, email, name string) (*model.User, error) {
	if subject == "" {
		return nil, ErrUnauthenticated
	}

	u := &model.User{
		ID:      uuid.New().String(),
		Subject: subject,
		Email:   email,
		Name:    name,
	}
	if err := s.users.UpsertBySubject(ctx, u); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if s.profiles != nil {
		s.profiles.Invalidate(u.ID)
	}

	s.logger.Debug("Пользователь синхронизирован",
		slog.String("user_id", u.ID),
		slog.String("subject", subject),
	)
	return u, nil
}
