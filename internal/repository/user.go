package repository

import (
	"context"

	"github.com/bigkaa/snapfeed/internal/domain/model"
)

// UserRepository — интерфейс доступа к таблицам users и profiles.
type UserRepository interface {
	// UpsertBySubject создаёт пользователя или обновляет email/name по claim sub.
	// Поле ID заполняется значением из БД.
	UpsertBySubject(ctx context.Context, u *model.User) error
	// GetByID возвращает пользователя по UUID.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetProfile возвращает профиль пользователя или ErrNotFound.
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	// UpsertProfile создаёт или обновляет профиль.
	UpsertProfile(ctx context.Context, p *model.Profile) error
}

type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) UpsertBySubject(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, subject, email, name, image)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subject) DO UPDATE
			SET email = EXCLUDED.email,
				name = EXCLUDED.name,
				image = COALESCE(EXCLUDED.image, users.image),
				updated_at = now()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, u.ID, u.Subject, u.Email, u.Name, u.Image).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return classify(err, "ошибка сохранения пользователя")
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, subject, email, name, image, created_at, updated_at
		FROM users WHERE id = $1`

	u := &model.User{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Subject, &u.Email, &u.Name, &u.Image, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, classify(err, "ошибка получения пользователя")
	}
	return u, nil
}

func (r *userRepo) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	query := `
		SELECT user_id, bio, location, avatar_url, interests, updated_at
		FROM profiles WHERE user_id = $1`

	p := &model.Profile{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Bio, &p.Location, &p.AvatarURL, &p.Interests, &p.UpdatedAt,
	)
	if err != nil {
		return nil, classify(err, "ошибка получения профиля")
	}
	return p, nil
}

func (r *userRepo) UpsertProfile(ctx context.Context, p *model.Profile) error {
	if p.Interests == nil {
		p.Interests = []string{}
	}
	query := `
		INSERT INTO profiles (user_id, bio, location, avatar_url, interests)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
			SET bio = EXCLUDED.bio,
				location = EXCLUDED.location,
				avatar_url = EXCLUDED.avatar_url,
				interests = EXCLUDED.interests,
				updated_at = now()
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query, p.UserID, p.Bio, p.Location, p.AvatarURL, p.Interests).
		Scan(&p.UpdatedAt)
	if err != nil {
		return classify(err, "ошибка сохранения профиля")
	}
	return nil
}
