package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/snapfeed/internal/domain/model"
)

// PostRepository — интерфейс доступа к таблице posts.
type PostRepository interface {
	// Create вставляет пост. Повтор (user_id, idempotency_key) — ErrConflict.
	Create(ctx context.Context, p *model.Post) error
	// GetByIdempotencyKey возвращает пост, созданный с данным токеном.
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*model.Post, error)
	// ListByUser возвращает посты пользователя, новые первыми.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Post, error)
	// ListRecent возвращает ленту всех постов, новые первыми.
	ListRecent(ctx context.Context, limit, offset int) ([]*model.Post, error)
	// Search ищет посты по подстроке подписи (без учёта регистра).
	Search(ctx context.Context, query string, limit int) ([]*model.Post, error)
	// ReferencedImageURLs возвращает подмножество urls, на которые ссылается хотя бы один пост.
	ReferencedImageURLs(ctx context.Context, urls []string) (map[string]bool, error)
}

type postRepo struct {
	db DBTX
}

// NewPostRepository создаёт репозиторий постов.
func NewPostRepository(db DBTX) PostRepository {
	return &postRepo{db: db}
}

const postColumns = `id, user_id, image_url, caption, idempotency_key, created_at`

func scanPost(row pgx.Row) (*model.Post, error) {
	p := &model.Post{}
	err := row.Scan(&p.ID, &p.UserID, &p.ImageURL, &p.Caption, &p.IdempotencyKey, &p.CreatedAt)
	return p, err
}

func (r *postRepo) Create(ctx context.Context, p *model.Post) error {
	query := `
		INSERT INTO posts (id, user_id, image_url, caption, idempotency_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.UserID, p.ImageURL, p.Caption, p.IdempotencyKey,
	).Scan(&p.CreatedAt)
	if err != nil {
		return classify(err, "ошибка создания поста")
	}
	return nil
}

func (r *postRepo) GetByIdempotencyKey(ctx context.Context, userID, key string) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 AND idempotency_key = $2`

	p, err := scanPost(r.db.QueryRow(ctx, query, userID, key))
	if err != nil {
		return nil, classify(err, "ошибка получения поста")
	}
	return p, nil
}

func (r *postRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`
	return r.list(ctx, query, userID, limit, offset)
}

func (r *postRepo) ListRecent(ctx context.Context, limit, offset int) ([]*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`
	return r.list(ctx, query, limit, offset)
}

func (r *postRepo) Search(ctx context.Context, q string, limit int) ([]*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE caption ILIKE $1 ESCAPE '\'
		ORDER BY created_at DESC, id
		LIMIT $2`
	return r.list(ctx, query, containsPattern(q), limit)
}

func (r *postRepo) list(ctx context.Context, query string, args ...any) ([]*model.Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "ошибка получения списка постов")
	}
	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Post, error) {
		return scanPost(row)
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения постов: %w", err)
	}
	return posts, nil
}

func (r *postRepo) ReferencedImageURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(urls) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT image_url FROM posts WHERE image_url = ANY($1)`, urls)
	if err != nil {
		return nil, classify(err, "ошибка проверки ссылок на файлы")
	}
	used, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ссылок на файлы: %w", err)
	}
	for _, u := range used {
		result[u] = true
	}
	return result, nil
}
