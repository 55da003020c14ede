// posts.go — сервис постов: загрузка изображений и создание записей.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/snapfeed/internal/domain/model"
	"github.com/bigkaa/snapfeed/internal/repository"
	"github.com/bigkaa/snapfeed/internal/storage/blobstore"
)

const (
	// MaxCaptionRunes — максимальная длина подписи в символах.
	MaxCaptionRunes = 2200
	// DefaultPageSize — размер страницы списка постов по умолчанию.
	DefaultPageSize = 20
	// MaxPageSize — максимальный размер страницы.
	MaxPageSize = 100
)

// Prometheus метрики постов.
var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sf_uploads_total",
		Help: "Количество загрузок изображений по результату",
	}, []string{"result"})

	postsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sf_posts_created_total",
		Help: "Количество созданных постов (без идемпотентных повторов)",
	})
)

// PostService — сервис загрузки изображений и управления постами.
type PostService struct {
	posts       repository.PostRepository
	assets      AssetStore
	verifyAsset bool
	profiles    ProfileInvalidator
	logger      *slog.Logger
}

// NewPostService создаёт сервис постов.
// verifyAsset — проверять существование файла по ссылке перед созданием поста.
// profiles может быть nil.
func NewPostService(
	posts repository.PostRepository,
	assets AssetStore,
	verifyAsset bool,
	profiles ProfileInvalidator,
	logger *slog.Logger,
) *PostService {
	return &PostService{
		posts:       posts,
		assets:      assets,
		verifyAsset: verifyAsset,
		profiles:    profiles,
		logger:      logger.With(slog.String("service", "posts")),
	}
}

// UploadAsset сохраняет файл владельца ownerID и возвращает его описание.
// Ошибки: ErrUnauthenticated, ErrValidation (пустой файл), blobstore.ErrStorage.
func (s *PostService) UploadAsset(ctx context.Context, ownerID string, r io.Reader, nameHint string) (*model.Asset, error) {
	if ownerID == "" {
		uploadsTotal.WithLabelValues("unauthenticated").Inc()
		return nil, ErrUnauthenticated
	}

	asset, err := s.assets.Store(ctx, r, nameHint)
	if err != nil {
		if errors.Is(err, blobstore.ErrEmpty) {
			uploadsTotal.WithLabelValues("invalid").Inc()
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		uploadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ошибка сохранения файла: %w", err)
	}

	uploadsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Файл загружен",
		slog.String("user_id", ownerID),
		slog.String("reference", asset.Reference),
		slog.Int64("size", asset.Size),
	)
	return asset, nil
}

// CreatePost создаёт пост владельца ownerID со ссылкой на ранее загруженный файл.
// Повторный вызов с тем же idempotencyKey возвращает существующий пост и created=false.
// Ошибки: ErrUnauthenticated, ErrValidation, ErrPersistence.
func (s *PostService) CreatePost(
	ctx context.Context,
	ownerID, assetReference, caption, idempotencyKey string,
) (post *model.Post, created bool, err error) {
	if ownerID == "" {
		return nil, false, ErrUnauthenticated
	}

	caption, err = normalizeCaption(caption)
	if err != nil {
		return nil, false, err
	}
	key, err := normalizeIdempotencyKey(idempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if err := s.checkAssetReference(assetReference); err != nil {
		return nil, false, err
	}

	post = &model.Post{
		ID:             uuid.New().String(),
		UserID:         ownerID,
		ImageURL:       assetReference,
		Caption:        caption,
		IdempotencyKey: key,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict) && key != nil:
			existing, getErr := s.posts.GetByIdempotencyKey(ctx, ownerID, *key)
			if getErr != nil {
				return nil, false, fmt.Errorf("%w: %w", ErrPersistence, getErr)
			}
			s.logger.Info("Повторная отправка поста",
				slog.String("user_id", ownerID),
				slog.String("post_id", existing.ID),
			)
			return existing, false, nil
		case errors.Is(err, repository.ErrUnknownUser):
			return nil, false, ErrUnauthenticated
		default:
			return nil, false, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}

	postsCreatedTotal.Inc()
	if s.profiles != nil {
		s.profiles.Invalidate(ownerID)
	}

	s.logger.Info("Пост создан",
		slog.String("user_id", ownerID),
		slog.String("post_id", post.ID),
		slog.String("image_url", post.ImageURL),
	)
	return post, true, nil
}

// CreatePostWithAsset сохраняет файл и создаёт пост одной операцией.
// Если пост не создан (или это идемпотентный повтор), только что
// записанный файл удаляется.
func (s *PostService) CreatePostWithAsset(
	ctx context.Context,
	ownerID string,
	r io.Reader,
	nameHint, caption, idempotencyKey string,
) (*model.Post, bool, error) {
	if ownerID == "" {
		return nil, false, ErrUnauthenticated
	}
	// Подпись и ключ проверяются до записи файла
	if _, err := normalizeCaption(caption); err != nil {
		return nil, false, err
	}
	if _, err := normalizeIdempotencyKey(idempotencyKey); err != nil {
		return nil, false, err
	}

	asset, err := s.UploadAsset(ctx, ownerID, r, nameHint)
	if err != nil {
		return nil, false, err
	}

	post, created, err := s.CreatePost(ctx, ownerID, asset.Reference, caption, idempotencyKey)
	if err != nil || !created {
		if delErr := s.assets.Delete(asset.Reference); delErr != nil {
			s.logger.Error("Не удалось удалить файл после неудачного создания поста",
				slog.String("reference", asset.Reference),
				slog.String("error", delErr.Error()),
			)
		}
	}
	return post, created, err
}

// ListByUser возвращает посты пользователя, новые первыми.
func (s *PostService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Post, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	limit, offset = normalizePage(limit, offset)
	posts, err := s.posts.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения постов пользователя: %w", err)
	}
	return posts, nil
}

// ListRecent возвращает ленту всех постов, новые первыми.
func (s *PostService) ListRecent(ctx context.Context, limit, offset int) ([]*model.Post, error) {
	limit, offset = normalizePage(limit, offset)
	posts, err := s.posts.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ленты: %w", err)
	}
	return posts, nil
}

// Search ищет посты по подписи. Пустой запрос — пустой результат.
func (s *PostService) Search(ctx context.Context, query string, limit int) ([]*model.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	limit, _ = normalizePage(limit, 0)
	posts, err := s.posts.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска постов: %w", err)
	}
	return posts, nil
}

// checkAssetReference проверяет, что ссылка принадлежит хранилищу
// и (при verifyAsset) указывает на существующий файл.
func (s *PostService) checkAssetReference(ref string) error {
	if ref == "" {
		return fmt.Errorf("%w: imageUrl обязателен", ErrValidation)
	}
	if !strings.HasPrefix(ref, s.assets.Prefix()) {
		return fmt.Errorf("%w: imageUrl должен начинаться с %s", ErrValidation, s.assets.Prefix())
	}
	if !s.verifyAsset {
		return nil
	}

	ok, err := s.assets.Exists(ref)
	if err != nil {
		if errors.Is(err, blobstore.ErrInvalidReference) {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return fmt.Errorf("ошибка проверки файла %s: %w", ref, err)
	}
	if !ok {
		return fmt.Errorf("%w: файл %s не найден", ErrValidation, ref)
	}
	return nil
}

func normalizeCaption(caption string) (string, error) {
	caption = strings.TrimSpace(caption)
	if !utf8.ValidString(caption) {
		return "", fmt.Errorf("%w: подпись содержит некорректный UTF-8", ErrValidation)
	}
	if n := utf8.RuneCountInString(caption); n > MaxCaptionRunes {
		return "", fmt.Errorf("%w: подпись длиннее %d символов (%d)", ErrValidation, MaxCaptionRunes, n)
	}
	return caption, nil
}

// normalizeIdempotencyKey возвращает nil для пустого ключа.
// Непустой ключ должен быть UUID.
func normalizeIdempotencyKey(key string) (*string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	id, err := uuid.Parse(key)
	if err != nil {
		return nil, fmt.Errorf("%w: Idempotency-Key должен быть UUID", ErrValidation)
	}
	s := id.String()
	return &s, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
