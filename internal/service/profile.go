// profile.go — чтение и редактирование профиля пользователя.
// Собранный профиль (пользователь + профиль + посты) кэшируется
// в LRU с TTL и сбрасывается при создании поста или изменении профиля.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/snapfeed/internal/domain/model"
	"github.com/bigkaa/snapfeed/internal/repository"
)

const (
	// profilePostsLimit — сколько постов показывается на странице профиля.
	profilePostsLimit = MaxPageSize

	maxBioRunes      = 500
	maxLocationRunes = 100
	maxInterests     = 20
	maxInterestRunes = 50
)

// Prometheus-метрики кэша профилей.
var (
	profileCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sf_profile_cache_hits_total",
		Help: "Количество попаданий в кэш профилей",
	})
	profileCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sf_profile_cache_misses_total",
		Help: "Количество промахов кэша профилей",
	})
)

// ProfileUpdate — изменяемые поля профиля. Пустая строка очищает поле.
type ProfileUpdate struct {
	Bio       string
	Location  string
	Interests []string
}

// ProfileService — сервис профилей пользователей.
type ProfileService struct {
	users  repository.UserRepository
	posts  repository.PostRepository
	cache  *expirable.LRU[string, *model.UserWithProfile]
	logger *slog.Logger

	// mu упорядочивает заполнение кэша и Invalidate; generation растёт
	// при каждом сбросе, и результат чтения, начатого до сброса, не кэшируется.
	mu         sync.Mutex
	generation uint64
}

// NewProfileService создаёт сервис профилей с кэшем на cacheSize записей.
func NewProfileService(
	users repository.UserRepository,
	posts repository.PostRepository,
	cacheSize int,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		users:  users,
		posts:  posts,
		cache:  expirable.NewLRU[string, *model.UserWithProfile](cacheSize, nil, cacheTTL),
		logger: logger.With(slog.String("service", "profile")),
	}
}

// Get возвращает пользователя вместе с профилем и постами.
// Возвращённое значение разделяется с кэшем и не должно изменяться.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.UserWithProfile, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if cached, ok := s.cache.Get(userID); ok {
		profileCacheHitsTotal.Inc()
		return cached, nil
	}
	profileCacheMissesTotal.Inc()

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	result := &model.UserWithProfile{User: *user}

	profile, err := s.users.GetProfile(ctx, userID)
	switch {
	case err == nil:
		result.Profile = profile
	case errors.Is(err, repository.ErrNotFound):
		// профиль ещё не заполнялся
	default:
		return nil, fmt.Errorf("ошибка получения профиля: %w", err)
	}

	result.Posts, err = s.posts.ListByUser(ctx, userID, profilePostsLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения постов: %w", err)
	}
	if result.Posts == nil {
		result.Posts = []*model.Post{}
	}

	s.mu.Lock()
	if s.generation == gen {
		s.cache.Add(userID, result)
	}
	s.mu.Unlock()
	return result, nil
}

// Invalidate сбрасывает кэш профиля пользователя.
func (s *ProfileService) Invalidate(userID string) {
	s.mu.Lock()
	s.generation++
	s.cache.Remove(userID)
	s.mu.Unlock()
}

// UpdateProfile сохраняет профиль пользователя.
// Интересы нормализуются: обрезка пробелов, удаление пустых и дубликатов.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*model.Profile, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	bio, err := optionalText("bio", upd.Bio, maxBioRunes)
	if err != nil {
		return nil, err
	}
	location, err := optionalText("location", upd.Location, maxLocationRunes)
	if err != nil {
		return nil, err
	}
	interests, err := normalizeInterests(upd.Interests)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{
		UserID:    userID,
		Bio:       bio,
		Location:  location,
		Interests: interests,
	}
	// Аватар редактируется не здесь: сохраняем текущее значение
	if current, err := s.users.GetProfile(ctx, userID); err == nil {
		profile.AvatarURL = current.AvatarURL
	}

	if err := s.users.UpsertProfile(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrUnknownUser) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.Invalidate(userID)

	s.logger.Info("Профиль обновлён", slog.String("user_id", userID))
	return profile, nil
}

func optionalText(field, value string, maxRunes int) (*string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if n := utf8.RuneCountInString(value); n > maxRunes {
		return nil, fmt.Errorf("%w: %s длиннее %d символов", ErrValidation, field, maxRunes)
	}
	return &value, nil
}

func normalizeInterests(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, item := range in {
		item = strings.TrimSpace(item)
		if item == "" || seen[strings.ToLower(item)] {
			continue
		}
		if utf8.RuneCountInString(item) > maxInterestRunes {
			return nil, fmt.Errorf("%w: интерес %q длиннее %d символов", ErrValidation, item, maxInterestRunes)
		}
		seen[strings.ToLower(item)] = true
		out = append(out, item)
	}
	if len(out) > maxInterests {
		return nil, fmt.Errorf("%w: не более %d интересов", ErrValidation, maxInterests)
	}
	return out, nil
}
