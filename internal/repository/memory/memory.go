// Пакет memory — in-memory реализации репозиториев для тестов.
// Семантика совпадает с PostgreSQL-реализациями: те же ошибки
// ErrNotFound, ErrConflict, ErrUnknownUser и тот же порядок сортировки.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/snapfeed/internal/domain/model"
	"github.com/bigkaa/snapfeed/internal/repository"
)

// Store хранит пользователей, профили и посты в памяти.
type Store struct {
	mu       sync.Mutex
	users    map[string]*model.User
	profiles map[string]*model.Profile
	posts    []*model.Post
	now      func() time.Time
}

// New создаёт пустое in-memory хранилище.
func New() *Store {
	return &Store{
		users:    make(map[string]*model.User),
		profiles: make(map[string]*model.Profile),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Posts возвращает PostRepository поверх хранилища.
func (s *Store) Posts() repository.PostRepository { return (*postRepo)(s) }

// Users возвращает UserRepository поверх хранилища.
func (s *Store) Users() repository.UserRepository { return (*userRepo)(s) }

// PostCount возвращает число сохранённых постов.
func (s *Store) PostCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// AllPosts возвращает копию всех постов в порядке вставки.
func (s *Store) AllPosts() []model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Post, len(s.posts))
	for i, p := range s.posts {
		out[i] = *p
	}
	return out
}

type postRepo Store

func (r *postRepo) Create(_ context.Context, p *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[p.UserID]; !ok {
		return repository.ErrUnknownUser
	}
	if p.IdempotencyKey != nil {
		for _, existing := range r.posts {
			if existing.UserID == p.UserID && existing.IdempotencyKey != nil &&
				*existing.IdempotencyKey == *p.IdempotencyKey {
				return repository.ErrConflict
			}
		}
	}
	p.CreatedAt = r.now()
	cp := *p
	r.posts = append(r.posts, &cp)
	return nil
}

func (r *postRepo) GetByIdempotencyKey(_ context.Context, userID, key string) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.posts {
		if p.UserID == userID && p.IdempotencyKey != nil && *p.IdempotencyKey == key {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *postRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]*model.Post, error) {
	return r.filter(func(p *model.Post) bool { return p.UserID == userID }, limit, offset), nil
}

func (r *postRepo) ListRecent(_ context.Context, limit, offset int) ([]*model.Post, error) {
	return r.filter(func(*model.Post) bool { return true }, limit, offset), nil
}

func (r *postRepo) Search(_ context.Context, query string, limit int) ([]*model.Post, error) {
	q := strings.ToLower(query)
	return r.filter(func(p *model.Post) bool {
		return strings.Contains(strings.ToLower(p.Caption), q)
	}, limit, 0), nil
}

func (r *postRepo) ReferencedImageURLs(_ context.Context, urls []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool, len(urls))
	for _, u := range urls {
		want[u] = true
	}
	result := make(map[string]bool)
	for _, p := range r.posts {
		if want[p.ImageURL] {
			result[p.ImageURL] = true
		}
	}
	return result, nil
}

// filter возвращает копии постов, новые первыми (created_at DESC, id).
func (r *postRepo) filter(match func(*model.Post) bool, limit, offset int) []*model.Post {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*model.Post
	for i := len(r.posts) - 1; i >= 0; i-- {
		if match(r.posts[i]) {
			cp := *r.posts[i]
			matched = append(matched, &cp)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched
}

type userRepo Store

func (r *userRepo) UpsertBySubject(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for _, existing := range r.users {
		if existing.Subject == u.Subject {
			existing.Email = u.Email
			existing.Name = u.Name
			if u.Image != nil {
				existing.Image = u.Image
			}
			existing.UpdatedAt = now
			*u = *existing
			return nil
		}
	}
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	cp.Interests = append([]string(nil), p.Interests...)
	return &cp, nil
}

func (r *userRepo) UpsertProfile(_ context.Context, p *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[p.UserID]; !ok {
		return repository.ErrUnknownUser
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
	p.UpdatedAt = r.now()
	cp := *p
	cp.Interests = append([]string{}, p.Interests...)
	r.profiles[p.UserID] = &cp
	return nil
}
