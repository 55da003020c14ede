package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/snapfeed/internal/domain/model"
	"github.com/bigkaa/snapfeed/internal/repository"
)

func TestProfileService_Get(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "u1")

	got, err := env.profile.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get() ошибка: %v", err)
	}
	if got.Profile != nil {
		t.Errorf("Profile = %+v, ожидался nil для нового пользователя", got.Profile)
	}
	if got.Posts == nil || len(got.Posts) != 0 {
		t.Errorf("Posts = %v, ожидался пустой срез", got.Posts)
	}
	if got.User.Name != "u1" {
		t.Errorf("User.Name = %q", got.User.Name)
	}

	if _, err := env.profile.Get(ctx, uuid.New().String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() неизвестного: ошибка = %v, ожидалась ErrNotFound", err)
	}
	if _, err := env.profile.Get(ctx, ""); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Get(\"\"): ошибка = %v, ожидалась ErrUnauthenticated", err)
	}
}

// TestProfileService_InvalidatedOnCreatePost — новый пост виден в профиле сразу,
// несмотря на кэш.
func TestProfileService_InvalidatedOnCreatePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "u1")

	if _, err := env.profile.Get(ctx, u.ID); err != nil {
		t.Fatal(err)
	}

	asset := env.upload(t, u.ID, "photo.jpg", []byte("jpeg"))
	if _, _, err := env.posts.CreatePost(ctx, u.ID, asset.Reference, "hello", ""); err != nil {
		t.Fatal(err)
	}

	got, err := env.profile.Get(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Posts) != 1 {
		t.Fatalf("в профиле %d постов, ожидался 1", len(got.Posts))
	}
	if got.Posts[0].ImageURL != asset.Reference || got.Posts[0].Caption != "hello" {
		t.Errorf("пост в профиле = %+v", got.Posts[0])
	}
}

func TestProfileService_CachesResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "u1")

	first, err := env.profile.Get(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.profile.Get(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("повторный Get() должен вернуть значение из кэша")
	}

	env.profile.Invalidate(u.ID)
	third, err := env.profile.Get(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if third == first {
		t.Error("после Invalidate() значение должно быть перечитано")
	}
}

// postsDuringRead — репозиторий, выполняющий hook после первого чтения постов,
// как будто пост создан параллельно с заполнением кэша.
type postsDuringRead struct {
	repository.PostRepository
	hook func()
}

func (r *postsDuringRead) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Post, error) {
	posts, err := r.PostRepository.ListByUser(ctx, userID, limit, offset)
	if r.hook != nil {
		hook := r.hook
		r.hook = nil
		hook()
	}
	return posts, err
}

func TestProfileService_InvalidateDuringRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "u1")

	repo := &postsDuringRead{PostRepository: env.db.Posts()}
	profiles := NewProfileService(env.db.Users(), repo, 10, time.Minute, env.logger)
	repo.hook = func() {
		asset := env.upload(t, u.ID, "late.jpg", []byte("jpeg"))
		if _, _, err := env.posts.CreatePost(ctx, u.ID, asset.Reference, "neskoro", ""); err != nil {
			t.Fatal(err)
		}
		profiles.Invalidate(u.ID)
	}

	stale, err := profiles.Get(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stale.Posts) != 0 {
		t.Fatalf("чтение до создания поста вернуло %d постов", len(stale.Posts))
	}

	got, err := profiles.Get(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Posts) != 1 {
		t.Errorf("в профиле %d постов, ожидался 1: результат, прочитанный до Invalidate, попал в кэш", len(got.Posts))
	}
}

func TestProfileService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "u1")

	p, err := env.profile.UpdateProfile(ctx, u.ID, ProfileUpdate{
		Bio:       "  Fotografujem hory  ",
		Location:  "",
		Interests: []string{" hory ", "foto", "", "Hory", "cestovanie"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile() ошибка: %v", err)
	}
	if p.Bio == nil || *p.Bio != "Fotografujem hory" {
		t.Errorf("Bio = %v", p.Bio)
	}
	if p.Location != nil {
		t.Errorf("Location = %v, ожидался nil", *p.Location)
	}
	want := []string{"hory", "foto", "cestovanie"}
	if strings.Join(p.Interests, ",") != strings.Join(want, ",") {
		t.Errorf("Interests = %v, ожидалось %v", p.Interests, want)
	}

	got, err := env.profile.Get(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Profile == nil || got.Profile.Bio == nil || *got.Profile.Bio != "Fotografujem hory" {
		t.Errorf("Get() после UpdateProfile() вернул %+v", got.Profile)
	}
}

func TestProfileService_UpdateProfileValidation(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "u1")

	many := make([]string, maxInterests+1)
	for i := range many {
		many[i] = uuid.New().String()[:8]
	}

	tests := []struct {
		name    string
		userID  string
		upd     ProfileUpdate
		wantErr error
	}{
		{"без пользователя", "", ProfileUpdate{}, ErrUnauthenticated},
		{"неизвестный пользователь", uuid.New().String(), ProfileUpdate{}, ErrUnauthenticated},
		{"длинное bio", u.ID, ProfileUpdate{Bio: strings.Repeat("a", maxBioRunes+1)}, ErrValidation},
		{"длинная локация", u.ID, ProfileUpdate{Location: strings.Repeat("a", maxLocationRunes+1)}, ErrValidation},
		{"длинный интерес", u.ID, ProfileUpdate{Interests: []string{strings.Repeat("a", maxInterestRunes+1)}}, ErrValidation},
		{"слишком много интересов", u.ID, ProfileUpdate{Interests: many}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.profile.UpdateProfile(context.Background(), tt.userID, tt.upd)
			assertErrorIs(t, err, tt.wantErr)
		})
	}
}
