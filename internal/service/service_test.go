package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bigkaa/snapfeed/internal/clock"
	"github.com/bigkaa/snapfeed/internal/domain/model"
	"github.com/bigkaa/snapfeed/internal/repository"
	"github.com/bigkaa/snapfeed/internal/repository/memory"
	"github.com/bigkaa/snapfeed/internal/storage/blobstore"
)

// testEnv — окружение сервисных тестов: in-memory БД и хранилище во временной директории.
type testEnv struct {
	db      *memory.Store
	assets  *blobstore.Store
	clock   *clock.StubClock
	profile *ProfileService
	posts   *PostService
	users   *UserService
	logger  *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	c := clock.NewStubClockAt(time.UnixMilli(1700000000000))
	assets, err := blobstore.New(filepath.Join(t.TempDir(), "uploads"), "uploads", c)
	if err != nil {
		t.Fatalf("Ошибка создания хранилища: %v", err)
	}

	db := memory.New()
	profile := NewProfileService(db.Users(), db.Posts(), 100, time.Minute, logger)
	return &testEnv{
		db:      db,
		assets:  assets,
		clock:   c,
		profile: profile,
		posts:   NewPostService(db.Posts(), assets, true, profile, logger),
		users:   NewUserService(db.Users(), profile, logger),
		logger:  logger,
	}
}

func (e *testEnv) user(t *testing.T, subject string) *model.User {
	t.Helper()
	u, err := e.users.EnsureUser(context.Background(), subject, subject+"@example.com", subject)
	if err != nil {
		t.Fatalf("EnsureUser() ошибка: %v", err)
	}
	return u
}

func (e *testEnv) upload(t *testing.T, ownerID, name string, data []byte) *model.Asset {
	t.Helper()
	a, err := e.posts.UploadAsset(context.Background(), ownerID, bytesReader(data), name)
	if err != nil {
		t.Fatalf("UploadAsset() ошибка: %v", err)
	}
	return a
}

// failingPostRepo — PostRepository, у которого Create всегда завершается ошибкой.
type failingPostRepo struct {
	repository.PostRepository
	err error
}

func (f *failingPostRepo) Create(context.Context, *model.Post) error { return f.err }

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("ошибка = %v, ожидалась %v", err, target)
	}
}
