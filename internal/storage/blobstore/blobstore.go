// Пакет blobstore — хранилище загруженных изображений на локальном диске.
// Каждый файл получает имя <unix-ms><.ext>, выведенное из момента записи,
// и адресуется публичной ссылкой /<prefix>/<name>. Файлы никогда не перезаписываются.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/snapfeed/internal/clock"
	"github.com/bigkaa/snapfeed/internal/domain/model"
)

// Ошибки хранилища.
var (
	// ErrStorage — ошибка ввода-вывода при работе с диском.
	ErrStorage = errors.New("ошибка хранилища файлов")
	// ErrEmpty — пустой файл не сохраняется.
	ErrEmpty = errors.New("пустой файл")
	// ErrNotFound — файл по ссылке отсутствует.
	ErrNotFound = errors.New("файл не найден")
	// ErrInvalidReference — ссылка не принадлежит хранилищу.
	ErrInvalidReference = errors.New("некорректная ссылка на файл")
)

const (
	// maxExtLen — максимальная длина расширения в имени файла.
	maxExtLen = 10
	// maxNameAttempts — число попыток подобрать свободное имя при коллизии.
	maxNameAttempts = 16
	// tempPrefix — префикс временных файлов; такие файлы не видны снаружи.
	tempPrefix = ".upload-"
)

// Store — хранилище файлов в директории dir.
type Store struct {
	dir    string
	prefix string
	clock  clock.Clock
}

// New создаёт хранилище. Директория создаётся, если не существует.
// prefix — первый сегмент публичной ссылки без слэшей (например, "uploads").
func New(dir, prefix string, c clock.Clock) (*Store, error) {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return nil, fmt.Errorf("публичный префикс хранилища не может быть пустым")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: не удалось создать директорию %s: %w", ErrStorage, dir, err)
	}
	if c == nil {
		c = clock.NewRealClock()
	}
	return &Store{dir: dir, prefix: prefix, clock: c}, nil
}

// Dir возвращает корневую директорию хранилища.
func (s *Store) Dir() string { return s.dir }

// Prefix возвращает публичный префикс ссылок (/uploads/).
func (s *Store) Prefix() string { return "/" + s.prefix + "/" }

// Reference возвращает публичную ссылку для имени файла.
func (s *Store) Reference(name string) string { return s.Prefix() + name }

// Save сохраняет байты целиком.
func (s *Store) Save(ctx context.Context, data []byte, nameHint string) (*model.Asset, error) {
	return s.Store(ctx, bytes.NewReader(data), nameHint)
}

// Store записывает поток r на диск и возвращает описание сохранённого файла.
// nameHint — исходное имя файла клиента, из него берётся только расширение.
//
// Паттерн: temp файл → запись + SHA-256 → fsync → link на итоговое имя.
// Link не перезаписывает существующий файл: при коллизии метка времени
// сдвигается на 1 мс. Temp файл удаляется в любом случае.
func (s *Store) Store(ctx context.Context, r io.Reader, nameHint string) (*model.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка создания временного файла: %w", ErrStorage, err)
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)

	hasher := sha256.New()
	size, err := io.Copy(f, io.TeeReader(r, hasher))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: ошибка записи данных: %w", ErrStorage, err)
	}
	if size == 0 {
		f.Close()
		return nil, ErrEmpty
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: ошибка fsync: %w", ErrStorage, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: ошибка закрытия файла: %w", ErrStorage, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := extensionOf(nameHint)
	created := s.clock.NowUtc().Truncate(time.Millisecond)

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := strconv.FormatInt(created.UnixMilli(), 10) + ext
		err := os.Link(tmpPath, filepath.Join(s.dir, name))
		if err == nil {
			return &model.Asset{
				Reference:   s.Reference(name),
				Name:        name,
				ContentType: mime.TypeByExtension(ext),
				Size:        size,
				Checksum:    hex.EncodeToString(hasher.Sum(nil)),
				CreatedAt:   created,
			}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: ошибка публикации файла %s: %w", ErrStorage, name, err)
		}
		created = created.Add(time.Millisecond)
	}

	return nil, fmt.Errorf("%w: не удалось подобрать свободное имя за %d попыток", ErrStorage, maxNameAttempts)
}

// Open открывает файл по публичной ссылке. Вызывающий код обязан закрыть файл.
func (s *Store) Open(reference string) (*os.File, error) {
	name, err := s.nameOf(reference)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: ошибка открытия файла %s: %w", ErrStorage, name, err)
	}
	return f, nil
}

// Exists проверяет, что ссылка указывает на существующий файл хранилища.
func (s *Store) Exists(reference string) (bool, error) {
	name, err := s.nameOf(reference)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: ошибка получения информации о файле %s: %w", ErrStorage, name, err)
	}
	return info.Mode().IsRegular(), nil
}

// Delete удаляет файл по ссылке. Отсутствующий файл — не ошибка.
func (s *Store) Delete(reference string) error {
	name, err := s.nameOf(reference)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: ошибка удаления файла %s: %w", ErrStorage, name, err)
	}
	return nil
}

// List возвращает все опубликованные файлы хранилища.
// Временные файлы и поддиректории пропускаются.
func (s *Store) List() ([]model.StoredAsset, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка чтения директории %s: %w", ErrStorage, s.dir, err)
	}

	result := make([]model.StoredAsset, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !validName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Файл удалён между ReadDir и Info
			continue
		}
		result = append(result, model.StoredAsset{
			Name:      e.Name(),
			Reference: s.Reference(e.Name()),
			ModTime:   info.ModTime(),
			Size:      info.Size(),
		})
	}
	return result, nil
}

// CheckReady проверяет, что в директорию хранилища можно записать файл.
// Используется readiness probe: без записи загрузки невозможны.
func (s *Store) CheckReady() (status string, message string) {
	f, err := os.CreateTemp(s.dir, tempPrefix+"probe-*")
	if err != nil {
		return "fail", "директория загрузок недоступна для записи"
	}
	f.Close()
	os.Remove(f.Name())
	return "ok", "директория загрузок доступна"
}

// nameOf извлекает имя файла из публичной ссылки.
func (s *Store) nameOf(reference string) (string, error) {
	name, ok := strings.CutPrefix(reference, s.Prefix())
	if !ok || !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidReference, reference)
	}
	return name, nil
}

// validName допускает только плоские имена, не являющиеся временными файлами.
func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// extensionOf возвращает нормализованное расширение с точкой или пустую строку.
// Расширение переводится в нижний регистр, из него удаляются все символы
// кроме [a-z0-9], длина ограничена maxExtLen.
func extensionOf(nameHint string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(nameHint), "."))

	var b strings.Builder
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == maxExtLen {
				break
			}
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "." + b.String()
}
