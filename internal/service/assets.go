package service

import (
	"context"
	"io"

	"github.com/bigkaa/snapfeed/internal/domain/model"
)

// AssetStore — хранилище загруженных файлов (реализуется blobstore.Store).
type AssetStore interface {
	Store(ctx context.Context, r io.Reader, nameHint string) (*model.Asset, error)
	Exists(reference string) (bool, error)
	Delete(reference string) error
	// Prefix — публичный префикс ссылок вида /uploads/.
	Prefix() string
}

// AssetLister — хранилище с перечислением файлов (для очистки).
type AssetLister interface {
	List() ([]model.StoredAsset, error)
	Delete(reference string) error
}

// ProfileInvalidator сбрасывает закэшированный профиль пользователя.
type ProfileInvalidator interface {
	Invalidate(userID string)
}
