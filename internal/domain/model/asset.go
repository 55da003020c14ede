package model

import "time"

// Asset — сохранённый бинарный файл (загруженное изображение).
// Идентифицируется публичной ссылкой Reference (/uploads/<name>).
type Asset struct {
	// Reference — публичная ссылка на файл
	Reference string
	// Name — имя файла в корне хранилища (<unix-ms><.ext>)
	Name string
	// ContentType — MIME-тип, определённый по расширению (может быть пустым)
	ContentType string
	// Size — размер в байтах
	Size int64
	// Checksum — SHA-256 содержимого (hex)
	Checksum string
	// CreatedAt — момент, из которого выведено имя файла
	CreatedAt time.Time
}

// StoredAsset — файл в корне хранилища, как его видит очистка.
type StoredAsset struct {
	Name      string
	Reference string
	ModTime   time.Time
	Size      int64
}
