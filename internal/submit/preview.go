package submit

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// SelectedAsset — изображение, выбранное пользователем, до отправки.
type SelectedAsset struct {
	// Name — исходное имя файла (из него сервер берёт расширение)
	Name string
	Data []byte
	// ContentType — MIME-тип, определённый по содержимому
	ContentType string
}

// NewSelectedAsset определяет тип содержимого выбранного файла.
func NewSelectedAsset(name string, data []byte) *SelectedAsset {
	return &SelectedAsset{
		Name:        name,
		Data:        data,
		ContentType: http.DetectContentType(data),
	}
}

// IsImage сообщает, распознано ли содержимое как изображение.
func (a *SelectedAsset) IsImage() bool {
	return len(a.Data) > 0 && strings.HasPrefix(a.ContentType, "image/")
}

// Preview возвращает data URL для предпросмотра.
// Для содержимого, не распознанного как изображение, предпросмотра нет.
func (a *SelectedAsset) Preview() (string, bool) {
	if !a.IsImage() {
		return "", false
	}
	return "data:" + a.ContentType + ";base64," + base64.StdEncoding.EncodeToString(a.Data), true
}
