// Пакет static — встроенные статические ресурсы веб-интерфейса.
// Файлы встраиваются в бинарник через //go:embed и раздаются на /static/*.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed css/app.css js/*.js icons.svg
var content embed.FS

// FileSystem возвращает http.FileSystem для обработки запросов к /static/*.
func FileSystem() http.FileSystem {
	return http.FS(content)
}

// FS возвращает fs.FS для прямого доступа к встроенным файлам.
func FS() fs.FS {
	return content
}
