// Пакет pages — HTML-страницы веб-интерфейса snapfeed (templ-компоненты).
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// htmlWriter накапливает первую ошибку записи, чтобы компоненты
// не проверяли каждый вызов.
type htmlWriter struct {
	w   io.Writer
	err error
}

// raw пишет разметку как есть.
func (hw *htmlWriter) raw(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

// text пишет экранированный текст (содержимое элемента или значение атрибута).
func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

// url пишет безопасный URL атрибута href/src.
func (hw *htmlWriter) url(s string) {
	hw.text(string(templ.URL(s)))
}

// render выводит вложенный компонент.
func (hw *htmlWriter) render(ctx context.Context, c templ.Component) {
	if hw.err != nil || c == nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}

// component оборачивает функцию отрисовки в templ.Component.
func component(fn func(ctx context.Context, hw *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		fn(ctx, hw)
		return hw.err
	})
}
