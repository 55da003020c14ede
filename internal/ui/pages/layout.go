package pages

import (
	"context"

	"github.com/a-h/templ"

	coreauth "github.com/bigkaa/snapfeed/internal/auth"
	"github.com/bigkaa/snapfeed/internal/ui/nav"
	"github.com/bigkaa/snapfeed/internal/ui/theme"
)

// Page — общие данные каждой страницы.
type Page struct {
	// Title — заголовок вкладки браузера
	Title string
	// Path — текущий путь (для подсветки пункта навигации)
	Path string
	// Theme — тема, прочитанная из cookie запроса
	Theme theme.Preference
	// Principal — пользователь сессии, nil для анонимного посетителя
	Principal *coreauth.Principal
}

// Authenticated сообщает, есть ли у посетителя сессия.
func (p Page) Authenticated() bool {
	return p.Principal != nil
}

// Layout — каркас страницы: head, основной контент и нижняя навигация.
func Layout(page Page, content templ.Component) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<!DOCTYPE html><html lang="sk" data-theme="`)
		hw.text(page.Theme.String())
		hw.raw(`"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.raw(`<title>`)
		if page.Title != "" {
			hw.text(page.Title)
			hw.raw(` · `)
		}
		hw.raw(`snapfeed</title><link rel="stylesheet" href="/static/css/app.css"></head><body>`)
		hw.raw(`<main class="container">`)
		hw.render(ctx, content)
		hw.raw(`</main>`)
		hw.render(ctx, NavBar(page))
		hw.raw(`</body></html>`)
	})
}

// NavBar — нижняя панель навигации. Набор пунктов определяется
// таблицей nav.Items для состояния аутентификации.
func NavBar(page Page) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<nav class="bottom-nav"><ul>`)
		for _, item := range nav.Items(page.Authenticated()) {
			hw.raw(`<li>`)
			switch item.Capability {
			case nav.ProfileMenu:
				profileMenu(hw, item)
			default:
				hw.raw(`<a href="`)
				hw.url(item.Destination)
				hw.raw(`"`)
				if item.Active(page.Path) {
					hw.raw(` class="active" aria-current="page"`)
				}
				hw.raw(`>`)
				icon(hw, string(item.Icon))
				hw.raw(`<span>`)
				hw.text(item.Label)
				hw.raw(`</span></a>`)
			}
			hw.raw(`</li>`)
		}
		hw.raw(`<li><form method="post" action="/theme" class="theme-toggle">`)
		hw.raw(`<button type="submit" aria-label="Prepnúť tému">`)
		icon(hw, page.Theme.IconName())
		hw.raw(`</button></form></li></ul></nav>`)
	})
}

func profileMenu(hw *htmlWriter, item nav.Item) {
	hw.raw(`<details class="profile-menu"><summary>`)
	icon(hw, string(item.Icon))
	hw.raw(`<span>`)
	hw.text(item.Label)
	hw.raw(`</span></summary><ul>`)
	for _, mi := range nav.ProfileMenuItems {
		hw.raw(`<li>`)
		if mi.Post {
			hw.raw(`<form method="post" action="`)
			hw.url(mi.Destination)
			hw.raw(`"><button type="submit">`)
			hw.text(mi.Label)
			hw.raw(`</button></form>`)
		} else {
			hw.raw(`<a href="`)
			hw.url(mi.Destination)
			hw.raw(`">`)
			hw.text(mi.Label)
			hw.raw(`</a>`)
		}
		hw.raw(`</li>`)
	}
	hw.raw(`</ul></details>`)
}

// icon выводит символ из SVG-спрайта /static/icons.svg.
func icon(hw *htmlWriter, name string) {
	hw.raw(`<svg class="icon" aria-hidden="true"><use href="/static/icons.svg#`)
	hw.text(name)
	hw.raw(`"></use></svg>`)
}
