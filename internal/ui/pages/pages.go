package pages

import (
	"context"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/bigkaa/snapfeed/internal/domain/model"
	"github.com/bigkaa/snapfeed/internal/ui/nav"
)

// Home — стартовая страница для анонимного посетителя.
func Home(page Page) templ.Component {
	return Layout(page, component(func(_ context.Context, hw *htmlWriter) {
		hw.raw(`<section class="hero"><h1>snapfeed</h1>`)
		hw.raw(`<p>Zdieľaj svoje fotky s priateľmi.</p>`)
		hw.raw(`<p><a class="button" href="`)
		hw.url(nav.PathRegister)
		hw.raw(`">Registrácia</a> <a class="button secondary" href="`)
		hw.url(nav.PathLogin)
		hw.raw(`">Prihlásenie</a></p></section>`)
	}))
}

// About — страница «O mne».
func About(page Page) templ.Component {
	return Layout(page, component(func(_ context.Context, hw *htmlWriter) {
		hw.raw(`<section><h1>O mne</h1>`)
		hw.raw(`<p>snapfeed je malá sociálna sieť na zdieľanie obrázkov s popisom.</p></section>`)
	}))
}

// FeedData — данные ленты последних постов.
type FeedData struct {
	Page  Page
	Posts []*model.Post
}

// Feed — лента последних постов всех пользователей.
func Feed(data FeedData) templ.Component {
	return Layout(data.Page, component(func(_ context.Context, hw *htmlWriter) {
		hw.raw(`<section><h1>Príspevky</h1>`)
		if len(data.Posts) == 0 {
			hw.raw(`<p class="muted">Zatiaľ žiadne príspevky.</p>`)
		} else {
			postList(hw, data.Posts)
		}
		hw.raw(`</section>`)
	}))
}

// SearchData — данные страницы поиска.
type SearchData struct {
	Page    Page
	Query   string
	Results []*model.Post
}

// Search — поиск постов по подписи.
func Search(data SearchData) templ.Component {
	return Layout(data.Page, component(func(_ context.Context, hw *htmlWriter) {
		hw.raw(`<section><h1>Hľadať</h1><form method="get" action="`)
		hw.url(nav.PathSearch)
		hw.raw(`" class="search"><input type="search" name="q" placeholder="Hľadať v popisoch" value="`)
		hw.text(data.Query)
		hw.raw(`"><button type="submit">Hľadať</button></form>`)
		switch {
		case data.Query == "":
		case len(data.Results) == 0:
			hw.raw(`<p class="muted">Nič sa nenašlo.</p>`)
		default:
			postList(hw, data.Results)
		}
		hw.raw(`</section>`)
	}))
}

// CreatePostData — данные формы создания поста.
type CreatePostData struct {
	Page    Page
	Caption string
	// Error — сообщение об ошибке предыдущей отправки
	Error string
}

// CreatePost — форма создания поста. Основной путь отправки выполняет
// pridat.js (загрузка файла, затем создание записи); без JS форма
// отправляется целиком на POST /pridat.
func CreatePost(data CreatePostData) templ.Component {
	return Layout(data.Page, component(func(_ context.Context, hw *htmlWriter) {
		hw.raw(`<section class="card create-post"><h1>Create New Post</h1>`)
		hw.raw(`<form id="create-post-form" method="post" action="`)
		hw.url(nav.PathCreate)
		hw.raw(`" enctype="multipart/form-data">`)
		hw.raw(`<input type="file" name="file" accept="image/*" id="image-upload" hidden>`)
		hw.raw(`<label for="image-upload" class="button secondary">Upload Image</label>`)
		hw.raw(`<img id="image-preview" alt="Preview" class="preview" hidden>`)
		hw.raw(`<label for="caption">Caption</label>`)
		hw.raw(`<textarea id="caption" name="caption" rows="4">`)
		hw.text(data.Caption)
		hw.raw(`</textarea>`)
		hw.raw(`<div id="form-error" class="alert error" role="alert"`)
		if data.Error == "" {
			hw.raw(` hidden`)
		}
		hw.raw(`>`)
		hw.text(data.Error)
		hw.raw(`</div>`)
		hw.raw(`<button type="submit" id="submit-post">Create Post</button>`)
		hw.raw(`</form></section><script src="/static/js/pridat.js" defer></script>`)
	}))
}

// ProfileData — данные страницы профиля. Profile == nil — пользователь не найден.
type ProfileData struct {
	Page    Page
	Profile *model.UserWithProfile
}

// Profile — шапка профиля и сетка постов пользователя.
func Profile(data ProfileData) templ.Component {
	return Layout(data.Page, component(func(_ context.Context, hw *htmlWriter) {
		p := data.Profile
		if p == nil {
			hw.raw(`<section class="card"><p>User not found</p></section>`)
			return
		}

		hw.raw(`<section class="card profile-header">`)
		avatar(hw, p)
		hw.raw(`<div><h1>`)
		hw.text(p.User.DisplayName())
		hw.raw(`</h1><p class="muted">`)
		hw.text(p.User.Email)
		hw.raw(`</p><p>`)
		hw.text(valueOr(profileBio(p), "No bio yet"))
		hw.raw(`</p><p class="muted">Location: `)
		hw.text(valueOr(profileLocation(p), "Not specified"))
		hw.raw(`</p>`)
		if p.Profile != nil && len(p.Profile.Interests) > 0 {
			hw.raw(`<div class="interests"><span>Interests:</span>`)
			for _, interest := range p.Profile.Interests {
				hw.raw(`<span class="chip">`)
				hw.text(interest)
				hw.raw(`</span>`)
			}
			hw.raw(`</div>`)
		}
		hw.raw(`</div></section>`)

		hw.raw(`<section><h2>My Posts</h2>`)
		if len(p.Posts) == 0 {
			hw.raw(`<p class="muted">No posts yet. Create your first post!</p>`)
		} else {
			hw.raw(`<div class="post-grid">`)
			for _, post := range p.Posts {
				hw.raw(`<figure><img src="`)
				hw.url(post.ImageURL)
				hw.raw(`" alt="`)
				hw.text(valueOr(post.Caption, "Post image"))
				hw.raw(`" loading="lazy">`)
				if post.Caption != "" {
					hw.raw(`<figcaption>`)
					hw.text(post.Caption)
					hw.raw(`</figcaption>`)
				}
				hw.raw(`</figure>`)
			}
			hw.raw(`</div>`)
		}
		hw.raw(`</section>`)
	}))
}

// ErrorData — данные страницы ошибки.
type ErrorData struct {
	Page    Page
	Status  int
	Message string
}

// ErrorPage — страница ошибки с кодом статуса.
func ErrorPage(data ErrorData) templ.Component {
	return Layout(data.Page, component(func(_ context.Context, hw *htmlWriter) {
		hw.raw(`<section class="card error-page"><h1>`)
		hw.text(strconv.Itoa(data.Status))
		hw.raw(`</h1><p>`)
		hw.text(valueOr(data.Message, "Something went wrong"))
		hw.raw(`</p><p><a href="`)
		hw.url(nav.PathHome)
		hw.raw(`">Domov</a></p></section>`)
	}))
}

func postList(hw *htmlWriter, posts []*model.Post) {
	hw.raw(`<ul class="post-list">`)
	for _, post := range posts {
		hw.raw(`<li><img src="`)
		hw.url(post.ImageURL)
		hw.raw(`" alt="`)
		hw.text(valueOr(post.Caption, "Post image"))
		hw.raw(`" loading="lazy"><p>`)
		hw.text(post.Caption)
		hw.raw(`</p><time datetime="`)
		hw.text(post.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
		hw.raw(`">`)
		hw.text(post.CreatedAt.Format("02.01.2006"))
		hw.raw(`</time></li>`)
	}
	hw.raw(`</ul>`)
}

// avatar: аватар профиля, затем изображение из IdP, иначе первая буква имени.
func avatar(hw *htmlWriter, p *model.UserWithProfile) {
	src := ""
	if p.Profile != nil && p.Profile.AvatarURL != nil {
		src = *p.Profile.AvatarURL
	} else if p.User.Image != nil {
		src = *p.User.Image
	}
	if src != "" {
		hw.raw(`<img class="avatar" src="`)
		hw.url(src)
		hw.raw(`" alt="`)
		hw.text(p.User.DisplayName())
		hw.raw(`">`)
		return
	}
	hw.raw(`<div class="avatar initial">`)
	hw.text(initial(p.User.DisplayName()))
	hw.raw(`</div>`)
}

func initial(name string) string {
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return "?"
}

func profileBio(p *model.UserWithProfile) string {
	if p.Profile == nil || p.Profile.Bio == nil {
		return ""
	}
	return *p.Profile.Bio
}

func profileLocation(p *model.UserWithProfile) string {
	if p.Profile == nil || p.Profile.Location == nil {
		return ""
	}
	return *p.Profile.Location
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
