package pages

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	coreauth "github.com/bigkaa/snapfeed/internal/auth"
	"github.com/bigkaa/snapfeed/internal/domain/model"
	"github.com/bigkaa/snapfeed/internal/ui/theme"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() ошибка: %v", err)
	}
	return buf.String()
}

func assertContains(t *testing.T, html string, parts ...string) {
	t.Helper()
	for _, part := range parts {
		if !strings.Contains(html, part) {
			t.Errorf("разметка не содержит %q", part)
		}
	}
}

func assertNotContains(t *testing.T, html string, parts ...string) {
	t.Helper()
	for _, part := range parts {
		if strings.Contains(html, part) {
			t.Errorf("разметка не должна содержать %q", part)
		}
	}
}

func strPtr(s string) *string { return &s }

var principal = &coreauth.Principal{UserID: "u1", Name: "Jana"}

func TestNavBar_Anonymous(t *testing.T) {
	html := render(t, NavBar(Page{Path: "/o-mne", Theme: theme.Light}))

	assertContains(t, html,
		`href="/auth/registracia"`, `href="/auth/prihlasenie"`,
		`<a href="/o-mne" class="active" aria-current="page">`,
		`#brightness-7`,
	)
	assertNotContains(t, html, `href="/pridat"`, `profile-menu`)
}

func TestNavBar_Authenticated(t *testing.T) {
	html := render(t, NavBar(Page{Path: "/pridat", Theme: theme.Dark, Principal: principal}))

	assertContains(t, html,
		`href="/prispevok"`, `href="/hladat"`,
		`<a href="/pridat" class="active"`,
		`<details class="profile-menu">`,
		`href="/profile">Môj profil</a>`,
		`<form method="post" action="/auth/odhlasenie">`,
		`#brightness-4`,
	)
	assertNotContains(t, html, `href="/auth/registracia"`)
}

func TestLayout_ThemeAttribute(t *testing.T) {
	html := render(t, About(Page{Title: "O mne", Theme: theme.Dark}))
	assertContains(t, html, `data-theme="dark"`, `<title>O mne · snapfeed</title>`)
}

func TestProfile(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	data := ProfileData{
		Page: Page{Principal: principal, Theme: theme.Light},
		Profile: &model.UserWithProfile{
			User: model.User{ID: "u1", Name: "jana", Email: "jana@example.com"},
			Profile: &model.Profile{
				Bio:       strPtr("Fotím <hory>"),
				Interests: []string{"hory", "káva"},
			},
			Posts: []*model.Post{
				{ID: "p1", ImageURL: "/uploads/1.jpg", Caption: "Tatry", CreatedAt: created},
				{ID: "p2", ImageURL: "/uploads/2.png", CreatedAt: created},
			},
		},
	}

	html := render(t, Profile(data))
	assertContains(t, html,
		`<h1>jana</h1>`,
		`Fotím &lt;hory&gt;`,
		`Location: Not specified`,
		`<span class="chip">káva</span>`,
		`<div class="avatar initial">J</div>`,
		`src="/uploads/1.jpg" alt="Tatry"`,
		`src="/uploads/2.png" alt="Post image"`,
	)
	assertNotContains(t, html, `No posts yet`, `<hory>`)
}

func TestProfile_EmptyStates(t *testing.T) {
	html := render(t, Profile(ProfileData{Profile: &model.UserWithProfile{
		User:  model.User{ID: "u1", Image: strPtr("https://idp.example/a.png")},
		Posts: []*model.Post{},
	}}))
	assertContains(t, html,
		`Anonymous User`, `No bio yet`, `Location: Not specified`,
		`No posts yet. Create your first post!`,
		`<img class="avatar" src="https://idp.example/a.png"`,
	)
	assertNotContains(t, html, `Interests:`)

	html = render(t, Profile(ProfileData{}))
	assertContains(t, html, `User not found`)
}

func TestCreatePost(t *testing.T) {
	html := render(t, CreatePost(CreatePostData{Page: Page{Principal: principal}}))
	assertContains(t, html,
		`Create New Post`,
		`accept="image/*" id="image-upload"`,
		`Upload Image`, `alt="Preview"`, `Caption`,
		`<div id="form-error" class="alert error" role="alert" hidden>`,
		`id="submit-post">Create Post</button>`,
		`enctype="multipart/form-data"`,
		`/static/js/pridat.js`,
	)

	html = render(t, CreatePost(CreatePostData{Caption: "a&b", Error: "Failed to upload image"}))
	assertContains(t, html, `>a&amp;b</textarea>`, `role="alert">Failed to upload image</div>`)
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name    string
		data    SearchData
		want    string
		notWant string
	}{
		{"пустой запрос", SearchData{}, `name="q"`, `Nič sa nenašlo`},
		{"нет результатов", SearchData{Query: "x"}, `Nič sa nenašlo`, `post-list`},
		{"есть результаты", SearchData{Query: "tat", Results: []*model.Post{{ImageURL: "/uploads/1.jpg", Caption: "Tatry"}}}, `alt="Tatry"`, `Nič sa nenašlo`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := render(t, Search(tt.data))
			assertContains(t, html, tt.want)
			assertNotContains(t, html, tt.notWant)
		})
	}
}

func TestErrorPage(t *testing.T) {
	html := render(t, ErrorPage(ErrorData{Status: 404}))
	assertContains(t, html, `<h1>404</h1>`, `Something went wrong`)
}

func TestUnsafeURLSanitized(t *testing.T) {
	html := render(t, Feed(FeedData{Posts: []*model.Post{{ImageURL: "javascript:alert(1)"}}}))
	assertNotContains(t, html, `javascript:alert`)
}
