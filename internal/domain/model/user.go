package model

import "time"

// User — пользователь, заведённый при первом входе через IdP.
// Хранится в таблице users.
type User struct {
	// ID — UUID пользователя
	ID string
	// Subject — claim sub из токена IdP
	Subject string
	Email   string
	Name    string
	// Image — ссылка на аватар из IdP (опционально)
	Image     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile — редактируемая часть профиля.
// Хранится в таблице profiles (1:1 с users).
type Profile struct {
	UserID    string
	Bio       *string
	Location  *string
	AvatarURL *string
	Interests []string
	UpdatedAt time.Time
}

// UserWithProfile — пользователь вместе с профилем и постами (новые первыми).
// Profile равен nil, если пользователь ещё не заполнял профиль.
type UserWithProfile struct {
	User    User
	Profile *Profile
	Posts   []*Post
}

// DisplayName возвращает имя для отображения.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return "Anonymous User"
}
