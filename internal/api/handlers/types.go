// types.go — JSON-представления ответов API (схемы описаны в openapi.yaml).
package handlers

import (
	"time"

	"github.com/bigkaa/snapfeed/internal/domain/model"
)

// UploadResponse — ответ POST /api/upload.
type UploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

// CreatePostRequest — тело POST /api/posts.
type CreatePostRequest struct {
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption"`
}

// CreatePostResponse — ответ POST /api/posts.
type CreatePostResponse struct {
	PostID string `json:"postId"`
}

// PostItem — пост в списках.
type PostItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ImageURL  string    `json:"imageUrl"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostListResponse — ответ GET /api/posts.
type PostListResponse struct {
	Items  []PostItem `json:"items"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// ProfileItem — редактируемая часть профиля.
type ProfileItem struct {
	Bio       *string  `json:"bio"`
	Location  *string  `json:"location"`
	AvatarURL *string  `json:"avatarUrl"`
	Interests []string `json:"interests"`
}

// UserProfileResponse — ответ GET /api/user/profile.
type UserProfileResponse struct {
	ID      string       `json:"id"`
	Email   string       `json:"email"`
	Name    string       `json:"name"`
	Image   *string      `json:"image"`
	Profile *ProfileItem `json:"profile"`
	Posts   []PostItem   `json:"posts"`
}

// UpdateProfileRequest — тело PUT /api/user/profile.
type UpdateProfileRequest struct {
	Bio       string   `json:"bio"`
	Location  string   `json:"location"`
	Interests []string `json:"interests"`
}

func mapPost(p *model.Post) PostItem {
	return PostItem{
		ID:        p.ID,
		UserID:    p.UserID,
		ImageURL:  p.ImageURL,
		Caption:   p.Caption,
		CreatedAt: p.CreatedAt,
	}
}

func mapPosts(posts []*model.Post) []PostItem {
	items := make([]PostItem, len(posts))
	for i, p := range posts {
		items[i] = mapPost(p)
	}
	return items
}

func mapProfile(p *model.Profile) *ProfileItem {
	if p == nil {
		return nil
	}
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	return &ProfileItem{
		Bio:       p.Bio,
		Location:  p.Location,
		AvatarURL: p.AvatarURL,
		Interests: interests,
	}
}

func mapUserProfile(u *model.UserWithProfile) UserProfileResponse {
	return UserProfileResponse{
		ID:      u.User.ID,
		Email:   u.User.Email,
		Name:    u.User.Name,
		Image:   u.User.Image,
		Profile: mapProfile(u.Profile),
		Posts:   mapPosts(u.Posts),
	}
}
