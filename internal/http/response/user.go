package response

import "github.com/magabrotheeeer/ghibli-explorer/internal/models"

// UserView пользователь без хэша пароля.
type UserView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

// NewUserView убирает из пользователя хэш пароля.
func NewUserView(u models.User) UserView {
	return UserView{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt}
}

// NewUserViews применяет NewUserView к списку.
func NewUserViews(users []models.User) []UserView {
	views := make([]UserView, len(users))
	for i, u := range users {
		views[i] = NewUserView(u)
	}
	return views
}
