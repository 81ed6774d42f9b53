package models

import "time"

const (
	// RoleUser роль, которая назначается при регистрации.
	RoleUser = "User"
	// RoleAdmin открывает доступ к административным операциям.
	RoleAdmin = "Admin"

	// CreatedAtLayout формат поля CreatedAt (yyyy-MM-dd HH:mm:ss).
	CreatedAtLayout = "2006-01-02 15:04:05"
)

// User представляет учётную запись пользователя.
// Email служит естественным ключом в удалённом хранилище, ID генерируется на клиенте при регистрации.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Password  string `json:"password"` // хэш пароля
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// IsAdmin сообщает, есть ли у пользователя административная роль.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FormatCreatedAt приводит момент времени к формату поля CreatedAt.
func FormatCreatedAt(t time.Time) string {
	return t.Format(CreatedAtLayout)
}
