package domain

// User — аутентифицированный пользователь.
type User struct {
	ID     string  `json:"id"`
	Email  string  `json:"email"`
	Name   string  `json:"name"`
	Role   string  `json:"role,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// Clone возвращает копию без общих указателей.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}

	c := *u
	c.Phone = cloneString(u.Phone)
	c.Avatar = cloneString(u.Avatar)
	return &c
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthSession — ответ auth-сервиса на login/register/refresh.
type AuthSession struct {
	User         *User  `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type PasswordResetConfirm struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}

	v := *s
	return &v
}
