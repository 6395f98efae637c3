package model

// User is the authenticated account.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        *string    `json:"name"`
	AvatarURL   *string    `json:"avatar_url"`
	IsVerified  bool       `json:"is_verified"`
	LastLoginAt *Timestamp `json:"last_login_at"`
	InsertedAt  Timestamp  `json:"inserted_at"`
	UpdatedAt   Timestamp  `json:"updated_at"`
}

// DisplayName returns the user's name, falling back to the email address.
func (u User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}

// Session is the persisted authentication state. Loading and error flags
// are transient and never stored.
type Session struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	AccessToken     string `json:"accessToken"`
	RefreshToken    string `json:"refreshToken"`
}
