package api

type User struct {
	Id             string `json:"id"`
	Email          string `json:"email"`
	DisplayName    string `json:"displayName"`
	PayoutsEnabled bool   `json:"payoutsEnabled,omitempty"`
	CreatedAt      int64  `json:"createdAt"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries a new session. The token is also set as a cookie.
type AuthResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
	User      *User  `json:"user"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}
