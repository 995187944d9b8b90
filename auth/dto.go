package auth

// RegisterRequest is the payload for POST /auth/register. Self-registered
// accounts always receive the student role.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LogoutRequest is the payload for POST /auth/logout. The token travels in
// the body here, not in the Auth-Key header.
type LogoutRequest struct {
	AuthToken string `json:"authToken"`
}
