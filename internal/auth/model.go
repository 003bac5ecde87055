package auth

import "user-service/internal/user"

// Principal is the identity attached to a single request after its token
// resolved to a live user record.
type Principal struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsActive bool   `json:"is_active"`
	IsAdmin  bool   `json:"is_admin"`
}

func principalFromUser(u user.User) Principal {
	return Principal{
		UserID:   u.ID,
		Username: u.Username,
		IsActive: u.IsActive,
		IsAdmin:  u.IsAdmin,
	}
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
