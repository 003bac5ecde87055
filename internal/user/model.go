package user

import "time"

type User struct {
	ID           string    `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsActive *bool  `json:"is_active,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Password *string `json:"password,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	IsAdmin  *bool   `json:"is_admin,omitempty"`
}

type Pagination struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

type Page struct {
	PageNumber       int        `json:"page_number"`
	PageSize         int        `json:"page_size"`
	TotalRecordCount int        `json:"total_record_count"`
	Pagination       Pagination `json:"pagination"`
	Records          []User     `json:"records"`
}
