package models

import "time"

type Profile struct {
	UserID    string    `json:"userId"`
	Nickname  string    `json:"nickname"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatarUrl"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileUpdate is the payload accepted by the profile service.
type ProfileUpdate struct {
	Nickname  string `json:"nickname" validate:"required,min=2,max=20"`
	Bio       string `json:"bio" validate:"max=300"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url"`
}

type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// PasswordReset is the body of a password reset request.
type PasswordReset struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=64,letterdigit"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}
