package models

import "time"

type Comment struct {
	ID          string    `json:"id"`
	ContainerID string    `json:"containerId"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl"`
	Content     string    `json:"content"`
	Likes       int       `json:"likes"`
	Liked       bool      `json:"liked"` // as seen by the current viewer
	// LikedBy holds the user ids behind Likes. Never sent to clients.
	LikedBy     []string  `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Author is the identity stamped on a newly submitted comment.
type Author struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// Clone returns a copy that can be mutated without touching the original.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	cp := *c
	if c.LikedBy != nil {
		cp.LikedBy = append([]string(nil), c.LikedBy...)
	}
	return &cp
}

// LikedByUser reports whether userID is among the comment's likers.
func (c *Comment) LikedByUser(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range c.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}
