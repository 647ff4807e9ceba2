package models

import "time"

// NoticeKind classifies how a notice is presented to the viewer.
type NoticeKind string

const (
	// NoticeSuccess and NoticeError are transient toasts.
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	// NoticeBlocking must be acknowledged before the viewer continues.
	NoticeBlocking NoticeKind = "blocking"
)

// Notice is shown to the viewer whose operation produced it. SessionID
// addresses that viewer and stays server-side.
type Notice struct {
	SessionID   string     `json:"-"`
	Kind        NoticeKind `json:"kind"`
	ContainerID string     `json:"containerId"`
	CommentID   string     `json:"commentId,omitempty"`
	Message     string     `json:"message"`
	CreatedAt   time.Time  `json:"createdAt"`
}
