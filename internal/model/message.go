package model

import "time"

type ChatMessage struct {
	ID            int64     `json:"id"`
	GroupID       string    `json:"group_id"`
	SessionID     *string   `json:"session_id"`
	SenderID      string    `json:"sender_id"`
	SenderName    *string   `json:"sender_name,omitempty"`
	Content       *string   `json:"content"`
	AttachmentURL *string   `json:"attachment_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// PostMessageInput is what the backend expects for a new message. Attachment
// uploads happen against the external storage provider; only the resulting
// URL passes through here.
type PostMessageInput struct {
	SessionID     *string `json:"session_id"`
	Content       *string `json:"content"`
	AttachmentURL *string `json:"attachment_url"`
}
