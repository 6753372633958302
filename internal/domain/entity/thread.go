package entity

import "time"

// Thread is a derived view, never stored: the most recent message exchanged
// with one counterpart (optionally scoped to a listing) plus the count of
// messages addressed to the viewer that are still unread.
type Thread struct {
	ListingID       string    `json:"listing_id,omitempty"`
	OtherUserID     string    `json:"other_user_id"`
	OtherUserName   string    `json:"other_user_name,omitempty"`
	OtherUserAvatar string    `json:"other_user_pfp,omitempty"`
	LastMessage     string    `json:"last_message"`
	LastMessageAt   time.Time `json:"last_message_at"`
	UnreadCount     int       `json:"unread_count"`
}

// Key identifies the thread group: counterpart id, prefixed by the listing
// id when the conversation is listing-scoped.
func (t *Thread) Key() string {
	if t.ListingID == "" {
		return t.OtherUserID
	}
	return t.ListingID + "_" + t.OtherUserID
}
