package entity

import "time"

// Message is the atomic unit of a conversation. IDs are assigned by the
// database on insert; CreatedAt is the sole ordering key, ID is used only
// for dedup and equality.
type Message struct {
	ID             string     `json:"id"`
	SenderID       string     `json:"sender_id"`
	ReceiverID     string     `json:"receiver_id"`
	ListingID      string     `json:"listing_id,omitempty"`
	Text           string     `json:"message_text"`
	FormattedHTML  string     `json:"message_html,omitempty"`
	AttachmentURL  string     `json:"attachment_url,omitempty"`
	AttachmentName string     `json:"attachment_name,omitempty"`
	AttachmentType string     `json:"attachment_type,omitempty"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// HasAttachment reports whether the message carries an attachment reference.
// The three attachment fields are all-or-nothing.
func (m *Message) HasAttachment() bool {
	return m.AttachmentURL != ""
}

// InvolvedWith reports whether the message belongs to the conversation
// between the two given users, in either direction.
func (m *Message) InvolvedWith(userA, userB string) bool {
	return (m.SenderID == userA && m.ReceiverID == userB) ||
		(m.SenderID == userB && m.ReceiverID == userA)
}
