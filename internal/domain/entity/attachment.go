package entity

// Attachment is a transient client-side entity: a selected file waiting in
// the compose queue. It has no server identity until upload succeeds, at
// which point it becomes a message's attachment reference and is discarded.
type Attachment struct {
	LocalID string // correlation id for the queue and remove-before-send
	Name    string
	Type    string
	Size    int64
	Data    []byte
	Preview bool // image types get a locally-decoded preview
}

// AttachmentRef is the uploaded form of an attachment, ready to be persisted
// on a message. Refs are immutable once a message carries them; a retry
// after failure uploads to a fresh path instead of overwriting.
type AttachmentRef struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}
