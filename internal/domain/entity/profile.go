package entity

import "time"

// Profile is the lightweight public summary used for message rendering:
// display name and avatar of a counterpart.
type Profile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PreferredName string `json:"preferred_name,omitempty"`
	AvatarURL     string `json:"custom_pfp,omitempty"`
	Role          string `json:"role,omitempty"`
}

// DisplayName prefers the user-chosen name over the account name.
func (p *Profile) DisplayName() string {
	if p.PreferredName != "" {
		return p.PreferredName
	}
	if p.Name != "" {
		return p.Name
	}
	return "User"
}

// SessionEntry is the cached identity/profile summary shared across mounted
// views. Timestamp bounds its lifetime; an expired entry is treated as
// absent.
type SessionEntry struct {
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// SessionUpdate is the projection pushed to cache subscribers on write.
type SessionUpdate struct {
	Role        string
	DisplayName string
}
