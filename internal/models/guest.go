package models

import "time"

// GuestRecord is one committed row in the guest registry.
// Phone always holds the canonical form and is the duplicate-detection key.
type GuestRecord struct {
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	Group     string    `json:"group"`
	PartySize int       `json:"party_size"`
	Likely    *bool     `json:"likely,omitempty"`
	AddedBy   string    `json:"added_by"`
	AddedAt   time.Time `json:"added_at"`
}
