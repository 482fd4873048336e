package models

import "time"

// Metadata carries the bookkeeping timestamps shared by every entity.
// The storage layer stamps both fields; callers never set them.
type Metadata struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch stamps UpdatedAt, and CreatedAt when it is still zero.
func (m *Metadata) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}
