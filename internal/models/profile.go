package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a named learner whose mastery is stored apart from the shared content
type Profile struct {
	ID        uuid.UUID
	Name      string
	PinHash   string
	CreatedAt time.Time
}

// HasPin reports whether selecting the profile requires a PIN
func (p *Profile) HasPin() bool {
	return p.PinHash != ""
}
