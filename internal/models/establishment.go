package models

import "time"

// Establishment is the tenant root. Every product, transaction and order carries its id.
type Establishment struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	PINHash   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
