package entity

import "time"

// Author is identified by its unique name. The number of books an author has
// written is derived from Book rows and never stored here.
type Author struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Born      *int      `json:"born,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
