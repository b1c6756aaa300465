package entity

import "time"

type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Published int       `json:"published"`
	Genres    []string  `json:"genres"`
	AuthorID  string    `json:"author_id"`
	Author    *Author   `json:"author,omitempty"` // populated by reads that join authors
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasGenre reports whether genre is one of the book's genres.
func (b Book) HasGenre(genre string) bool {
	for _, g := range b.Genres {
		if g == genre {
			return true
		}
	}
	return false
}
