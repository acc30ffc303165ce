package domain

import "time"

// BlogPost is an admin-authored article.
type BlogPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Content     string    `json:"content"`
	Image       string    `json:"image,omitempty"`
	AuthorEmail string    `json:"author_email"`
	CreatedAt   time.Time `json:"date"`
}
