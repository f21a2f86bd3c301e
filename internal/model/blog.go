package model

import "time"

// Blog post statuses. Draft posts are visible only through the admin API.
const (
	BlogStatusDraft     = "Draft"
	BlogStatusPublished = "Published"
)

// Blog is a single blog post. Image holds the public URL path of the
// attached image ("/uploads/blogs/...") or the empty string when the post
// has no image. A post references at most one image file at any time.
type Blog struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Category    string    `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	Date        time.Time `json:"date" db:"date"`
	Status      string    `json:"status" db:"status"`
	Image       string    `json:"image" db:"image"`
	CreatedBy   int64     `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ValidBlogStatus reports whether s is one of the recognized post statuses.
func ValidBlogStatus(s string) bool {
	return s == BlogStatusDraft || s == BlogStatusPublished
}

// BlogStats holds per-status post counts for the admin listing.
type BlogStats struct {
	Total     int64 `json:"total"`
	Published int64 `json:"published"`
	Drafts    int64 `json:"drafts"`
}
