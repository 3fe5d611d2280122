// Package types contains common types used across the application
package types

import "time"

// FeedItem represents one resolved entry of the explore feed: a post joined
// with its author, carrying the recommendation score that ranked it. Score
// and Reason are zero-valued for cold-start fallback items.
type FeedItem struct {
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Author    string    `json:"author"`
	Caption   string    `json:"caption"`
	MediaURL  string    `json:"media_url"`
	CreatedAt time.Time `json:"created_at"`
	Score     float64   `json:"score,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}
