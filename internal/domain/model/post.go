package model

import "time"

// Post is a piece of content authored by a profile. The engine treats posts
// as lookup targets; it never mutates them.
type Post struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Caption   string    `db:"caption" json:"caption"`
	MediaURL  string    `db:"media_url" json:"media_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Profile is a user account row.
type Profile struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Recommendation is one persisted (user, post) ranking row. The full set for
// a user is always the output of that user's most recently completed refresh.
type Recommendation struct {
	UserID string  `db:"user_id"`
	PostID string  `db:"post_id"`
	Score  float64 `db:"score"`
	Reason string  `db:"reason"`
}
