// Package model contains domain models passed between layers.
package model

import "time"

// InteractionType classifies a behavioral event.
type InteractionType string

// Known interaction types. Rows may carry other values; those weigh zero
// during scoring.
const (
	InteractionLike     InteractionType = "like"
	InteractionUnlike   InteractionType = "unlike"
	InteractionFollow   InteractionType = "follow"
	InteractionUnfollow InteractionType = "unfollow"
)

// Direction qualifies an interaction as positive or negative.
type Direction string

// Known directions.
const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
)

// Interaction is one recorded behavioral event. Rows are written by the
// interaction-logging subsystem and are read-only here. TargetUserID and
// PostID are optional; the empty string means absent.
type Interaction struct {
	ID           string          `db:"id"`
	UserID       string          `db:"user_id"`
	TargetUserID string          `db:"target_user_id"`
	PostID       string          `db:"post_id"`
	Type         InteractionType `db:"type"`
	Direction    Direction       `db:"direction"`
	CreatedAt    time.Time       `db:"created_at"`
}

// ScoredCandidate is one ranked post produced by a refresh run. A run always
// yields a complete replacement set for the user; candidates are never
// updated in place.
type ScoredCandidate struct {
	UserID string  `db:"user_id"`
	PostID string  `db:"post_id"`
	Score  float64 `db:"score"`
	Reason string  `db:"reason"`
}

// RefreshJob is the unit of work flowing through the job queue: recompute
// one user's recommendation set.
type RefreshJob struct {
	JobID      string
	UserID     string
	EnqueuedAt time.Time
}
