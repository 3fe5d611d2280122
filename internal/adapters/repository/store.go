// Package repository provides durable storage for profiles, posts,
// interactions and recommendation sets.
package repository

import (
	"context"
	"time"

	"github.com/denlabs/denengine/internal/domain/model"
	"github.com/denlabs/denengine/internal/domain/types"
)

// Store is the data-access contract the refresh pipeline and the feed
// assembler depend on. All operations are partitioned by user id; no
// cross-user locking is required of implementations.
type Store interface {
	// RecentInteractions returns a user's interactions with
	// created_at >= now - window. An empty result is not an error.
	RecentInteractions(ctx context.Context, userID string, window time.Duration) ([]model.Interaction, error)

	// PostIDsByAuthor returns ids of posts authored by authorID, excluding
	// any authored by excludeAuthorID.
	PostIDsByAuthor(ctx context.Context, authorID, excludeAuthorID string) ([]string, error)

	// ReplaceRecommendations swaps a user's stored recommendation set for
	// candidates: delete all existing rows, then insert the new ones (if
	// any). The sequence is serialized per user.
	ReplaceRecommendations(ctx context.Context, userID string, candidates []model.ScoredCandidate) error

	// TopRecommendations returns up to limit rows for userID ordered by
	// score descending.
	TopRecommendations(ctx context.Context, userID string, limit int) ([]model.Recommendation, error)

	// ResolveFeed resolves recommendations to posts joined with their
	// authors, preserving the given order. Posts that no longer exist are
	// absent from the result.
	ResolveFeed(ctx context.Context, recs []model.Recommendation) ([]types.FeedItem, error)

	// OldestPosts returns the limit earliest-created posts system-wide,
	// oldest first, as the cold-start fallback feed.
	OldestPosts(ctx context.Context, limit int) ([]types.FeedItem, error)

	// ProfileByID returns one profile or ErrNotFound.
	ProfileByID(ctx context.Context, userID string) (model.Profile, error)

	// AllUserIDs enumerates every known profile id for bulk fan-out.
	AllUserIDs(ctx context.Context) ([]string, error)

	// Close releases the underlying database handle.
	Close() error
}
