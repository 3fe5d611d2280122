// Package seeding generates synthetic profiles, posts and interactions for
// local runs and demos.
package seeding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/denlabs/denengine/internal/domain/model"
)

// Writer is the storage surface the seeder needs.
type Writer interface {
	InsertProfile(ctx context.Context, p model.Profile) error
	InsertPost(ctx context.Context, p model.Post) error
	InsertInteraction(ctx context.Context, in model.Interaction) error
}

// Config controls generated volume.
type Config struct {
	Users               int
	PostsPerUser        int
	InteractionsPerUser int
	Seed                int64
}

// DefaultConfig returns a small but representative data set.
func DefaultConfig() Config {
	return Config{
		Users:               25,
		PostsPerUser:        4,
		InteractionsPerUser: 12,
		Seed:                42,
	}
}

// interactionKinds are the (type, direction) pairs the generator draws from,
// weighted towards positive signals the way real traffic skews.
var interactionKinds = []struct {
	t model.InteractionType
	d model.Direction
}{
	{model.InteractionLike, model.DirectionPositive},
	{model.InteractionLike, model.DirectionPositive},
	{model.InteractionLike, model.DirectionPositive},
	{model.InteractionFollow, model.DirectionPositive},
	{model.InteractionFollow, model.DirectionPositive},
	{model.InteractionUnlike, model.DirectionNegative},
	{model.InteractionUnfollow, model.DirectionNegative},
}

// Seeder writes a synthetic data set.
type Seeder struct {
	cfg Config
	w   Writer
	rng *rand.Rand
}

// New creates a seeder for the given writer.
func New(w Writer, cfg Config) *Seeder {
	return &Seeder{
		cfg: cfg,
		w:   w,
		rng: rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // deterministic seed for reproducible data
	}
}

// Run generates and writes the data set. Returns the number of interaction
// rows written.
func (s *Seeder) Run(ctx context.Context) (int, error) {
	now := time.Now().UTC()

	users := make([]string, s.cfg.Users)
	posts := make([]string, 0, s.cfg.Users*s.cfg.PostsPerUser)

	for i := range users {
		id := uuid.NewString()
		users[i] = id
		p := model.Profile{
			ID:        id,
			Username:  fmt.Sprintf("user_%03d", i),
			CreatedAt: now.Add(-time.Duration(s.cfg.Users-i) * 24 * time.Hour),
		}
		if err := s.w.InsertProfile(ctx, p); err != nil {
			return 0, fmt.Errorf("seed profile: %w", err)
		}
		for j := 0; j < s.cfg.PostsPerUser; j++ {
			post := model.Post{
				ID:        uuid.NewString(),
				UserID:    id,
				Caption:   fmt.Sprintf("post %d by %s", j, p.Username),
				MediaURL:  fmt.Sprintf("https://media.example/%s/%d.jpg", id, j),
				CreatedAt: p.CreatedAt.Add(time.Duration(j+1) * time.Hour),
			}
			if err := s.w.InsertPost(ctx, post); err != nil {
				return 0, fmt.Errorf("seed post: %w", err)
			}
			posts = append(posts, post.ID)
		}
	}

	written := 0
	for _, userID := range users {
		for j := 0; j < s.cfg.InteractionsPerUser; j++ {
			kind := interactionKinds[s.rng.Intn(len(interactionKinds))]
			target := users[s.rng.Intn(len(users))]

			in := model.Interaction{
				ID:           uuid.NewString(),
				UserID:       userID,
				TargetUserID: target,
				Type:         kind.t,
				Direction:    kind.d,
				CreatedAt:    now.Add(-time.Duration(s.rng.Intn(6*24)) * time.Hour),
			}
			// Likes and unlikes reference a concrete post as well.
			if kind.t == model.InteractionLike || kind.t == model.InteractionUnlike {
				in.PostID = posts[s.rng.Intn(len(posts))]
			}
			if err := s.w.InsertInteraction(ctx, in); err != nil {
				return written, fmt.Errorf("seed interaction: %w", err)
			}
			written++
		}
	}
	return written, nil
}
