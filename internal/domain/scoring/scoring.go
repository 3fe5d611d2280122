// Package scoring turns a window of interaction events into ranked
// candidate posts.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/denlabs/denengine/internal/domain/model"
)

// DefaultReason labels candidates produced by the interaction pipeline.
const DefaultReason = "interaction-based"

// AnyDirection matches every direction in a weight rule.
const AnyDirection model.Direction = "*"

// rule keys the weight table by (type, direction).
type rule struct {
	Type      model.InteractionType
	Direction model.Direction
}

// defaultWeights is the closed rule table. Pairs not listed contribute
// exactly zero.
func defaultWeights() map[rule]float64 {
	return map[rule]float64{
		{model.InteractionLike, model.DirectionPositive}:   1.0,
		{model.InteractionUnlike, AnyDirection}:            -0.5,
		{model.InteractionFollow, model.DirectionPositive}: 1.5,
		{model.InteractionUnfollow, AnyDirection}:          -1.0,
	}
}

// PostLookup resolves the posts authored by a user. Implementations exclude
// posts authored by excludeAuthorID so self-authored posts never become
// candidates.
type PostLookup interface {
	PostIDsByAuthor(ctx context.Context, authorID, excludeAuthorID string) ([]string, error)
}

// Scorer computes a user's candidate set from their recent interactions.
type Scorer interface {
	Score(ctx context.Context, userID string, interactions []model.Interaction) ([]model.ScoredCandidate, error)
}

// InteractionScorer implements Scorer with the weighted-rule table.
type InteractionScorer struct {
	posts   PostLookup
	weights map[rule]float64
	reason  string
}

// ErrNilPostLookup indicates the scorer was constructed without its post
// lookup collaborator.
var ErrNilPostLookup = errors.New("nil post lookup")

// NewInteractionScorer creates a scorer backed by the given post lookup.
func NewInteractionScorer(posts PostLookup, opts ...Option) *InteractionScorer {
	s := &InteractionScorer{
		posts:   posts,
		weights: defaultWeights(),
		reason:  DefaultReason,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// weightFor resolves the weight for one interaction. Exact (type, direction)
// rules win over wildcard-direction rules; everything else weighs zero.
func (s *InteractionScorer) weightFor(t model.InteractionType, d model.Direction) float64 {
	if w, ok := s.weights[rule{t, d}]; ok {
		return w
	}
	if w, ok := s.weights[rule{t, AnyDirection}]; ok {
		return w
	}
	return 0
}

// Score accumulates weights over the posts of each interaction's target user,
// then emits candidates with a strictly positive score that the user has not
// already acted on. Empty input yields empty output.
func (s *InteractionScorer) Score(ctx context.Context, userID string, interactions []model.Interaction) ([]model.ScoredCandidate, error) {
	if s.posts == nil {
		return nil, ErrNilPostLookup
	}

	postScores := make(map[string]float64)
	seenPosts := make(map[string]struct{})
	// Post sets per author are stable within a run; fetch each author once.
	authorPosts := make(map[string][]string)

	for i := range interactions {
		in := &interactions[i]
		if in.PostID != "" {
			seenPosts[in.PostID] = struct{}{}
		}
		if in.TargetUserID == "" {
			continue
		}

		weight := s.weightFor(in.Type, in.Direction)

		ids, ok := authorPosts[in.TargetUserID]
		if !ok {
			var err error
			ids, err = s.posts.PostIDsByAuthor(ctx, in.TargetUserID, userID)
			if err != nil {
				return nil, fmt.Errorf("fetch posts of %s: %w", in.TargetUserID, err)
			}
			authorPosts[in.TargetUserID] = ids
		}
		for _, id := range ids {
			postScores[id] += weight
		}
	}

	out := make([]model.ScoredCandidate, 0, len(postScores))
	for postID, score := range postScores {
		if score <= 0 {
			continue
		}
		if _, seen := seenPosts[postID]; seen {
			continue
		}
		out = append(out, model.ScoredCandidate{
			UserID: userID,
			PostID: postID,
			Score:  score,
			Reason: s.reason,
		})
	}

	// Deterministic output: score desc, then post id asc.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].PostID < out[j].PostID
	})
	return out, nil
}
