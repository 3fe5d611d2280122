package scoring

import "github.com/denlabs/denengine/internal/domain/model"

// Option applies a configuration option to the InteractionScorer.
type Option func(*InteractionScorer)

// WithWeight overrides or adds one rule in the weight table. Use AnyDirection
// to match every direction for the given type.
func WithWeight(t model.InteractionType, d model.Direction, weight float64) Option {
	return func(s *InteractionScorer) {
		s.weights[rule{t, d}] = weight
	}
}

// WithReason sets the reason label attached to emitted candidates.
func WithReason(reason string) Option {
	return func(s *InteractionScorer) {
		if reason != "" {
			s.reason = reason
		}
	}
}
