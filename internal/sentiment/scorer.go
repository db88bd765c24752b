// Package sentiment scores message warmth by comparing a text's embedding
// against fixed positive and negative anchor phrases, and classifies a
// score sequence into a trend.
package sentiment

import (
	"context"
	"fmt"
	"sync"

	"github.com/hurttlocker/rapport/internal/embed"
)

// Default anchor phrases. An anchor is a fixed reference text whose vector
// similarity to a message stands in for a sentiment label.
const (
	PositiveAnchor = "Great, sounds good, excited, thanks, looking forward."
	NegativeAnchor = "Unsubscribe, stop, not interested, too expensive, bad, angry."
)

// Scorer maps normalized text to a scalar warmth score. Safe for
// concurrent use; the text-vector cache is keyed by the normalized text
// and entries are read-only once computed.
type Scorer struct {
	emb       embed.Embedder
	posAnchor string
	negAnchor string

	mu     sync.Mutex
	posVec []float32
	negVec []float32
	cache  map[string][]float32
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithAnchors overrides the default anchor phrases.
func WithAnchors(positive, negative string) Option {
	return func(s *Scorer) {
		if positive != "" {
			s.posAnchor = positive
		}
		if negative != "" {
			s.negAnchor = negative
		}
	}
}

// NewScorer creates a Scorer over the given embedding capability.
func NewScorer(emb embed.Embedder, opts ...Option) *Scorer {
	s := &Scorer{
		emb:       emb,
		posAnchor: PositiveAnchor,
		negAnchor: NegativeAnchor,
		cache:     make(map[string][]float32),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns cosine(text, positive anchor) - cosine(text, negative
// anchor). The result is a similarity difference, so it is not strictly
// bounded but stays well inside [-1, 1] for natural text. An embedding
// failure fails only this one score; the caller omits it from the trend.
func (s *Scorer) Score(ctx context.Context, text string) (float64, error) {
	textVec, err := s.vectorFor(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("encoding text: %w", err)
	}

	posVec, negVec, err := s.anchorVectors(ctx)
	if err != nil {
		return 0, err
	}

	return embed.Cosine(textVec, posVec) - embed.Cosine(textVec, negVec), nil
}

func (s *Scorer) vectorFor(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	if vec, ok := s.cache[text]; ok {
		s.mu.Unlock()
		return vec, nil
	}
	s.mu.Unlock()

	vec, err := s.emb.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[text] = vec
	s.mu.Unlock()
	return vec, nil
}

// anchorVectors encodes both anchors once and reuses them afterwards.
func (s *Scorer) anchorVectors(ctx context.Context) ([]float32, []float32, error) {
	s.mu.Lock()
	pos, neg := s.posVec, s.negVec
	s.mu.Unlock()
	if pos != nil && neg != nil {
		return pos, neg, nil
	}

	pos, err := s.emb.Embed(ctx, s.posAnchor)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding positive anchor: %w", err)
	}
	neg, err = s.emb.Embed(ctx, s.negAnchor)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding negative anchor: %w", err)
	}

	s.mu.Lock()
	s.posVec, s.negVec = pos, neg
	s.mu.Unlock()
	return pos, neg, nil
}
