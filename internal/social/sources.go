// Package social feeds the scanner with signals and token listings from
// upstream collectors. The collectors themselves (reddit scrapers,
// influencer trackers, chain indexers) live outside this service; this
// package only defines the consuming side.
package social

import (
	"context"
	"sync"

	"meme-token-radar/internal/domain"
)

// SignalSource supplies social signals awaiting correlation.
type SignalSource interface {
	// ListSignals returns processed signals with extracted keywords.
	ListSignals(ctx context.Context) ([]*domain.SocialSignal, error)

	// ListTweets returns influencer tweets, possibly carrying
	// pre-computed sentiment and virality scores.
	ListTweets(ctx context.Context) ([]*domain.SocialSignal, error)
}

// TokenSource supplies newly observed token contracts.
type TokenSource interface {
	ListRecentTokens(ctx context.Context) ([]*domain.TokenRecord, error)
}

// StaticSource serves fixed slices of signals, tweets, and tokens. Used
// in tests and one-shot runs over exported data.
type StaticSource struct {
	mu      sync.RWMutex
	signals []*domain.SocialSignal
	tweets  []*domain.SocialSignal
	tokens  []*domain.TokenRecord
}

// NewStaticSource creates a source over fixed data.
func NewStaticSource(signals, tweets []*domain.SocialSignal, tokens []*domain.TokenRecord) *StaticSource {
	return &StaticSource{signals: signals, tweets: tweets, tokens: tokens}
}

func (s *StaticSource) ListSignals(context.Context) ([]*domain.SocialSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.SocialSignal(nil), s.signals...), nil
}

func (s *StaticSource) ListTweets(context.Context) ([]*domain.SocialSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.SocialSignal(nil), s.tweets...), nil
}

func (s *StaticSource) ListRecentTokens(context.Context) ([]*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.TokenRecord(nil), s.tokens...), nil
}

// SetTokens replaces the token listing.
func (s *StaticSource) SetTokens(tokens []*domain.TokenRecord) {
	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()
}

// AddSignal appends one signal to the listing.
func (s *StaticSource) AddSignal(signal *domain.SocialSignal) {
	s.mu.Lock()
	s.signals = append(s.signals, signal)
	s.mu.Unlock()
}

var (
	_ SignalSource = (*StaticSource)(nil)
	_ TokenSource  = (*StaticSource)(nil)
)
