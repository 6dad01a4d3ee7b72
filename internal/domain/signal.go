package domain

import "time"

// SocialSignal represents a social media post (meme or influencer tweet)
// considered as a candidate precursor to a token launch.
// Immutable once scored.
type SocialSignal struct {
	ID        string    `json:"id"`
	Platform  string    `json:"platform"` // reddit | twitter
	Title     string    `json:"title,omitempty"`
	Text      string    `json:"text"`
	URL       string    `json:"url,omitempty"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Processed bool      `json:"processed"`
	Keywords  []string  `json:"keywords,omitempty"` // ordered, deduplicated

	// Scores carried on already-analyzed tweets. Zero means "not computed";
	// the correlation engine recomputes via the scorers in that case.
	SentimentScore float64 `json:"sentiment_score,omitempty"`
	ViralScore     float64 `json:"viral_score,omitempty"`
}

// FullText returns title and body joined for scoring.
func (s *SocialSignal) FullText() string {
	if s.Title == "" {
		return s.Text
	}
	if s.Text == "" {
		return s.Title
	}
	return s.Title + " " + s.Text
}
