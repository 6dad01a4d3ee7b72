package correlation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meme-token-radar/internal/analysis/stub"
	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/storage/memory"
)

var engineNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *memory.CorrelationStore) {
	t.Helper()
	store := memory.NewCorrelationStore()
	eng := NewEngine(Options{
		Store:     store,
		Sentiment: &stub.SentimentAnalyzer{},
		Virality:  &stub.ViralityPredictor{},
		Now:       func() time.Time { return engineNow },
	})
	return eng, store
}

func testSignal(id, text string, keywords ...string) *domain.SocialSignal {
	return &domain.SocialSignal{
		ID:        id,
		Platform:  "reddit",
		Text:      text,
		Author:    "degen42",
		CreatedAt: engineNow.Add(-time.Hour),
		Processed: true,
		Keywords:  keywords,
	}
}

func testToken(address, name, symbol string, age time.Duration) *domain.TokenRecord {
	return &domain.TokenRecord{
		Address:    address,
		Name:       name,
		Symbol:     symbol,
		Blockchain: "ethereum",
		CreatedAt:  engineNow.Add(-age),
	}
}

const (
	addrDoge = "0x1111111111111111111111111111111111111111"
	addrPepe = "0x2222222222222222222222222222222222222222"
	addrOld  = "0x3333333333333333333333333333333333333333"
)

func TestCorrelateMatchesSignalsAgainstRecentTokens(t *testing.T) {
	eng, _ := newTestEngine(t)

	signals := []*domain.SocialSignal{
		testSignal("sig-1", "doge is mooning", "doge"),
	}
	tokens := []*domain.TokenRecord{
		testToken(addrDoge, "dogecoin", "DOGE", 24*time.Hour),
	}

	batch, err := eng.Correlate(context.Background(), signals, tokens, nil)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	c := batch[0]
	assert.Equal(t, "manual-sig-1-"+addrDoge, c.ID)
	assert.Equal(t, domain.SourceManual, c.Source)
	assert.Equal(t, domain.StatusPotential, c.ConfirmationStatus)
	assert.Equal(t, []string{"doge"}, c.Keywords)
	assert.Equal(t, 1.0, c.MatchScore)
	assert.NotZero(t, c.SentimentScore)
	assert.NotZero(t, c.ViralScore)
}

func TestCorrelateIsIdempotent(t *testing.T) {
	eng, store := newTestEngine(t)

	signals := []*domain.SocialSignal{testSignal("sig-1", "doge to the moon", "doge")}
	tokens := []*domain.TokenRecord{testToken(addrDoge, "dogecoin", "DOGE", 24*time.Hour)}

	first, err := eng.Correlate(context.Background(), signals, tokens, nil)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := eng.Correlate(context.Background(), signals, tokens, nil)
	require.NoError(t, err)
	assert.Empty(t, second)

	all, err := store.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCorrelateSkipsStaleTokens(t *testing.T) {
	eng, _ := newTestEngine(t)

	signals := []*domain.SocialSignal{testSignal("sig-1", "doge again", "doge")}
	tokens := []*domain.TokenRecord{
		testToken(addrOld, "dogecoin classic", "DOGE", 8*24*time.Hour),
	}

	batch, err := eng.Correlate(context.Background(), signals, tokens, nil)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestCorrelateSkipsUnprocessedAndKeywordlessSignals(t *testing.T) {
	eng, _ := newTestEngine(t)

	unprocessed := testSignal("sig-1", "doge", "doge")
	unprocessed.Processed = false
	keywordless := testSignal("sig-2", "doge")

	tokens := []*domain.TokenRecord{testToken(addrDoge, "dogecoin", "DOGE", time.Hour)}

	batch, err := eng.Correlate(context.Background(), []*domain.SocialSignal{unprocessed, keywordless}, tokens, nil)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestCorrelateOneCorrelationPerSignalTokenPair(t *testing.T) {
	eng, _ := newTestEngine(t)

	// Both keywords clear the threshold; only the first claims the pair.
	signals := []*domain.SocialSignal{
		testSignal("sig-1", "pepe the doge", "pepe", "doge"),
	}
	tokens := []*domain.TokenRecord{
		testToken(addrPepe, "pepe", "DOGE", time.Hour),
	}

	batch, err := eng.Correlate(context.Background(), signals, tokens, nil)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, []string{"pepe"}, batch[0].Keywords)
}

func TestCorrelateBelowThresholdKeywordsAreSkipped(t *testing.T) {
	eng, _ := newTestEngine(t)

	// "pep" only reaches 3/8*0.8 = 0.3 against "pepecoin"; "pepecoin"
	// matches exactly.
	signals := []*domain.SocialSignal{
		testSignal("sig-1", "pepecoin launch", "pep", "pepecoin"),
	}
	tokens := []*domain.TokenRecord{
		testToken(addrPepe, "pepecoin", "XYZ", time.Hour),
	}

	batch, err := eng.Correlate(context.Background(), signals, tokens, nil)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, []string{"pepecoin"}, batch[0].Keywords)
	assert.Equal(t, 1.0, batch[0].MatchScore)
}

func TestCorrelateDerivesConfirmedFromAlerts(t *testing.T) {
	eng, _ := newTestEngine(t)

	alert := &domain.Alert{
		ID:     "a1",
		Status: domain.AlertTriggered,
		Signal: *testSignal("sig-1", "doge breakout", "doge"),
		Token:  *testToken(addrDoge, "dogecoin", "DOGE", time.Hour),
		Match:  domain.AlertMatch{Keyword: "doge", Score: 1.0, Type: domain.MatchTypeSymbol},
		Keywords: []string{
			"doge",
		},
		CreatedAt: engineNow.Add(-time.Minute),
	}

	batch, err := eng.Correlate(context.Background(), nil, nil, []*domain.Alert{alert})
	require.NoError(t, err)
	require.Len(t, batch, 1)

	c := batch[0]
	assert.Equal(t, "alert-a1", c.ID)
	assert.Equal(t, domain.SourceAlert, c.Source)
	assert.Equal(t, domain.StatusConfirmed, c.ConfirmationStatus)
	assert.Equal(t, 1.0, c.MatchScore)
	assert.NotZero(t, c.SentimentScore)
}

func TestCorrelateAlertTokensExcludedFromSignalPass(t *testing.T) {
	eng, _ := newTestEngine(t)

	alert := &domain.Alert{
		ID:        "a1",
		Status:    domain.AlertTriggered,
		Signal:    *testSignal("sig-0", "doge alert", "doge"),
		Token:     *testToken(addrDoge, "dogecoin", "DOGE", time.Hour),
		Match:     domain.AlertMatch{Keyword: "doge", Score: 1.0, Type: domain.MatchTypeSymbol},
		CreatedAt: engineNow.Add(-time.Minute),
	}
	signals := []*domain.SocialSignal{testSignal("sig-1", "doge again", "doge")}
	tokens := []*domain.TokenRecord{testToken(addrDoge, "dogecoin", "DOGE", time.Hour)}

	batch, err := eng.Correlate(context.Background(), signals, tokens, []*domain.Alert{alert})
	require.NoError(t, err)

	// Only the alert-derived correlation; the signal pass skips the
	// token the alert already covers.
	require.Len(t, batch, 1)
	assert.Equal(t, domain.SourceAlert, batch[0].Source)
}

func TestCorrelateScorerFailureDegradesToZero(t *testing.T) {
	store := memory.NewCorrelationStore()
	eng := NewEngine(Options{
		Store:     store,
		Sentiment: &stub.SentimentAnalyzer{Err: assert.AnError},
		Virality:  &stub.ViralityPredictor{Err: assert.AnError},
		Now:       func() time.Time { return engineNow },
	})

	signals := []*domain.SocialSignal{testSignal("sig-1", "doge", "doge")}
	tokens := []*domain.TokenRecord{testToken(addrDoge, "dogecoin", "DOGE", time.Hour)}

	batch, err := eng.Correlate(context.Background(), signals, tokens, nil)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Zero(t, batch[0].SentimentScore)
	assert.Zero(t, batch[0].ViralScore)
}

func TestCorrelateTweetsReusesCarriedScores(t *testing.T) {
	eng, _ := newTestEngine(t)

	tweet := testSignal("tw-1", "$DOGE is inevitable", "doge")
	tweet.Platform = "twitter"
	tweet.SentimentScore = 0.9
	tweet.ViralScore = 0.8

	tokens := []*domain.TokenRecord{testToken(addrDoge, "dogecoin", "DOGE", time.Hour)}

	batch, err := eng.CorrelateTweets(context.Background(), []*domain.SocialSignal{tweet}, tokens)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	c := batch[0]
	assert.Equal(t, "tweet-tw-1-"+addrDoge, c.ID)
	assert.Equal(t, domain.SourceTweet, c.Source)
	assert.Equal(t, 0.9, c.SentimentScore)
	assert.Equal(t, 0.8, c.ViralScore)
}

func TestCorrelateTweetsExtractsKeywordsWhenMissing(t *testing.T) {
	eng, _ := newTestEngine(t)

	tweet := testSignal("tw-1", "dogecoin season is here")
	tweet.Platform = "twitter"

	tokens := []*domain.TokenRecord{testToken(addrDoge, "dogecoin", "DOGE", time.Hour)}

	batch, err := eng.CorrelateTweets(context.Background(), []*domain.SocialSignal{tweet}, tokens)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, []string{"dogecoin"}, batch[0].Keywords)
}

func TestListFiltersBySourceStatusAndLimit(t *testing.T) {
	eng, _ := newTestEngine(t)

	signals := []*domain.SocialSignal{
		testSignal("sig-1", "doge", "doge"),
		testSignal("sig-2", "pepe", "pepe"),
	}
	tokens := []*domain.TokenRecord{
		testToken(addrDoge, "dogecoin", "DOGE", time.Hour),
		testToken(addrPepe, "pepecoin", "PEPE", time.Hour),
	}

	_, err := eng.Correlate(context.Background(), signals, tokens, nil)
	require.NoError(t, err)

	all, err := eng.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	manual, err := eng.List(context.Background(), Filter{Source: domain.SourceManual})
	require.NoError(t, err)
	assert.Len(t, manual, 2)

	limited, err := eng.List(context.Background(), Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	confirmed, err := eng.List(context.Background(), Filter{Status: domain.StatusConfirmed})
	require.NoError(t, err)
	assert.Empty(t, confirmed)
}

func TestUpdateStatusValidatesAndStamps(t *testing.T) {
	eng, store := newTestEngine(t)

	signals := []*domain.SocialSignal{testSignal("sig-1", "doge", "doge")}
	tokens := []*domain.TokenRecord{testToken(addrDoge, "dogecoin", "DOGE", time.Hour)}

	batch, err := eng.Correlate(context.Background(), signals, tokens, nil)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	id := batch[0].ID

	require.Error(t, eng.UpdateStatus(context.Background(), id, "bogus"))
	require.NoError(t, eng.UpdateStatus(context.Background(), id, domain.StatusConfirmed))

	all, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.StatusConfirmed, all[0].ConfirmationStatus)
	require.NotNil(t, all[0].UpdatedAt)
	assert.Equal(t, engineNow, *all[0].UpdatedAt)
}
