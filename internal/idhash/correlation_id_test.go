package idhash

import (
	"testing"

	"meme-token-radar/internal/domain"
)

func TestCorrelationID(t *testing.T) {
	tests := []struct {
		name     string
		source   domain.CorrelationSource
		signalID string
		address  string
		want     string
	}{
		{
			name:     "manual source",
			source:   domain.SourceManual,
			signalID: "reddit-abc123",
			address:  "0x742d35cc6634c0532925a3b844bc454e4438f44e",
			want:     "manual-reddit-abc123-0x742d35cc6634c0532925a3b844bc454e4438f44e",
		},
		{
			name:     "tweet source",
			source:   domain.SourceTweet,
			signalID: "1234567890",
			address:  "0xdeadbeef",
			want:     "tweet-1234567890-0xdeadbeef",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CorrelationID(tt.source, tt.signalID, tt.address)
			if got != tt.want {
				t.Errorf("CorrelationID() = %s, want %s", got, tt.want)
			}

			// Verify determinism: same inputs should produce same output
			got2 := CorrelationID(tt.source, tt.signalID, tt.address)
			if got != got2 {
				t.Errorf("CorrelationID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestAlertCorrelationID(t *testing.T) {
	got := AlertCorrelationID("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	want := "alert-f47ac10b-58cc-4372-a567-0e02b2c3d479"
	if got != want {
		t.Errorf("AlertCorrelationID() = %s, want %s", got, want)
	}
}

func TestCorrelationID_DifferentInputs(t *testing.T) {
	base := CorrelationID(domain.SourceManual, "sig-1", "addr-1")

	if CorrelationID(domain.SourceTweet, "sig-1", "addr-1") == base {
		t.Error("Different source should produce different ID")
	}
	if CorrelationID(domain.SourceManual, "sig-2", "addr-1") == base {
		t.Error("Different signal ID should produce different ID")
	}
	if CorrelationID(domain.SourceManual, "sig-1", "addr-2") == base {
		t.Error("Different token address should produce different ID")
	}
}
