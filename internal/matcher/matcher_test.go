package matcher

import (
	"math"
	"testing"

	"meme-token-radar/internal/domain"
)

func TestMatch_ExactSymbol(t *testing.T) {
	res := Match("doge", "dogecoin", "DOGE")

	if !res.Matched {
		t.Fatal("expected a match")
	}
	if res.Score != 1.0 {
		t.Errorf("Score = %v, want 1.0", res.Score)
	}
	if res.Type != domain.MatchTypeSymbol {
		t.Errorf("Type = %s, want symbol", res.Type)
	}
}

func TestMatch_ExactName(t *testing.T) {
	res := Match("Pepecoin", "PepeCoin", "PEPE2")

	if !res.Matched {
		t.Fatal("expected a match")
	}
	if res.Score != 1.0 {
		t.Errorf("Score = %v, want 1.0", res.Score)
	}
	if res.Type != domain.MatchTypeName {
		t.Errorf("Type = %s, want name", res.Type)
	}
}

func TestMatch_PartialBelowThreshold(t *testing.T) {
	// Contained in the name only; the symbol side contributes nothing.
	res := Match("pep", "pepecoin", "XYZ")

	if !res.Matched {
		t.Fatal("expected a match")
	}
	want := (3.0 / 8.0) * 0.8
	if math.Abs(res.Score-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", res.Score, want)
	}
	if res.Score >= SignificantScore {
		t.Errorf("Score = %v, expected below the caller acceptance threshold", res.Score)
	}
	if res.Type != domain.MatchTypeName {
		t.Errorf("Type = %s, want name", res.Type)
	}
}

func TestMatch_RatioUsesContainingSideOnly(t *testing.T) {
	// Keyword contained only in the symbol: name ratio must contribute 0
	// even though the name is shorter.
	res := Match("moon", "ab", "moonshot")

	if !res.Matched {
		t.Fatal("expected a match")
	}
	want := (4.0 / 8.0) * 0.8
	if math.Abs(res.Score-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", res.Score, want)
	}
	if res.Type != domain.MatchTypeSymbol {
		t.Errorf("Type = %s, want symbol", res.Type)
	}
}

func TestMatch_NoContainment(t *testing.T) {
	res := Match("doge", "pepecoin", "PEPE")

	if res.Matched {
		t.Error("expected no match")
	}
	if res.Score != 0 {
		t.Errorf("Score = %v, want 0", res.Score)
	}
}

func TestMatch_EmptyInputs(t *testing.T) {
	if Match("", "dogecoin", "DOGE").Matched {
		t.Error("empty keyword should not match")
	}
	if Match("doge", "", "").Matched {
		t.Error("empty name and symbol should not match")
	}
}

func TestMatch_Deterministic(t *testing.T) {
	first := Match("pep", "pepecoin", "PEPE")
	for i := 0; i < 10; i++ {
		if got := Match("pep", "pepecoin", "PEPE"); got != first {
			t.Fatalf("Match() not deterministic: %+v != %+v", got, first)
		}
	}
}

func TestFindMatches(t *testing.T) {
	tokens := []*domain.TokenRecord{
		{Address: "0x1", Name: "DogeMoon", Symbol: "DOGMN"},
		{Address: "0x2", Name: "PepeCoin", Symbol: "PEPE"},
		{Address: "0x3", Name: "Unrelated", Symbol: "UNRL"},
	}

	matches := FindMatches([]string{"pepe", "doge"}, tokens)

	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	// Sorted by score descending: exact symbol match "pepe" first.
	if matches[0].Token.Address != "0x2" || matches[0].Score != 1.0 {
		t.Errorf("first match = %s score %v, want 0x2 score 1.0", matches[0].Token.Address, matches[0].Score)
	}
	if matches[1].Token.Address != "0x1" {
		t.Errorf("second match = %s, want 0x1", matches[1].Token.Address)
	}
	if matches[1].Keyword != "doge" {
		t.Errorf("second match keyword = %s, want doge", matches[1].Keyword)
	}
}

func TestFindMatches_OneMatchPerToken(t *testing.T) {
	tokens := []*domain.TokenRecord{
		{Address: "0x1", Name: "DogeMoon", Symbol: "DOGE"},
	}

	// Both keywords match the token; only the first should claim it.
	matches := FindMatches([]string{"doge", "moon"}, tokens)

	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Keyword != "doge" {
		t.Errorf("Keyword = %s, want doge", matches[0].Keyword)
	}
}
