package domain

import "time"

// TokenRecord represents a newly observed token contract.
// Address is the unique key within a blockchain.
type TokenRecord struct {
	Address    string    `json:"address"`
	Name       string    `json:"name"`
	Symbol     string    `json:"symbol"`
	Blockchain string    `json:"blockchain"` // ethereum | solana
	CreatedAt  time.Time `json:"created_at"`
}

// MatchType identifies which token field a keyword matched against.
type MatchType string

const (
	MatchTypeName   MatchType = "name"
	MatchTypeSymbol MatchType = "symbol"
)

// TokenMatch is a token paired with the keyword that matched it.
type TokenMatch struct {
	Token   TokenRecord `json:"token"`
	Keyword string      `json:"keyword"`
	Score   float64     `json:"score"` // [0,1]
	Type    MatchType   `json:"type"`
}
