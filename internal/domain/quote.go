package domain

// Quote is a market price point for one instrument, refreshed periodically.
// FX quotes carry a bid/ask pair; crypto quotes carry a single price.
type Quote struct {
	Symbol string  `json:"symbol"`
	Kind   string  `json:"kind"`
	Bid    float64 `json:"bid,omitempty"`
	Ask    float64 `json:"ask,omitempty"`
	Price  float64 `json:"price,omitempty"`
	Change float64 `json:"change"`
}

// QuoteKind constants
const (
	QuoteKindFX     = "fx"
	QuoteKindCrypto = "crypto"
)

// SidePrice returns the execution price for opening a trade in the given
// direction: ask for buys, bid for sells. Crypto quotes have a single price.
func (q *Quote) SidePrice(direction string) float64 {
	if q.Kind == QuoteKindCrypto {
		return q.Price
	}
	if direction == DirectionBuy {
		return q.Ask
	}
	return q.Bid
}

// MarketSnapshot is a consistent copy of all quotes at one refresh.
type MarketSnapshot struct {
	CurrencyPairs    []Quote `json:"currency_pairs"`
	Cryptocurrencies []Quote `json:"cryptocurrencies"`
}
