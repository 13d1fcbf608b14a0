package service

import (
	"math/rand"
	"sync"

	"pilgrimtrader/internal/domain"
)

// Market perturbation bounds. Quotes are illustrative, not sourced from any
// real feed; each refresh applies a small bounded random walk.
const (
	fxBidDelta     = 0.0010 // uniform(-0.0005, +0.0005)
	fxSpread       = 0.0002 // fixed ask - bid
	fxChangeRange  = 0.5    // uniform(-0.25, +0.25)
	cryptoWalk     = 0.02   // multiplicative uniform(-1%, +1%)
	cryptoChgRange = 3.0    // uniform(-1.5, +1.5)
)

// MarketService holds the simulated quote board and perturbs it on a fixed
// cadence driven by the scheduler.
type MarketService struct {
	mu      sync.RWMutex
	fx      []domain.Quote
	cryptos []domain.Quote
	rng     *rand.Rand
}

// NewMarketService seeds the quote board with the default instrument set.
func NewMarketService(seed int64) *MarketService {
	return &MarketService{
		fx: []domain.Quote{
			{Symbol: "EUR/USD", Kind: domain.QuoteKindFX, Bid: 1.0850, Ask: 1.0852, Change: 0.15},
			{Symbol: "GBP/USD", Kind: domain.QuoteKindFX, Bid: 1.2650, Ask: 1.2652, Change: -0.08},
			{Symbol: "USD/JPY", Kind: domain.QuoteKindFX, Bid: 149.50, Ask: 149.52, Change: 0.22},
			{Symbol: "AUD/USD", Kind: domain.QuoteKindFX, Bid: 0.6540, Ask: 0.6542, Change: 0.05},
			{Symbol: "USD/CAD", Kind: domain.QuoteKindFX, Bid: 1.3550, Ask: 1.3552, Change: -0.12},
			{Symbol: "USD/CHF", Kind: domain.QuoteKindFX, Bid: 0.8750, Ask: 0.8752, Change: 0.03},
		},
		cryptos: []domain.Quote{
			{Symbol: "BTC/USD", Kind: domain.QuoteKindCrypto, Price: 43500, Change: 2.5},
			{Symbol: "ETH/USD", Kind: domain.QuoteKindCrypto, Price: 2280, Change: 1.8},
			{Symbol: "XRP/USD", Kind: domain.QuoteKindCrypto, Price: 0.52, Change: -0.5},
			{Symbol: "LTC/USD", Kind: domain.QuoteKindCrypto, Price: 72, Change: 0.8},
			{Symbol: "BCH/USD", Kind: domain.QuoteKindCrypto, Price: 235, Change: 1.2},
		},
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Refresh perturbs every quote and returns the resulting snapshot.
func (s *MarketService) Refresh() domain.MarketSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.fx {
		s.fx[i].Bid += (s.rng.Float64() - 0.5) * fxBidDelta
		s.fx[i].Ask = s.fx[i].Bid + fxSpread
		s.fx[i].Change = (s.rng.Float64() - 0.5) * fxChangeRange
	}
	for i := range s.cryptos {
		s.cryptos[i].Price *= 1 + (s.rng.Float64()-0.5)*cryptoWalk
		s.cryptos[i].Change = (s.rng.Float64() - 0.5) * cryptoChgRange
	}

	return s.snapshotLocked()
}

// Snapshot returns a consistent copy of the current quote board.
func (s *MarketService) Snapshot() domain.MarketSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// GetQuote returns the quote for the given symbol.
func (s *MarketService) GetQuote(symbol string) (*domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, q := range s.fx {
		if q.Symbol == symbol {
			return &q, nil
		}
	}
	for _, q := range s.cryptos {
		if q.Symbol == symbol {
			return &q, nil
		}
	}
	return nil, domain.ErrNotFound
}

// RandomPair returns a random FX quote, used by the robot trading loop.
// Takes the write lock because the shared rng is not safe under RLock.
func (s *MarketService) RandomPair() domain.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fx[s.rng.Intn(len(s.fx))]
}

func (s *MarketService) snapshotLocked() domain.MarketSnapshot {
	snap := domain.MarketSnapshot{
		CurrencyPairs:    make([]domain.Quote, len(s.fx)),
		Cryptocurrencies: make([]domain.Quote, len(s.cryptos)),
	}
	copy(snap.CurrencyPairs, s.fx)
	copy(snap.Cryptocurrencies, s.cryptos)
	return snap
}
