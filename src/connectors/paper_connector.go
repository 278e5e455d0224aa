package connectors

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// paperVolatility is the per-draw move of the synthetic walk, as a
// fraction of the symbol base price.
const paperVolatility = 0.02

// paperBasePrices anchors the synthetic walk per symbol; anything
// unlisted walks around 100.
var paperBasePrices = map[string]float64{
	"AAPL":  150,
	"TSLA":  200,
	"NVDA":  400,
	"MSFT":  300,
	"GOOGL": 130,
	"AMZN":  140,
}

const paperDefaultBase = 100.0

// PaperClient simulates the broker for paper mode. Prices follow a
// bounded random walk around a per-symbol base and market orders fill
// immediately at the last synthesized price.
type PaperClient struct {
	mu   sync.Mutex
	rng  *rand.Rand
	last map[string]float64
}

func NewPaperClient(seed int64) *PaperClient {
	return &PaperClient{
		rng:  rand.New(rand.NewSource(seed)),
		last: make(map[string]float64),
	}
}

func baseFor(symbol string) float64 {
	if base, ok := paperBasePrices[symbol]; ok {
		return base
	}
	return paperDefaultBase
}

// GetLatestTrade advances the walk one step. The walk is clamped to
// ±10% of the base so a long-running paper bot cannot drift into
// absurd prices.
func (c *PaperClient) GetLatestTrade(_ context.Context, symbol string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	base := baseFor(symbol)
	price, ok := c.last[symbol]
	if !ok {
		price = base
	}

	step := (c.rng.Float64() - 0.5) * 2 * paperVolatility * base
	price += step

	if lo := base * 0.9; price < lo {
		price = lo
	}
	if hi := base * 1.1; price > hi {
		price = hi
	}

	c.last[symbol] = price
	return price, nil
}

// SubmitMarketOrder fills instantly at the last synthesized price.
func (c *PaperClient) SubmitMarketOrder(_ context.Context, symbol string, quantity int64, side string) (*OrderFill, error) {
	c.mu.Lock()
	price, ok := c.last[symbol]
	c.mu.Unlock()
	if !ok {
		price = baseFor(symbol)
	}

	return &OrderFill{
		OrderID:   uuid.NewString(),
		FillPrice: price,
		Status:    "filled",
	}, nil
}
