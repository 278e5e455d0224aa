package bot

// historyCap bounds the per-symbol price history. Indicators never
// look further back than 50 samples, so 100 gives headroom without
// unbounded growth on long-running bots.
const historyCap = 100

// PriceSeries is a bounded FIFO of the most recent prices for one
// symbol. Not safe for concurrent use; the owning loop is single
// threaded.
type PriceSeries struct {
	prices []float64
}

func NewPriceSeries() *PriceSeries {
	return &PriceSeries{prices: make([]float64, 0, historyCap)}
}

// Append adds a sample, evicting the oldest when at capacity.
func (s *PriceSeries) Append(price float64) {
	if len(s.prices) == historyCap {
		copy(s.prices, s.prices[1:])
		s.prices = s.prices[:historyCap-1]
	}
	s.prices = append(s.prices, price)
}

func (s *PriceSeries) Len() int { return len(s.prices) }

// Values returns the samples oldest first. The slice is a copy.
func (s *PriceSeries) Values() []float64 {
	out := make([]float64, len(s.prices))
	copy(out, s.prices)
	return out
}
