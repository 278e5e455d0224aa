package model

import "time"

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Position is one open long exposure held by a bot. Positions live in
// the ledger of a single bot instance and are never shared across
// users or symbols.
type Position struct {
	Symbol     string    `json:"symbol"`
	Quantity   int64     `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	Side       string    `json:"side"`
	OpenedAt   time.Time `json:"opened_at"`
	OrderID    string    `json:"order_id"`
}
