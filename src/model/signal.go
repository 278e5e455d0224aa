package model

// Signal is the outcome of one strategy evaluation for the latest
// price sample. It is never persisted.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)
