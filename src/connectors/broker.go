// Package connectors holds the broker-facing clients. The trading
// core talks to a single BrokerClient interface; the live
// implementation wraps the Alpaca REST API and the paper
// implementation synthesizes prices and fills locally.
package connectors

import "context"

// OrderFill is the broker acknowledgement for a market order.
type OrderFill struct {
	OrderID   string
	FillPrice float64
	Status    string
}

// BrokerClient is the outbound interface of the trading core. Both
// operations are fallible; timeout and retry policy live inside the
// implementations, not in the callers.
type BrokerClient interface {
	GetLatestTrade(ctx context.Context, symbol string) (float64, error)
	SubmitMarketOrder(ctx context.Context, symbol string, quantity int64, side string) (*OrderFill, error)
}
