// Package strategy maps a configured strategy and a price history to
// a trade signal. Evaluation is pure: identical inputs always produce
// the identical signal.
package strategy

import (
	"tradebotpro/src/indicators"
	"tradebotpro/src/model"
)

// Strategy is a closed set of supported signal rules. Unrecognized
// identifiers parse to Unknown, which always evaluates to hold.
type Strategy string

const (
	SMACrossover   Strategy = "sma_crossover"
	EMACrossover   Strategy = "ema_crossover"
	RSIOversold    Strategy = "rsi_oversold"
	Momentum       Strategy = "momentum"
	MeanReversion  Strategy = "mean_reversion"
	BollingerBands Strategy = "bollinger_bands"
	Unknown        Strategy = ""
)

const (
	rsiPeriod     = 14
	rsiOversold   = 30
	rsiOverbought = 70

	momentumWindow    = 10
	momentumThreshold = 0.02

	reversionPeriod    = 20
	reversionThreshold = 0.03

	bollingerPeriod = 20
	bollingerWidth  = 2.0
)

// Parse resolves a strategy identifier. Anything outside the closed
// set resolves to Unknown rather than failing.
func Parse(id string) Strategy {
	switch Strategy(id) {
	case SMACrossover, EMACrossover, RSIOversold, Momentum, MeanReversion, BollingerBands:
		return Strategy(id)
	default:
		return Unknown
	}
}

// MinHistory is the number of samples below which Evaluate returns
// hold unconditionally.
func (s Strategy) MinHistory() int {
	switch s {
	case SMACrossover, EMACrossover:
		return 50
	case RSIOversold, MeanReversion, BollingerBands:
		return 20
	case Momentum:
		return 10
	default:
		return 0
	}
}

// Evaluate produces the signal for the latest sample of the series.
func Evaluate(s Strategy, prices []float64) model.Signal {
	if len(prices) < s.MinHistory() {
		return model.SignalHold
	}

	switch s {
	case SMACrossover:
		return crossover(indicators.SMA(prices, 20), indicators.SMA(prices, 50))
	case EMACrossover:
		return crossover(indicators.EMA(prices, 10), indicators.EMA(prices, 30))
	case RSIOversold:
		return rsiSignal(prices)
	case Momentum:
		return momentumSignal(prices)
	case MeanReversion:
		return reversionSignal(prices)
	case BollingerBands:
		return bollingerSignal(prices)
	default:
		return model.SignalHold
	}
}

// crossover flags the bar where the fast line crosses the slow one:
// buy on prev <= && now >, sell on the mirror cross.
func crossover(fast, slow []float64) model.Signal {
	if len(fast) < 2 || len(slow) < 2 {
		return model.SignalHold
	}

	currFast, prevFast := fast[len(fast)-1], fast[len(fast)-2]
	currSlow, prevSlow := slow[len(slow)-1], slow[len(slow)-2]

	if prevFast <= prevSlow && currFast > currSlow {
		return model.SignalBuy
	}
	if prevFast >= prevSlow && currFast < currSlow {
		return model.SignalSell
	}
	return model.SignalHold
}

func rsiSignal(prices []float64) model.Signal {
	rsi := indicators.RSI(prices, rsiPeriod)
	switch {
	case rsi < rsiOversold:
		return model.SignalBuy
	case rsi > rsiOverbought:
		return model.SignalSell
	default:
		return model.SignalHold
	}
}

func momentumSignal(prices []float64) model.Signal {
	window := prices[len(prices)-momentumWindow:]
	ret := (window[len(window)-1] - window[0]) / window[0]
	switch {
	case ret > momentumThreshold:
		return model.SignalBuy
	case ret < -momentumThreshold:
		return model.SignalSell
	default:
		return model.SignalHold
	}
}

func reversionSignal(prices []float64) model.Signal {
	sma := indicators.SMA(prices, reversionPeriod)
	current := prices[len(prices)-1]
	mean := sma[len(sma)-1]

	deviation := (current - mean) / mean
	switch {
	case deviation <= -reversionThreshold:
		return model.SignalBuy
	case deviation >= reversionThreshold:
		return model.SignalSell
	default:
		return model.SignalHold
	}
}

func bollingerSignal(prices []float64) model.Signal {
	sma := indicators.SMA(prices, bollingerPeriod)
	mid := sma[len(sma)-1]
	band := bollingerWidth * indicators.StdDev(prices, bollingerPeriod)
	current := prices[len(prices)-1]

	switch {
	case current < mid-band:
		return model.SignalBuy
	case current > mid+band:
		return model.SignalSell
	default:
		return model.SignalHold
	}
}
