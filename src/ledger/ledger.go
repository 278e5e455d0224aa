// Package ledger is the per-user position and risk bookkeeping. One
// ledger belongs to exactly one bot instance; it tracks open
// positions per symbol, realizes P&L on close and enforces the
// stop-loss / take-profit thresholds.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tradebotpro/src/connectors"
	"tradebotpro/src/model"
	"tradebotpro/src/notify"
)

// Recorder persists closed round trips. The ledger treats it as best
// effort: a failed write is logged, never surfaced to the loop.
type Recorder interface {
	RecordTrade(ctx context.Context, trade *model.Trade) error
}

// Ledger mutations are serialized: the owning loop is single threaded
// and status snapshots from the API side take the same lock.
type Ledger struct {
	mu        sync.Mutex
	userID    string
	broker    connectors.BrokerClient
	notifier  notify.Notifier
	recorder  Recorder
	now       func() time.Time
	positions map[string][]*model.Position
	stats     model.Stats
}

func New(userID string, broker connectors.BrokerClient, notifier notify.Notifier) *Ledger {
	return &Ledger{
		userID:    userID,
		broker:    broker,
		notifier:  notifier,
		now:       time.Now,
		positions: make(map[string][]*model.Position),
	}
}

// WithRecorder attaches a trade log sink.
func (l *Ledger) WithRecorder(r Recorder) *Ledger {
	l.recorder = r
	return l
}

// WithBroker replaces the order client.
func (l *Ledger) WithBroker(broker connectors.BrokerClient) *Ledger {
	l.broker = broker
	return l
}

// WithNotifier replaces the notification channel.
func (l *Ledger) WithNotifier(n notify.Notifier) *Ledger {
	l.notifier = n
	return l
}

// WithClock overrides the time source. Useful for tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Open buys floor(budget/price) shares of symbol. A budget too small
// for a single share is a no-op. On broker failure no position is
// recorded and the error is returned after notifying the user.
func (l *Ledger) Open(ctx context.Context, symbol string, price, budget float64) error {
	quantity := decimal.NewFromFloat(budget).
		Div(decimal.NewFromFloat(price)).
		IntPart()
	if quantity < 1 {
		return nil
	}

	fill, err := l.broker.SubmitMarketOrder(ctx, symbol, quantity, model.SideBuy)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"user_id": l.userID,
			"symbol":  symbol,
			"qty":     quantity,
		}).WithError(err).Error("Buy order failed")
		l.notifier.Sendf("❌ Buy order failed for %s: %v", symbol, err)
		return err
	}

	pos := &model.Position{
		Symbol:     symbol,
		Quantity:   quantity,
		EntryPrice: price,
		Side:       model.SideBuy,
		OpenedAt:   l.now(),
		OrderID:    fill.OrderID,
	}

	l.mu.Lock()
	l.positions[symbol] = append(l.positions[symbol], pos)
	l.stats.TotalTrades++
	l.stats.DailyTrades++
	l.mu.Unlock()

	l.notifier.Sendf(
		"📈 BUY EXECUTED\n\n"+
			"🎯 Symbol: %s\n"+
			"💰 Quantity: %d\n"+
			"💵 Price: $%.2f\n"+
			"💸 Value: $%.2f",
		symbol, quantity, price, float64(quantity)*price,
	)

	return nil
}

// Close sells the oldest open position for the symbol. Closing with
// no open position is a no-op.
func (l *Ledger) Close(ctx context.Context, symbol string, price float64) error {
	l.mu.Lock()
	open := l.positions[symbol]
	if len(open) == 0 {
		l.mu.Unlock()
		return nil
	}
	oldest := open[0]
	l.mu.Unlock()

	_, err := l.closePosition(ctx, oldest, price, model.CloseReasonSignal)
	return err
}

// CheckRisk evaluates every open position of the symbol against the
// stop-loss and take-profit thresholds and force-closes breaches.
// The two checks run independently; a close removes the position so
// at most one fires per position and cycle.
func (l *Ledger) CheckRisk(ctx context.Context, symbol string, currentPrice, stopLossPct, takeProfitPct float64) {
	l.mu.Lock()
	open := make([]*model.Position, len(l.positions[symbol]))
	copy(open, l.positions[symbol])
	l.mu.Unlock()

	current := decimal.NewFromFloat(currentPrice)
	hundred := decimal.NewFromInt(100)

	for _, pos := range open {
		entry := decimal.NewFromFloat(pos.EntryPrice)
		pctChange := current.Sub(entry).Div(entry).Mul(hundred)

		if pctChange.LessThanOrEqual(decimal.NewFromFloat(stopLossPct).Neg()) {
			if closed, _ := l.closePosition(ctx, pos, currentPrice, model.CloseReasonStopLoss); closed {
				l.notifier.Sendf("🛑 Stop loss triggered for %s", symbol)
			}
		}

		if pctChange.GreaterThanOrEqual(decimal.NewFromFloat(takeProfitPct)) {
			if closed, _ := l.closePosition(ctx, pos, currentPrice, model.CloseReasonTakeProfit); closed {
				l.notifier.Sendf("🎯 Take profit triggered for %s", symbol)
			}
		}
	}
}

// closePosition sells one specific position and realizes its P&L.
// The bool reports whether the position was actually closed; a
// position already removed earlier in the same cycle is a no-op.
func (l *Ledger) closePosition(ctx context.Context, pos *model.Position, price float64, reason string) (bool, error) {
	l.mu.Lock()
	if !l.holds(pos) {
		l.mu.Unlock()
		return false, nil
	}
	l.mu.Unlock()

	if _, err := l.broker.SubmitMarketOrder(ctx, pos.Symbol, pos.Quantity, model.SideSell); err != nil {
		logger.WithFields(map[string]interface{}{
			"user_id": l.userID,
			"symbol":  pos.Symbol,
			"qty":     pos.Quantity,
		}).WithError(err).Error("Sell order failed")
		l.notifier.Sendf("❌ Sell order failed for %s: %v", pos.Symbol, err)
		return false, err
	}

	pl := decimal.NewFromFloat(price).
		Sub(decimal.NewFromFloat(pos.EntryPrice)).
		Mul(decimal.NewFromInt(pos.Quantity))
	plValue, _ := pl.Float64()

	l.mu.Lock()
	l.remove(pos)
	l.stats.TotalPL += plValue
	l.stats.DailyPL += plValue
	l.stats.MonthlyPL += plValue
	if isWin(pl) {
		l.stats.Wins++
	} else {
		l.stats.Losses++
	}
	stats := l.stats
	l.mu.Unlock()

	emoji, result := "❌", "LOSS"
	if isWin(pl) {
		emoji, result = "✅", "PROFIT"
	}
	winRate := 0.0
	if stats.TotalTrades > 0 {
		winRate = float64(stats.Wins) / float64(stats.TotalTrades) * 100
	}
	l.notifier.Sendf(
		"%s SELL EXECUTED - %s\n\n"+
			"🎯 Symbol: %s\n"+
			"💰 Quantity: %d\n"+
			"📈 Entry price: $%.2f\n"+
			"📉 Exit price: $%.2f\n"+
			"💵 P&L: $%.2f\n"+
			"📊 Total P&L: $%.2f\n"+
			"🎯 Win rate: %.1f%%",
		emoji, result, pos.Symbol, pos.Quantity, pos.EntryPrice, price,
		plValue, stats.TotalPL, winRate,
	)

	if l.recorder != nil {
		trade := &model.Trade{
			UserID:     l.userID,
			Symbol:     pos.Symbol,
			Quantity:   pos.Quantity,
			EntryPrice: pos.EntryPrice,
			ExitPrice:  price,
			Pnl:        plValue,
			Reason:     reason,
			OpenedAt:   pos.OpenedAt,
			ClosedAt:   l.now(),
		}
		if err := l.recorder.RecordTrade(ctx, trade); err != nil {
			logger.WithField("user_id", l.userID).
				WithError(err).
				Warn("Failed to record closed trade")
		}
	}

	return true, nil
}

// isWin is the win/loss policy: only strictly positive P&L counts as
// a win, a flat close is booked as a loss.
func isWin(pl decimal.Decimal) bool {
	return pl.GreaterThan(decimal.Zero)
}

// holds reports whether the position is still open. Caller must hold
// the lock.
func (l *Ledger) holds(pos *model.Position) bool {
	for _, p := range l.positions[pos.Symbol] {
		if p == pos {
			return true
		}
	}
	return false
}

// remove drops the position from its symbol slice, preserving FIFO
// order of the rest. Caller must hold the lock.
func (l *Ledger) remove(pos *model.Position) {
	open := l.positions[pos.Symbol]
	for i, p := range open {
		if p == pos {
			l.positions[pos.Symbol] = append(open[:i], open[i+1:]...)
			return
		}
	}
}

// Stats returns a copy of the aggregate counters.
func (l *Ledger) Stats() model.Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// OpenPositionCount counts open positions across all symbols.
func (l *Ledger) OpenPositionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, open := range l.positions {
		n += len(open)
	}
	return n
}

// ResetDaily clears the per-day counters. Scheduling the reset is the
// caller's concern.
func (l *Ledger) ResetDaily() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats.DailyPL = 0
	l.stats.DailyTrades = 0
}

// ResetMonthly clears the per-month P&L.
func (l *Ledger) ResetMonthly() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats.MonthlyPL = 0
}
