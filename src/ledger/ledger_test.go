package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tradebotpro/src/connectors"
	"tradebotpro/src/model"
)

type stubBroker struct {
	orders    []submittedOrder
	submitErr error
}

type submittedOrder struct {
	Symbol   string
	Quantity int64
	Side     string
}

func (b *stubBroker) GetLatestTrade(_ context.Context, _ string) (float64, error) {
	return 0, errors.New("not used")
}

func (b *stubBroker) SubmitMarketOrder(_ context.Context, symbol string, quantity int64, side string) (*connectors.OrderFill, error) {
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	b.orders = append(b.orders, submittedOrder{symbol, quantity, side})
	return &connectors.OrderFill{OrderID: fmt.Sprintf("order-%d", len(b.orders)), Status: "filled"}, nil
}

type captureNotifier struct {
	messages []string
}

func (n *captureNotifier) Send(msg string) { n.messages = append(n.messages, msg) }
func (n *captureNotifier) Sendf(format string, args ...any) {
	n.Send(fmt.Sprintf(format, args...))
}

func (n *captureNotifier) contains(substr string) bool {
	for _, m := range n.messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

type stubRecorder struct {
	trades []*model.Trade
	err    error
}

func (r *stubRecorder) RecordTrade(_ context.Context, trade *model.Trade) error {
	if r.err != nil {
		return r.err
	}
	r.trades = append(r.trades, trade)
	return nil
}

func newTestLedger() (*Ledger, *stubBroker, *captureNotifier) {
	broker := &stubBroker{}
	notifier := &captureNotifier{}
	l := New("user-1", broker, notifier).
		WithClock(func() time.Time { return time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC) })
	return l, broker, notifier
}

func TestOpen_QuantityFloorsBudget(t *testing.T) {
	l, broker, _ := newTestLedger()

	assert.NoError(t, l.Open(context.Background(), "AAPL", 334, 1000))

	assert.Equal(t, 1, l.OpenPositionCount())
	assert.Equal(t, int64(2), broker.orders[0].Quantity)
	assert.Equal(t, model.SideBuy, broker.orders[0].Side)

	stats := l.Stats()
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 1, stats.DailyTrades)
}

func TestOpen_BudgetTooSmallIsNoop(t *testing.T) {
	l, broker, notifier := newTestLedger()

	assert.NoError(t, l.Open(context.Background(), "AAPL", 334, 100))

	assert.Equal(t, 0, l.OpenPositionCount())
	assert.Empty(t, broker.orders)
	assert.Empty(t, notifier.messages)
	assert.Equal(t, 0, l.Stats().TotalTrades)
}

func TestOpen_BrokerFailureCreatesNoPosition(t *testing.T) {
	l, broker, notifier := newTestLedger()
	broker.submitErr = errors.New("rejected")

	err := l.Open(context.Background(), "AAPL", 100, 1000)

	assert.Error(t, err)
	assert.Equal(t, 0, l.OpenPositionCount())
	assert.Equal(t, 0, l.Stats().TotalTrades)
	assert.True(t, notifier.contains("Buy order failed"))
}

func TestClose_RealizesProfit(t *testing.T) {
	l, _, notifier := newTestLedger()
	ctx := context.Background()

	assert.NoError(t, l.Open(ctx, "AAPL", 100, 1000)) // qty 10
	assert.NoError(t, l.Close(ctx, "AAPL", 110))

	stats := l.Stats()
	assert.Equal(t, 100.0, stats.TotalPL)
	assert.Equal(t, 100.0, stats.DailyPL)
	assert.Equal(t, 100.0, stats.MonthlyPL)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 0, stats.Losses)
	assert.Equal(t, 0, l.OpenPositionCount())
	assert.True(t, notifier.contains("PROFIT"))
}

func TestClose_FlatCloseCountsAsLoss(t *testing.T) {
	l, _, _ := newTestLedger()
	ctx := context.Background()

	assert.NoError(t, l.Open(ctx, "AAPL", 100, 1000))
	assert.NoError(t, l.Close(ctx, "AAPL", 100))

	stats := l.Stats()
	assert.Equal(t, 0.0, stats.TotalPL)
	assert.Equal(t, 0, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
}

func TestClose_NoPositionIsNoop(t *testing.T) {
	l, broker, _ := newTestLedger()

	assert.NoError(t, l.Close(context.Background(), "AAPL", 100))
	assert.Empty(t, broker.orders)
}

func TestClose_FIFOOrder(t *testing.T) {
	l, _, _ := newTestLedger()
	ctx := context.Background()

	assert.NoError(t, l.Open(ctx, "AAPL", 100, 500)) // qty 5, oldest
	assert.NoError(t, l.Open(ctx, "AAPL", 200, 400)) // qty 2

	assert.NoError(t, l.Close(ctx, "AAPL", 150))

	// oldest entry (100) closed first: pl = 50 * 5
	stats := l.Stats()
	assert.Equal(t, 250.0, stats.TotalPL)
	assert.Equal(t, 1, l.OpenPositionCount())

	assert.NoError(t, l.Close(ctx, "AAPL", 150))
	assert.Equal(t, 250.0-100.0, l.Stats().TotalPL) // second: (150-200)*2
	assert.Equal(t, 0, l.OpenPositionCount())
}

func TestCheckRisk_StopLossBoundary(t *testing.T) {
	tests := []struct {
		name         string
		currentPrice float64
		wantClosed   bool
	}{
		{"just past the stop", 94.99, true},
		{"just inside the stop", 95.01, false},
		{"exactly at the stop", 95.00, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, notifier := newTestLedger()
			ctx := context.Background()
			assert.NoError(t, l.Open(ctx, "AAPL", 100, 1000))

			l.CheckRisk(ctx, "AAPL", tt.currentPrice, 5, 10)

			if tt.wantClosed {
				assert.Equal(t, 0, l.OpenPositionCount())
				assert.True(t, notifier.contains("Stop loss triggered"))
				assert.Equal(t, 1, l.Stats().Losses)
			} else {
				assert.Equal(t, 1, l.OpenPositionCount())
				assert.False(t, notifier.contains("Stop loss triggered"))
			}
		})
	}
}

func TestCheckRisk_TakeProfitBoundary(t *testing.T) {
	tests := []struct {
		name         string
		currentPrice float64
		wantClosed   bool
	}{
		{"just past the target", 110.01, true},
		{"just under the target", 109.99, false},
		{"exactly at the target", 110.00, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, notifier := newTestLedger()
			ctx := context.Background()
			assert.NoError(t, l.Open(ctx, "AAPL", 100, 1000))

			l.CheckRisk(ctx, "AAPL", tt.currentPrice, 5, 10)

			if tt.wantClosed {
				assert.Equal(t, 0, l.OpenPositionCount())
				assert.True(t, notifier.contains("Take profit triggered"))
				assert.Equal(t, 1, l.Stats().Wins)
			} else {
				assert.Equal(t, 1, l.OpenPositionCount())
				assert.False(t, notifier.contains("Take profit triggered"))
			}
		})
	}
}

func TestCheckRisk_StopOutDoesNotAlsoTakeProfit(t *testing.T) {
	l, _, notifier := newTestLedger()
	ctx := context.Background()
	assert.NoError(t, l.Open(ctx, "AAPL", 100, 1000))

	// absurd thresholds where both conditions hold at once; the first
	// close must win and the second check must stay silent
	l.CheckRisk(ctx, "AAPL", 80, 5, -30)

	assert.Equal(t, 0, l.OpenPositionCount())
	assert.True(t, notifier.contains("Stop loss triggered"))
	assert.False(t, notifier.contains("Take profit triggered"))
}

func TestCheckRisk_ChecksEveryPosition(t *testing.T) {
	l, _, _ := newTestLedger()
	ctx := context.Background()

	assert.NoError(t, l.Open(ctx, "AAPL", 100, 300)) // entry 100
	assert.NoError(t, l.Open(ctx, "AAPL", 130, 260)) // entry 130

	// 94: -6% from 100 (stopped out), -27.7% from 130 (stopped out)
	l.CheckRisk(ctx, "AAPL", 94, 5, 10)
	assert.Equal(t, 0, l.OpenPositionCount())
	assert.Equal(t, 2, l.Stats().Losses)
}

func TestClose_RecordsTrade(t *testing.T) {
	l, _, _ := newTestLedger()
	recorder := &stubRecorder{}
	l.WithRecorder(recorder)
	ctx := context.Background()

	assert.NoError(t, l.Open(ctx, "TSLA", 200, 1000)) // qty 5
	assert.NoError(t, l.Close(ctx, "TSLA", 210))

	if assert.Len(t, recorder.trades, 1) {
		trade := recorder.trades[0]
		assert.Equal(t, "user-1", trade.UserID)
		assert.Equal(t, "TSLA", trade.Symbol)
		assert.Equal(t, int64(5), trade.Quantity)
		assert.Equal(t, 200.0, trade.EntryPrice)
		assert.Equal(t, 210.0, trade.ExitPrice)
		assert.Equal(t, 50.0, trade.Pnl)
		assert.Equal(t, model.CloseReasonSignal, trade.Reason)
	}
}

func TestClose_RecorderFailureIsSwallowed(t *testing.T) {
	l, _, _ := newTestLedger()
	l.WithRecorder(&stubRecorder{err: errors.New("db down")})
	ctx := context.Background()

	assert.NoError(t, l.Open(ctx, "TSLA", 200, 1000))
	assert.NoError(t, l.Close(ctx, "TSLA", 210))
	assert.Equal(t, 50.0, l.Stats().TotalPL)
}

func TestResetHooks(t *testing.T) {
	l, _, _ := newTestLedger()
	ctx := context.Background()

	assert.NoError(t, l.Open(ctx, "AAPL", 100, 1000))
	assert.NoError(t, l.Close(ctx, "AAPL", 110))

	l.ResetDaily()
	stats := l.Stats()
	assert.Equal(t, 0.0, stats.DailyPL)
	assert.Equal(t, 0, stats.DailyTrades)
	assert.Equal(t, 100.0, stats.TotalPL)
	assert.Equal(t, 100.0, stats.MonthlyPL)

	l.ResetMonthly()
	assert.Equal(t, 0.0, l.Stats().MonthlyPL)
	assert.Equal(t, 100.0, l.Stats().TotalPL)
}
