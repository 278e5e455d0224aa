// Package bot runs the autonomous trading loop, one Instance per
// user, and the Registry that owns all live instances.
package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradebotpro/src/connectors"
	"tradebotpro/src/ledger"
	"tradebotpro/src/model"
	"tradebotpro/src/notify"
	"tradebotpro/src/strategy"
)

// ErrUnknownStrategy rejects configs whose strategy id is not in the
// supported set.
var ErrUnknownStrategy = errors.New("unknown strategy")

const (
	// cycleMin/cycleMax bound the jittered pause between trading
	// cycles.
	cycleMin = 2 * time.Minute
	cycleMax = 5 * time.Minute

	// errorCooldown replaces the jittered pause after a cycle where
	// any symbol failed.
	errorCooldown = 5 * time.Minute

	// symbolDelay spaces out broker calls between symbols of the same
	// cycle.
	symbolDelay = 5 * time.Second
)

// sleepFunc pauses for d or until the context is done, returning
// ctx.Err() in the latter case. Swapped out in tests.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Instance is one user's running bot. Create with NewInstance, start
// with Start, stop with Stop. An instance is single use; restarting a
// user means building a fresh one.
type Instance struct {
	userID   string
	cfg      model.BotConfig
	strat    strategy.Strategy
	broker   connectors.BrokerClient
	notifier notify.Notifier
	book     *ledger.Ledger
	history  map[string]*PriceSeries

	now   func() time.Time
	sleep sleepFunc
	rng   *rand.Rand

	mu      sync.Mutex
	active  bool
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time
}

// NewInstance validates the config and wires the instance. Paper mode
// gets the synthetic broker, live mode the real one.
func NewInstance(userID string, cfg model.BotConfig) (*Instance, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bot config: %w", err)
	}

	strat := strategy.Parse(cfg.Strategy)
	if strat == strategy.Unknown {
		return nil, fmt.Errorf("%w %q", ErrUnknownStrategy, cfg.Strategy)
	}

	var broker connectors.BrokerClient
	if cfg.Mode == model.ModeLive {
		broker = connectors.NewAlpacaClient(cfg.APIKey, cfg.APISecret, "", false)
	} else {
		broker = connectors.NewPaperClient(time.Now().UnixNano())
	}

	notifier := notify.ForUser(userID, cfg.TelegramToken, cfg.TelegramChat)

	inst := &Instance{
		userID:   userID,
		cfg:      cfg,
		strat:    strat,
		broker:   broker,
		notifier: notifier,
		book:     ledger.New(userID, broker, notifier),
		history:  make(map[string]*PriceSeries),
		now:      time.Now,
		sleep:    sleepCtx,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	return inst, nil
}

// WithBroker replaces the broker on the instance and its ledger,
// keeping any recorder or clock already attached.
func (b *Instance) WithBroker(broker connectors.BrokerClient) *Instance {
	b.broker = broker
	b.book.WithBroker(broker)
	return b
}

// WithNotifier replaces the notification channel.
func (b *Instance) WithNotifier(n notify.Notifier) *Instance {
	b.notifier = n
	b.book.WithNotifier(n)
	return b
}

// WithRecorder attaches a trade log sink to the ledger.
func (b *Instance) WithRecorder(r ledger.Recorder) *Instance {
	b.book.WithRecorder(r)
	return b
}

// WithSleep overrides the pause primitive. Useful for tests.
func (b *Instance) WithSleep(sleep sleepFunc) *Instance {
	b.sleep = sleep
	return b
}

// WithClock overrides the time source.
func (b *Instance) WithClock(now func() time.Time) *Instance {
	b.now = now
	b.book.WithClock(now)
	return b
}

// Start launches the trading loop. Starting an already active
// instance is a no-op.
func (b *Instance) Start(ctx context.Context) {
	b.mu.Lock()
	if b.active {
		b.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	b.active = true
	b.cancel = cancel
	b.done = make(chan struct{})
	b.started = b.now()
	done := b.done
	b.mu.Unlock()

	logger.WithFields(map[string]interface{}{
		"user_id":  b.userID,
		"mode":     b.cfg.Mode,
		"strategy": string(b.strat),
		"symbols":  b.cfg.Symbols,
	}).Info("Bot started")
	b.notifier.Sendf("🚀 Bot started\n\nMode: %s\nStrategy: %s\nSymbols: %v",
		b.cfg.Mode, b.cfg.Strategy, b.cfg.Symbols)

	go func() {
		defer close(done)
		b.run(loopCtx)
	}()
}

// Stop cancels the loop and waits for it to exit. Idempotent.
func (b *Instance) Stop() {
	b.mu.Lock()
	if !b.active {
		b.mu.Unlock()
		return
	}
	b.active = false
	cancel := b.cancel
	done := b.done
	b.mu.Unlock()

	cancel()
	<-done

	logger.WithField("user_id", b.userID).Info("Bot stopped")
	b.notifier.Send("🛑 Bot stopped")
}

// IsActive reports whether the loop is running.
func (b *Instance) IsActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// ResetDaily clears the per-day trade counters, releasing the daily
// trade cap.
func (b *Instance) ResetDaily() {
	b.book.ResetDaily()
}

// ResetMonthly clears the per-month P&L.
func (b *Instance) ResetMonthly() {
	b.book.ResetMonthly()
}

// Status snapshots the instance for the API layer.
func (b *Instance) Status() model.StatusSnapshot {
	return model.StatusSnapshot{
		Stats:         b.book.Stats(),
		IsActive:      b.IsActive(),
		OpenPositions: b.book.OpenPositionCount(),
		Symbols:       b.cfg.Symbols,
	}
}

func (b *Instance) run(ctx context.Context) {
	for {
		failed := b.runCycle(ctx)
		if ctx.Err() != nil {
			return
		}

		pause := b.cyclePause()
		if failed {
			pause = errorCooldown
		}
		if err := b.sleep(ctx, pause); err != nil {
			return
		}
	}
}

// cyclePause draws a uniform pause between cycleMin and cycleMax so
// concurrent bots do not hammer the broker in lockstep.
func (b *Instance) cyclePause() time.Duration {
	return cycleMin + time.Duration(b.rng.Int63n(int64(cycleMax-cycleMin)))
}

// runCycle processes every symbol once. A symbol failure is reported
// to the user and the cycle moves on; the return value tells the loop
// to back off. A cycle under the daily trade cap is skipped outright.
func (b *Instance) runCycle(ctx context.Context) bool {
	if b.tradeCapReached() {
		logger.WithField("user_id", b.userID).
			Debug("Daily trade cap reached, skipping cycle")
		return false
	}

	failed := false
	for i, symbol := range b.cfg.Symbols {
		if ctx.Err() != nil {
			return failed
		}
		if i > 0 {
			if err := b.sleep(ctx, symbolDelay); err != nil {
				return failed
			}
		}
		if err := b.processSymbol(ctx, symbol); err != nil {
			failed = true
			logger.WithFields(map[string]interface{}{
				"user_id": b.userID,
				"symbol":  symbol,
			}).WithError(err).Error("Symbol cycle failed")
			b.notifier.Sendf("❌ Error processing %s: %v", symbol, err)
		}
	}
	return failed
}

func (b *Instance) processSymbol(ctx context.Context, symbol string) error {
	price, err := b.broker.GetLatestTrade(ctx, symbol)
	if err != nil {
		return fmt.Errorf("price fetch: %w", err)
	}

	series, ok := b.history[symbol]
	if !ok {
		series = NewPriceSeries()
		b.history[symbol] = series
	}
	series.Append(price)

	// act on the signal first, then sweep what is still open against
	// the stop-loss / take-profit thresholds
	var actErr error
	if series.Len() >= b.strat.MinHistory() {
		switch strategy.Evaluate(b.strat, series.Values()) {
		case model.SignalBuy:
			if b.tradeCapReached() {
				logger.WithField("user_id", b.userID).
					Debug("Daily trade cap reached, skipping buy")
				break
			}
			actErr = b.book.Open(ctx, symbol, price, b.cfg.TradeAmount)
		case model.SignalSell:
			actErr = b.book.Close(ctx, symbol, price)
		}
	}

	b.book.CheckRisk(ctx, symbol, price, b.cfg.StopLossPct, b.cfg.TakeProfitPct)

	return actErr
}

// tradeCapReached applies the daily trade cap to new entries only;
// closes and risk exits always go through.
func (b *Instance) tradeCapReached() bool {
	return b.cfg.MaxTrades > 0 && b.book.Stats().DailyTrades >= b.cfg.MaxTrades
}
