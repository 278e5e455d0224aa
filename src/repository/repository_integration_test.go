package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tradebotpro/src/model"
)

// newSQLiteDB opens an in-memory database with the real schema so the
// repositories can be exercised end to end, encryption included.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.BotConfigRecord{}, &model.Trade{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func TestBotConfigRepositorySaveThenLoad(t *testing.T) {
	db := newSQLiteDB(t)
	repo := (&BotConfigRepository{}).WithDB(db)
	ctx := context.Background()

	cfg := model.BotConfig{
		APIKey:        "PKTEST",
		APISecret:     "SKTEST",
		Mode:          model.ModePaper,
		Strategy:      "sma_crossover",
		Symbols:       []string{"AAPL", "MSFT"},
		TradeAmount:   1000,
		StopLossPct:   5,
		TakeProfitPct: 10,
		MaxTrades:     20,
	}

	if err := repo.Save(ctx, "user-1", cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// credentials must not be stored in the clear
	var record model.BotConfigRecord
	if err := db.First(&record, "user_id = ?", "user-1").Error; err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if record.APIKeyHash == "PKTEST" || record.APISecretHash == "SKTEST" {
		t.Fatal("credentials persisted unencrypted")
	}

	loaded, err := repo.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a config, got nil")
	}
	if loaded.APIKey != cfg.APIKey || loaded.APISecret != cfg.APISecret {
		t.Fatalf("credentials did not round trip: %+v", loaded)
	}
	if len(loaded.Symbols) != 2 || loaded.Symbols[1] != "MSFT" {
		t.Fatalf("symbols did not round trip: %+v", loaded.Symbols)
	}
}

func TestBotConfigRepositorySaveOverwrites(t *testing.T) {
	db := newSQLiteDB(t)
	repo := (&BotConfigRepository{}).WithDB(db)
	ctx := context.Background()

	first := model.BotConfig{
		APIKey: "k1", APISecret: "s1", Mode: model.ModePaper,
		Strategy: "momentum", Symbols: []string{"AAPL"}, TradeAmount: 100,
	}
	second := first
	second.Strategy = "rsi_oversold"
	second.TradeAmount = 250

	if err := repo.Save(ctx, "user-1", first); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := repo.Save(ctx, "user-1", second); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	var count int64
	db.Model(&model.BotConfigRecord{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single record per user, got %d", count)
	}

	loaded, err := repo.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Strategy != "rsi_oversold" || loaded.TradeAmount != 250 {
		t.Fatalf("save did not overwrite: %+v", loaded)
	}
}

func TestTradeRepositoryRoundTrip(t *testing.T) {
	db := newSQLiteDB(t)
	repo := (&TradeRepository{}).WithDB(db)
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	for i, pnl := range []float64{100, -25, 40} {
		trade := &model.Trade{
			UserID:     "user-1",
			Symbol:     "AAPL",
			Quantity:   10,
			EntryPrice: 100,
			ExitPrice:  100 + pnl/10,
			Pnl:        pnl,
			Reason:     model.CloseReasonSignal,
			OpenedAt:   base,
			ClosedAt:   base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.RecordTrade(ctx, trade); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	trades, err := repo.ListByUser(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected limit to apply, got %d trades", len(trades))
	}
	if trades[0].Pnl != 40 {
		t.Fatalf("expected newest trade first, got %+v", trades[0])
	}

	other, err := repo.ListByUser(ctx, "someone-else", 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no trades for other user, got %d", len(other))
	}
}
