package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradebotpro/src/database"
	"tradebotpro/src/model"
)

// TradeRepository is the closed-trade log. It satisfies the ledger's
// recorder interface so instances can write through it directly.
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new repository instance using the main read/write database.
func NewTradeRepository() *TradeRepository {
	logger.WithField("component", "TradeRepository").
		Info("Creating new TradeRepository with MainDB")

	return &TradeRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *TradeRepository) WithDB(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// RecordTrade inserts one closed round trip.
func (r *TradeRepository) RecordTrade(
	ctx context.Context,
	trade *model.Trade,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":    "TradeRepository",
		"op":      "RecordTrade",
		"user_id": trade.UserID,
		"symbol":  trade.Symbol,
		"pnl":     trade.Pnl,
	}).Debug("Recording closed trade")

	err := r.db.WithContext(ctx).Create(trade).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "TradeRepository",
			"op":   "RecordTrade",
		}).WithError(err).Error("Failed to record trade")
		return err
	}

	return nil
}

// ListByUser returns the user's most recently closed trades, newest
// first. A limit of 0 falls back to 50.
func (r *TradeRepository) ListByUser(
	ctx context.Context,
	userID string,
	limit int,
) ([]model.Trade, error) {

	if limit <= 0 {
		limit = 50
	}

	var trades []model.Trade
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("closed_at DESC").
		Limit(limit).
		Find(&trades).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "TradeRepository",
			"op":      "ListByUser",
			"user_id": userID,
		}).WithError(err).Error("Failed to list trades")
		return nil, err
	}

	return trades, nil
}
