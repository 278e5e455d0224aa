package repository

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradebotpro/src/database"
	"tradebotpro/src/model"
	"tradebotpro/src/security"
)

// BotConfigRepository persists per-user bot configurations. Broker
// credentials and the telegram token are encrypted on the way in and
// decrypted on the way out; the database never sees them in the clear.
type BotConfigRepository struct {
	db *gorm.DB
}

// NewBotConfigRepository creates a new repository instance using the main read/write database.
func NewBotConfigRepository() *BotConfigRepository {
	logger.WithField("component", "BotConfigRepository").
		Info("Creating new BotConfigRepository with MainDB")

	return &BotConfigRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *BotConfigRepository) WithDB(db *gorm.DB) *BotConfigRepository {
	return &BotConfigRepository{db: db}
}

// Save upserts the user's configuration.
func (r *BotConfigRepository) Save(
	ctx context.Context,
	userID string,
	cfg model.BotConfig,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":    "BotConfigRepository",
		"op":      "Save",
		"user_id": userID,
	}).Debug("Saving bot config")

	keyHash, err := security.EncryptString(cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt api key: %w", err)
	}
	secretHash, err := security.EncryptString(cfg.APISecret)
	if err != nil {
		return fmt.Errorf("failed to encrypt api secret: %w", err)
	}
	telegramHash := ""
	if cfg.TelegramToken != "" {
		telegramHash, err = security.EncryptString(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("failed to encrypt telegram token: %w", err)
		}
	}

	record := model.BotConfigRecord{
		UserID:        userID,
		APIKeyHash:    keyHash,
		APISecretHash: secretHash,
		Mode:          cfg.Mode,
		Strategy:      cfg.Strategy,
		Symbols:       model.JoinSymbols(cfg.Symbols),
		TradeAmount:   cfg.TradeAmount,
		StopLossPct:   cfg.StopLossPct,
		TakeProfitPct: cfg.TakeProfitPct,
		MaxTrades:     cfg.MaxTrades,
		TelegramHash:  telegramHash,
		TelegramChat:  cfg.TelegramChat,
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&record).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "BotConfigRepository",
			"op":      "Save",
			"user_id": userID,
		}).WithError(err).Error("Failed to save bot config")
		return err
	}

	return nil
}

// Load fetches and decrypts the user's configuration.
// Returns (nil, nil) if the user has no saved config.
func (r *BotConfigRepository) Load(
	ctx context.Context,
	userID string,
) (*model.BotConfig, error) {

	var record model.BotConfigRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "BotConfigRepository",
			"op":      "Load",
			"user_id": userID,
		}).WithError(err).Error("Failed to load bot config")
		return nil, err
	}

	apiKey, err := security.DecryptString(record.APIKeyHash)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt api key: %w", err)
	}
	apiSecret, err := security.DecryptString(record.APISecretHash)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt api secret: %w", err)
	}
	telegramToken := ""
	if record.TelegramHash != "" {
		telegramToken, err = security.DecryptString(record.TelegramHash)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt telegram token: %w", err)
		}
	}

	return &model.BotConfig{
		APIKey:        apiKey,
		APISecret:     apiSecret,
		Mode:          record.Mode,
		Strategy:      record.Strategy,
		Symbols:       record.SymbolList(),
		TradeAmount:   record.TradeAmount,
		StopLossPct:   record.StopLossPct,
		TakeProfitPct: record.TakeProfitPct,
		MaxTrades:     record.MaxTrades,
		TelegramToken: telegramToken,
		TelegramChat:  record.TelegramChat,
	}, nil
}
