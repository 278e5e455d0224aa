package model

import (
	"strings"
	"time"
)

// BotConfigRecord is the persisted form of a user's BotConfig.
// Broker credentials and the telegram token are stored encrypted,
// never in the clear.
type BotConfigRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"size:60;uniqueIndex" json:"user_id"`
	APIKeyHash    string    `gorm:"column:api_key;type:text" json:"-"`
	APISecretHash string    `gorm:"column:api_secret;type:text" json:"-"`
	Mode          string    `gorm:"size:10" json:"mode"`
	Strategy      string    `gorm:"size:50" json:"strategy"`
	Symbols       string    `gorm:"size:512" json:"symbols"`
	TradeAmount   float64   `json:"trade_amount"`
	StopLossPct   float64   `json:"stop_loss_pct"`
	TakeProfitPct float64   `json:"take_profit_pct"`
	MaxTrades     int       `json:"max_trades"`
	TelegramHash  string    `gorm:"column:telegram_token;type:text" json:"-"`
	TelegramChat  int64     `json:"telegram_chat"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (BotConfigRecord) TableName() string {
	return "bot_configs"
}

// SymbolList splits the stored comma separated symbol set.
func (r *BotConfigRecord) SymbolList() []string {
	if r.Symbols == "" {
		return nil
	}
	parts := strings.Split(r.Symbols, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// JoinSymbols is the inverse of SymbolList.
func JoinSymbols(symbols []string) string {
	return strings.Join(symbols, ",")
}
