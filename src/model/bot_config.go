package model

import "errors"

const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// BotConfig is the immutable-per-run configuration of one bot
// instance. Changing it requires stopping and recreating the bot.
type BotConfig struct {
	APIKey    string `json:"apiKey"`
	APISecret string `json:"secretKey"`

	Mode          string   `json:"mode"`
	Strategy      string   `json:"strategy"`
	Symbols       []string `json:"symbols"`
	TradeAmount   float64  `json:"tradeAmount"`
	StopLossPct   float64  `json:"stopLoss"`
	TakeProfitPct float64  `json:"takeProfit"`
	MaxTrades     int      `json:"maxTrades"`

	TelegramToken string `json:"telegramToken,omitempty"`
	TelegramChat  int64  `json:"chatId,omitempty"`
}

var (
	ErrMissingCredentials = errors.New("api key and secret are required")
	ErrNoSymbols          = errors.New("at least one symbol is required")
	ErrInvalidMode        = errors.New("mode must be paper or live")
	ErrInvalidBudget      = errors.New("trade amount must be positive")
)

// Validate reports configuration failures that must surface to the
// caller of StartBot before any instance is created.
func (c *BotConfig) Validate() error {
	if c.APIKey == "" || c.APISecret == "" {
		return ErrMissingCredentials
	}
	if c.Mode != ModePaper && c.Mode != ModeLive {
		return ErrInvalidMode
	}
	if len(c.Symbols) == 0 {
		return ErrNoSymbols
	}
	if c.TradeAmount <= 0 {
		return ErrInvalidBudget
	}
	return nil
}
