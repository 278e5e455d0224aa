package runner

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	UserID    string `envconfig:"USER_ID"`
	APIKey    string `envconfig:"BROKER_API_KEY"`
	APISecret string `envconfig:"BROKER_API_SECRET"`

	Mode          string   `envconfig:"MODE" default:"paper"`
	Strategy      string   `envconfig:"STRATEGY" default:"sma_crossover"`
	Symbols       []string `envconfig:"SYMBOLS" default:"AAPL,TSLA"`
	TradeAmount   float64  `envconfig:"TRADE_AMOUNT" default:"1000"`
	StopLossPct   float64  `envconfig:"STOP_LOSS_PCT" default:"5"`
	TakeProfitPct float64  `envconfig:"TAKE_PROFIT_PCT" default:"10"`
	MaxTrades     int      `envconfig:"MAX_TRADES" default:"0"`

	TelegramToken string `envconfig:"TELEGRAM_TOKEN"`
	TelegramChat  int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
