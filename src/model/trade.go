package model

import "time"

const (
	CloseReasonSignal     = "signal"
	CloseReasonStopLoss   = "stop_loss"
	CloseReasonTakeProfit = "take_profit"
)

// Trade is one closed round trip, written to the trade log when a
// position is closed.
type Trade struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"size:60;index" json:"user_id"`
	Symbol     string    `gorm:"size:20" json:"symbol"`
	Quantity   int64     `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Pnl        float64   `json:"pnl"`
	Reason     string    `gorm:"size:20" json:"reason"`
	OpenedAt   time.Time `json:"opened_at"`
	ClosedAt   time.Time `json:"closed_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Trade) TableName() string {
	return "trades"
}
