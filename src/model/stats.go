package model

// Stats aggregates realized results for one bot instance. All fields
// are mutated on position close only; the daily/monthly resets are
// driven externally through the ledger reset hooks.
type Stats struct {
	TotalTrades int     `json:"totalTrades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	TotalPL     float64 `json:"totalPL"`
	DailyPL     float64 `json:"dailyPL"`
	MonthlyPL   float64 `json:"monthlyPL"`
	DailyTrades int     `json:"dailyTrades"`
}

// StatusSnapshot is what the API layer sees for one user.
type StatusSnapshot struct {
	Stats
	IsActive      bool     `json:"isActive"`
	OpenPositions int      `json:"openPositions"`
	Symbols       []string `json:"symbols"`
}
