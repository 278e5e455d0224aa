package server

import (
	"encoding/json"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradebotpro/src/bot"
)

type healthResponse struct {
	Status     string  `json:"status"`
	ActiveBots int     `json:"activeBots"`
	TotalUsers int     `json:"totalUsers"`
	Uptime     float64 `json:"uptime"`
}

// HealthHandler reports process status plus the live bot counts.
func HealthHandler(registry *bot.Registry, startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:     "online",
			ActiveBots: registry.ActiveCount(),
			TotalUsers: registry.TotalUsers(),
			Uptime:     time.Since(startedAt).Seconds(),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.WithError(err).Error("failed to encode health response")
		}
	}
}
