package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"tradebotpro/src/bot"
	"tradebotpro/src/model"
)

func paperConfig() model.BotConfig {
	return model.BotConfig{
		APIKey:        "key",
		APISecret:     "secret",
		Mode:          model.ModePaper,
		Strategy:      "momentum",
		Symbols:       []string{"AAPL"},
		TradeAmount:   1000,
		StopLossPct:   5,
		TakeProfitPct: 10,
	}
}

func TestHealthHandler(t *testing.T) {
	registry := bot.NewRegistry()
	defer registry.StopAll()
	assert.NoError(t, registry.Start(context.Background(), "user-1", paperConfig()))

	startedAt := time.Now().Add(-30 * time.Second)
	rec := httptest.NewRecorder()
	HealthHandler(registry, startedAt).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "online", resp.Status)
	assert.Equal(t, 1, resp.ActiveBots)
	assert.Equal(t, 1, resp.TotalUsers)
	assert.GreaterOrEqual(t, resp.Uptime, 30.0)
}

func TestHealthHandler_EmptyRegistry(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(bot.NewRegistry(), time.Now()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp healthResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.ActiveBots)
	assert.Equal(t, 0, resp.TotalUsers)
}

func TestStatusStreamHandler(t *testing.T) {
	registry := bot.NewRegistry()
	defer registry.StopAll()
	assert.NoError(t, registry.Start(context.Background(), "user-1", paperConfig()))

	srv := httptest.NewServer(StatusStreamHandler(registry, 50*time.Millisecond))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var snaps map[string]model.StatusSnapshot
	assert.NoError(t, conn.ReadJSON(&snaps))

	snap, ok := snaps["user-1"]
	assert.True(t, ok)
	assert.True(t, snap.IsActive)

	// stream keeps pushing
	assert.NoError(t, conn.ReadJSON(&snaps))
}
