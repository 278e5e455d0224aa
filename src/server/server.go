package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"tradebotpro/src/bot"
	"tradebotpro/src/database"
	"tradebotpro/src/handler"
	"tradebotpro/src/repository"
)

func persistenceUnavailable(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "persistence disabled", http.StatusServiceUnavailable)
}

// StartServer runs the HTTP API until SIGINT/SIGTERM, then shuts down
// gracefully and stops every running bot.
func StartServer(port string, registry *bot.Registry) {
	config := GetConfig()
	if port == "" {
		port = config.Port
	}

	startedAt := time.Now()

	// Router with middleware
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/healthcheck write error")
		}
	})
	r.Get("/health", HealthHandler(registry, startedAt))
	r.Get("/ws/status", StatusStreamHandler(registry, config.StatusPushInterval))

	// Config persistence needs the database; without it the two
	// endpoints answer 503 instead of crashing on a nil connection.
	saveConfig, loadConfig, tradeHistory := persistenceUnavailable, persistenceUnavailable, persistenceUnavailable
	if database.MainDB != nil {
		configRepo := repository.NewBotConfigRepository()
		saveConfig = handler.SaveConfigHandler(configRepo)
		loadConfig = handler.LoadConfigHandler(configRepo)
		tradeHistory = handler.TradeHistoryHandler(repository.NewTradeRepository())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/start-bot", handler.StartBotHandler(registry))
		r.Post("/stop-bot", handler.StopBotHandler(registry))
		r.Get("/bot-status/{userId}", handler.BotStatusHandler(registry))
		r.Post("/save-config", saveConfig)
		r.Get("/load-config/{userId}", loadConfig)
		r.Get("/trade-history/{userId}", tradeHistory)
	})

	// Graceful server
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")

	registry.StopAll()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
