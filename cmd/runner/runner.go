// Package runner drives a single bot from environment configuration,
// without the HTTP layer. Meant for one-user deployments and
// supervised processes.
package runner

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"tradebotpro/src/bot"
	"tradebotpro/src/database"
	"tradebotpro/src/model"
	"tradebotpro/src/repository"
)

type Runner struct{}

func (t *Runner) Start() error {
	config := GetConfig()

	if config.UserID == "" {
		return errors.New("USER_ID not set")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	cfg := model.BotConfig{
		APIKey:        config.APIKey,
		APISecret:     config.APISecret,
		Mode:          config.Mode,
		Strategy:      config.Strategy,
		Symbols:       config.Symbols,
		TradeAmount:   config.TradeAmount,
		StopLossPct:   config.StopLossPct,
		TakeProfitPct: config.TakeProfitPct,
		MaxTrades:     config.MaxTrades,
		TelegramToken: config.TelegramToken,
		TelegramChat:  config.TelegramChat,
	}

	inst, err := bot.NewInstance(config.UserID, cfg)
	if err != nil {
		logrus.WithError(err).Error("Failed to build bot instance")
		return err
	}

	if database.GetConfig().EnableDB {
		if err := database.InitMainDB(); err != nil {
			logrus.WithError(err).Fatal("Failed to connect to main database")
			return err
		}
		inst.WithRecorder(repository.NewTradeRepository())
	}

	logrus.WithFields(map[string]interface{}{
		"user_id":  config.UserID,
		"mode":     config.Mode,
		"strategy": config.Strategy,
	}).Info("Starting bot runner")

	inst.Start(ctx)
	<-ctx.Done()
	inst.Stop()

	return nil
}
