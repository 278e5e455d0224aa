package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradebotpro/src/bot"
	"tradebotpro/src/database"
	"tradebotpro/src/repository"
	"tradebotpro/src/server"
)

var (
	PORT     = os.Getenv("SERVER_PORT")
	APP_NAME = os.Getenv("APP_NAME")
)

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()
	defer handlePanic()

	registry := bot.NewRegistry()

	// The API runs without a database; persistence of configs and the
	// trade log needs ENABLE_DB=true.
	if database.GetConfig().EnableDB {
		if err := database.InitMainDB(); err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		registry.WithRecorder(repository.NewTradeRepository())
	}

	server.StartServer(PORT, registry)
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
