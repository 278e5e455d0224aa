package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"tradebotpro/cmd/runner"
	"tradebotpro/src/bot"
	"tradebotpro/src/database"
	"tradebotpro/src/repository"
	"tradebotpro/src/server"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "TradingBot Pro CMD"
	app.Usage = "The TradingBot Pro command line interface"

	app.Commands = []cli.Command{
		serverCMD,
		runnerCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serverCMD = cli.Command{
		Name:        "server",
		Usage:       "run the HTTP API",
		Action:      serverAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the multi-user bot API server`,
	}
	runnerCMD = cli.Command{
		Name:        "runner",
		Usage:       "run a single bot from env config",
		Action:      runnerAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run one bot without the HTTP layer`,
	}
)

func serverAction(_ *cli.Context) error {
	logrus.Info("Starting server CMD")

	registry := bot.NewRegistry()

	if database.GetConfig().EnableDB {
		if err := database.InitMainDB(); err != nil {
			logrus.WithError(err).Fatal("Failed to connect to database")
		}
		registry.WithRecorder(repository.NewTradeRepository())
	}

	server.StartServer(os.Getenv("SERVER_PORT"), registry)
	return nil
}

func runnerAction(_ *cli.Context) error {
	logrus.Info("Starting runner CMD")

	r := &runner.Runner{}
	if err := r.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
