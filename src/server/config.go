package server

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port string `envconfig:"PORT" default:"3000"`

	// StatusPushInterval paces the websocket status stream.
	StatusPushInterval time.Duration `envconfig:"STATUS_PUSH_INTERVAL" default:"5s"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
