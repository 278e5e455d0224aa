package security

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// CredentialsKey is the base64 encoded 256 bit key protecting
	// broker credentials at rest. The default is for local
	// development only.
	CredentialsKey string `envconfig:"CREDENTIALS_KEY" default:"Pjk+k4hske5KkKtbaKSVDOgpllRl+0EI6oCAdx88XqI="`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
