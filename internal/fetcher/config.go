package fetcher

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	MaxAttempts int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"5"`
	BaseDelay   time.Duration `envconfig:"RETRY_BASE_DELAY" default:"1s"`
	CapDelay    time.Duration `envconfig:"RETRY_CAP_DELAY" default:"1m"`
}

func GetConfig() Config {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		panic(err)
	}

	return *cfg
}
