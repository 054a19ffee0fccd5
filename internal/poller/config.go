package poller

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Accounts     []string      `envconfig:"ACCOUNTS" default:"NBA,espn"`
	MaxTweets    int           `envconfig:"MAX_TWEETS" default:"20"`
	AccountDelay time.Duration `envconfig:"ACCOUNT_DELAY" default:"15s"`
}

func GetConfig() Config {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		panic(err)
	}

	return *cfg
}
