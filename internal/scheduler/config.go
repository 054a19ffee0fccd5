package scheduler

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Interval time.Duration `envconfig:"POLL_INTERVAL" default:"20m"`
	RedisURL string        `envconfig:"REDIS_URL"`
}

func GetConfig() Config {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		panic(err)
	}

	return *cfg
}
