package api

import "github.com/kelseyhightower/envconfig"

type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":3002"`
}

func GetConfig() Config {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		panic(err)
	}

	return *cfg
}
