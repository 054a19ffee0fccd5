package xapi

import "github.com/kelseyhightower/envconfig"

type Config struct {
	Login           string `envconfig:"X_LOGIN"`
	Password        string `envconfig:"X_PASSWORD"`
	Confirmation    string `envconfig:"X_CONFIRMATION"`
	CookiesFilename string `envconfig:"X_COOKIES_FILE"`
}

func GetConfig() Config {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		panic(err)
	}

	return *cfg
}
