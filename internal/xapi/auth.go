package xapi

import (
	"context"
	"net/http"
	"os"

	jsoniter "github.com/json-iterator/go"
	twitterscraper "github.com/lueurxax/twitter-scraper"

	"github.com/lueurxax/courtside/internal/log"
)

const loginKey = "login"

// Auth logs the scraper in from the configured credentials, reusing the cookie
// file across restarts when one is configured. Missing credentials are logged
// and tolerated: the scraper keeps working unauthenticated until the upstream
// decides otherwise.
func Auth(ctx context.Context, scraper *twitterscraper.Scraper, cfg Config, logger log.Logger) error {
	if cfg.Login == "" {
		logger.Warn("no upstream credentials configured, scraping unauthenticated")
		return nil
	}

	if cfg.CookiesFilename != "" {
		cookies, err := readCookies(cfg.CookiesFilename)
		if err != nil {
			logger.WithError(err).WithField(loginKey, cfg.Login).Warn("read cookies")
		} else {
			scraper.SetCookies(cookies)
		}
	}

	if !scraper.IsLoggedIn(ctx) {
		if err := login(ctx, scraper, cfg); err != nil {
			logger.WithError(err).WithField(loginKey, cfg.Login).Error("error while login")
			return err
		}
	}

	if cfg.CookiesFilename != "" {
		if err := writeCookies(cfg.CookiesFilename, scraper.GetCookies()); err != nil {
			logger.WithError(err).WithField(loginKey, cfg.Login).Warn("save cookies")
		}
	}

	return nil
}

func login(ctx context.Context, scraper *twitterscraper.Scraper, cfg Config) error {
	if cfg.Confirmation == "" {
		return scraper.Login(ctx, cfg.Login, cfg.Password)
	}

	return scraper.Login(ctx, cfg.Login, cfg.Password, cfg.Confirmation)
}

func readCookies(filename string) ([]*http.Cookie, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	cookies := make([]*http.Cookie, 0)
	if err = jsoniter.Unmarshal(data, &cookies); err != nil {
		return nil, err
	}

	return cookies, nil
}

func writeCookies(filename string, cookies []*http.Cookie) error {
	data, err := jsoniter.Marshal(cookies)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0o600)
}
