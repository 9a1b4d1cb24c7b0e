package main

import (
	"time"

	"dividend-backend/internal/components/sqliteutil"
	"dividend-backend/internal/components/telemetry"
	"dividend-backend/internal/notify"
	"dividend-backend/internal/scraper"
	"dividend-backend/internal/scraper/yahoo"
)

type ScraperConfig struct {
	Layout    yahoo.Layout `json:"layout"`
	UserAgent string       `json:"user_agent"`
	// FetchTimeoutSeconds bounds every page fetch, 0 keeps the transport default.
	FetchTimeoutSeconds int  `json:"fetch_timeout_seconds"`
	CloudflareBypass    bool `json:"cloudflare_bypass"`
}

func (c ScraperConfig) fetcherOptions() []scraper.FetcherOption {
	var opts []scraper.FetcherOption
	if c.UserAgent != "" {
		opts = append(opts, scraper.WithUserAgent(c.UserAgent))
	}
	if c.FetchTimeoutSeconds > 0 {
		opts = append(opts, scraper.WithTimeout(time.Duration(c.FetchTimeoutSeconds)*time.Second))
	}
	if c.CloudflareBypass {
		opts = append(opts, scraper.WithCloudflareBypass())
	}
	return opts
}

type ServerConfig struct {
	Port int `json:"port"`
	// AccessToken guards AddCompany, DeleteCompany and Refresh, leave empty to disable.
	AccessToken string `json:"access_token"`
	// RefreshCron is a cron spec for re-scraping every stored company, leave empty to disable.
	RefreshCron     string `json:"refresh_cron"`
	RefreshParallel int    `json:"refresh_parallel"`
	// RefreshTimezone is the IANA location RefreshCron is evaluated in.
	RefreshTimezone string `json:"refresh_timezone"`
}

type Config struct {
	Database  sqliteutil.Config `json:"database"`
	Scraper   ScraperConfig     `json:"scraper"`
	Server    ServerConfig      `json:"server"`
	Smtp      notify.SmtpConfig `json:"smtp"`
	Telemetry telemetry.Config  `json:"telemetry"`
}

func defaultConfig() Config {
	return Config{
		Database: sqliteutil.Config{File: "state.db"},
		Scraper: ScraperConfig{
			Layout: yahoo.DefaultLayout(),
		},
		Server: ServerConfig{
			Port:            8444,
			RefreshCron:     "0 6 * * *",
			RefreshParallel: 4,
			RefreshTimezone: "UTC",
		},
	}
}
