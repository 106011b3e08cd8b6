package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the filedrop CLI.
//
// Units: durations are time.Duration; on the command line they are given in
// whole seconds.
type Config struct {
	APIBaseURL     string
	APIKey         string
	UserID         string
	SettleDelay    time.Duration
	PollInterval   time.Duration
	PollAttempts   int
	RequestTimeout time.Duration
	CacheDSN       string
	DownloadDir    string
	LogLevel       string
}

// LoadDefaults populates c with the built-in defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:4000"
	c.APIKey = ""
	c.UserID = ""
	c.SettleDelay = 3 * time.Second
	c.PollInterval = time.Second
	c.PollAttempts = 5
	c.RequestTimeout = 30 * time.Second
	c.CacheDSN = "filedrop.db"
	c.DownloadDir = "download"
	c.LogLevel = "info"
}

// LoadConfig builds a Config from os.Args; see Load.
func LoadConfig() *Config {
	return Load(os.Args[1:])
}

// Load constructs a Config, applies defaults, then overlays values from
// JSON (if -c/-config names a file) and command-line flags. Later sources take
// precedence over earlier ones. Malformed input panics.
func Load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
