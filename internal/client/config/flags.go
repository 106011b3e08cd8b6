package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/filedrop/internal/flagx"
)

var knownFlags = []string{"-a", "-k", "-u", "-s", "-i", "-n", "-t", "-db", "-o", "-l"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   files API base URL
//	-k string   API key sent as x-api-key
//	-u string   user id attached to uploads
//	-s int      settle delay after upload (seconds)
//	-i int      download poll interval (seconds)
//	-n int      download poll attempts
//	-t int      per-request HTTP timeout (seconds)
//	-db string  local cache database
//	-o string   download directory
//	-l string   log level
//
// args is filtered with flagx.FilterArgs so that flags owned by other
// loaders (-c) do not interfere.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("filedrop", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "files API base URL")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "API key")
	fs.StringVar(&cfg.UserID, "u", cfg.UserID, "user id")
	settle := fs.Int("s", int(cfg.SettleDelay.Seconds()), "settle delay after upload (in seconds)")
	interval := fs.Int("i", int(cfg.PollInterval.Seconds()), "download poll interval (in seconds)")
	fs.IntVar(&cfg.PollAttempts, "n", cfg.PollAttempts, "download poll attempts")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "HTTP request timeout (in seconds)")
	fs.StringVar(&cfg.CacheDSN, "db", cfg.CacheDSN, "local cache database")
	fs.StringVar(&cfg.DownloadDir, "o", cfg.DownloadDir, "download directory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Only override durations that were given; sub-second JSON values would
	// otherwise be truncated to whole seconds.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			cfg.SettleDelay = time.Duration(*settle) * time.Second
		case "i":
			cfg.PollInterval = time.Duration(*interval) * time.Second
		case "t":
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
