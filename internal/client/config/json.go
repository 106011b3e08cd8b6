package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/filedrop/internal/flagx"
	"github.com/dmitrijs2005/filedrop/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// stay nil and leave the current value alone. Durations use timex.Duration,
// so they may be strings like "3s" or integer nanoseconds.
type JsonConfig struct {
	APIBaseURL     *string         `json:"api_base_url"`
	APIKey         *string         `json:"api_key"`
	UserID         *string         `json:"user_id"`
	SettleDelay    *timex.Duration `json:"settle_delay"`
	PollInterval   *timex.Duration `json:"poll_interval"`
	PollAttempts   *int            `json:"poll_attempts"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	CacheDSN       *string         `json:"cache_dsn"`
	DownloadDir    *string         `json:"download_dir"`
	LogLevel       *string         `json:"log_level"`
}

// parseJson overlays cfg with values from the JSON file named by -c or
// -config in args. Without such a flag nothing happens. Read or unmarshal
// errors panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.APIKey, jc.APIKey)
	setString(&cfg.UserID, jc.UserID)
	setString(&cfg.CacheDSN, jc.CacheDSN)
	setString(&cfg.DownloadDir, jc.DownloadDir)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.SettleDelay != nil {
		cfg.SettleDelay = jc.SettleDelay.Duration
	}
	if jc.PollInterval != nil {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.PollAttempts != nil {
		cfg.PollAttempts = *jc.PollAttempts
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
