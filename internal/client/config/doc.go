// Package config loads runtime configuration for the filedrop CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "3s" or
// integer nanoseconds. Absent keys keep their defaults:
//
//	{
//	  "api_base_url": "https://api.example.com/prod",
//	  "api_key": "secret",
//	  "user_id": "alice",
//	  "settle_delay": "3s",
//	  "poll_interval": "1s",
//	  "poll_attempts": 5,
//	  "request_timeout": "30s",
//	  "cache_dsn": "filedrop.db",
//	  "download_dir": "download",
//	  "log_level": "info"
//	}
//
// Primary API
//
//   - type Config                    : the CLI settings
//   - func LoadConfig() *Config      : defaults, JSON, then flags from os.Args
//   - func Load(args) *Config        : the same over explicit args
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
