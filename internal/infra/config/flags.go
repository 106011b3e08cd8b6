package config

import (
	"flag"

	"github.com/dmitrijs2005/filedrop/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-f string    stack file
//	-g string    AWS region
//	-e string    endpoint override (e.g., "http://127.0.0.1:4566")
//	-u string    access key id
//	-p string    secret access key
//	-out string  outputs JSON file
//	-l string    log level
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-f", "-g", "-e", "-u", "-p", "-out", "-l"})

	fs := flag.NewFlagSet("infra", flag.ContinueOnError)

	fs.StringVar(&cfg.StackFile, "f", cfg.StackFile, "stack file")
	fs.StringVar(&cfg.Region, "g", cfg.Region, "AWS region")
	fs.StringVar(&cfg.BaseEndpoint, "e", cfg.BaseEndpoint, "AWS endpoint override")
	fs.StringVar(&cfg.AccessKey, "u", cfg.AccessKey, "AWS access key id")
	fs.StringVar(&cfg.SecretKey, "p", cfg.SecretKey, "AWS secret access key")
	fs.StringVar(&cfg.OutputsFile, "out", cfg.OutputsFile, "write outputs as JSON to this file")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
