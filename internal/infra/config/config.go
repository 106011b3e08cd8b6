// Package config handles configuration for the infra provisioner, including
// defaults, JSON overlay, and command-line flags.
package config

import "os"

// Config holds runtime settings for the provisioner.
//
// Fields:
//   - StackFile: YAML stack declaration to apply.
//   - Region: AWS region for the bucket (CloudFront itself is global).
//   - BaseEndpoint: endpoint override for S3-compatible emulators; empty means AWS.
//   - AccessKey / SecretKey: static credentials; empty means the default AWS chain.
//   - OutputsFile: where to write the outputs as JSON; empty means stdout only.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	StackFile    string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	OutputsFile  string
	LogLevel     string
}

// LoadDefaults populates Config with defaults that target real AWS through
// the default credential chain.
func (c *Config) LoadDefaults() {
	c.StackFile = "deploy/stack.yaml"
	c.Region = "us-east-1"
	c.BaseEndpoint = ""
	c.AccessKey = ""
	c.SecretKey = ""
	c.OutputsFile = ""
	c.LogLevel = "info"
}

// LoadConfig builds a Config from os.Args; see Load.
func LoadConfig() *Config {
	return Load(os.Args[1:])
}

// Load applies defaults, then overlays values from an optional JSON file
// and finally from command-line flags.
func Load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
