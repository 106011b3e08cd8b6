package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/filedrop/internal/flagx"
)

// JsonConfig is the JSON form of Config. Only keys present in the file are
// applied.
type JsonConfig struct {
	StackFile    *string `json:"stack_file"`
	Region       *string `json:"region"`
	BaseEndpoint *string `json:"base_endpoint"`
	AccessKey    *string `json:"access_key"`
	SecretKey    *string `json:"secret_key"`
	OutputsFile  *string `json:"outputs_file"`
	LogLevel     *string `json:"log_level"`
}

// parseJson overlays cfg with the JSON file named by -c or -config. If the
// file cannot be read or contains invalid JSON, the function panics.
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

	for _, f := range []struct {
		dst *string
		src *string
	}{
		{&cfg.StackFile, jc.StackFile},
		{&cfg.Region, jc.Region},
		{&cfg.BaseEndpoint, jc.BaseEndpoint},
		{&cfg.AccessKey, jc.AccessKey},
		{&cfg.SecretKey, jc.SecretKey},
		{&cfg.OutputsFile, jc.OutputsFile},
		{&cfg.LogLevel, jc.LogLevel},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
}
