package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration for the bridge server. Flags
// override anything set here.
type Config struct {
	LogLevel    string `yaml:"log_level"`
	Echo        string `yaml:"echo"`
	IncludeRoot string `yaml:"include_root"`
	Builtins    *bool  `yaml:"builtins"`
}

func defaultConfig() Config {
	on := true
	return Config{
		LogLevel: "info",
		Echo:     "stderr",
		Builtins: &on,
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// echoSink resolves the echo setting into a writer: stderr, discard, or a
// file path to append to.
func echoSink(setting string) (io.Writer, func() error, error) {
	switch setting {
	case "", "stderr":
		return os.Stderr, nil, nil
	case "discard":
		return io.Discard, nil, nil
	}
	f, err := os.OpenFile(setting, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open echo sink: %w", err)
	}
	return f, f.Close, nil
}
