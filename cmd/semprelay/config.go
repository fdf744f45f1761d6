package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML settings file layout, in the spirit of samoyed's
// direwolf.conf: buffer size, serial port and baud rate, and which optional
// sinks to enable. Only the serial port and baud rate can be overridden
// from the command line; the registry is always framer.DefaultRegistry.
type fileConfig struct {
	BufferSize int    `yaml:"buffer_size"`
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`

	Telemetry struct {
		Enabled   bool   `yaml:"enabled"`
		ServerURL string `yaml:"server_url"`
		AuthToken string `yaml:"auth_token"`
		Org       string `yaml:"org"`
		Bucket    string `yaml:"bucket"`
	} `yaml:"telemetry"`

	Archive struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Database string `yaml:"database"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"archive"`
}

func defaultConfig() fileConfig {
	var cfg fileConfig
	cfg.BufferSize = 1024
	cfg.BaudRate = 115200
	cfg.Metrics.Addr = ":9464"
	return cfg
}

func loadConfig(path string) (fileConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
