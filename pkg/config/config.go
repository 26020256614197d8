package config

import (
	"fmt"
	"os"

	"github.com/cuemby/warren-pubsub/pkg/log"
	"gopkg.in/yaml.v3"
)

// Config is the YAML-loadable configuration for cmd/pubsubctl. Load
// fills it from an optional file (an empty path skips the file
// entirely), and the scheduler and worker commands' flags override
// Scheduler.Addr, Scheduler.MetricsAddr and Worker.SchedulerAddr.
// LogLevel, LogJSON, Worker.ID, Worker.Addr and TraceDBPath are parsed
// from the file but no command reads them: logging, the worker's
// identity and listen address, and the trace database are set by
// flags only.
type Config struct {
	LogLevel  log.Level `yaml:"log_level"`
	LogJSON   bool      `yaml:"log_json"`
	Scheduler struct {
		Addr        string `yaml:"addr"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"scheduler"`
	Worker struct {
		ID            string `yaml:"id"`
		Addr          string `yaml:"addr"`
		SchedulerAddr string `yaml:"scheduler_addr"`
	} `yaml:"worker"`
	TraceDBPath string `yaml:"trace_db_path"`
}

// Default returns the baseline configuration used when no YAML file is
// given and no flags override it.
func Default() *Config {
	c := &Config{
		LogLevel: log.InfoLevel,
	}
	c.Scheduler.Addr = "127.0.0.1:7946"
	c.Scheduler.MetricsAddr = "127.0.0.1:7947"
	c.Worker.SchedulerAddr = "127.0.0.1:7946"
	return c
}

// Load reads a YAML file at path into a copy of Default(), returning
// the defaults untouched if path is empty.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}
