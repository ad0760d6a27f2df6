package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/adamwoolhether/vjmap"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Environment variables read by the CLI. They override the config file
// and are overridden by flags.
const (
	envToken   = "VJMAP_TOKEN"
	envBaseURL = "VJMAP_BASE_URL"
	envConfig  = "VJMAP_CONFIG"
)

// Config is the CLI configuration.
type Config struct {
	Token   string        `yaml:"token"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`

	// Rate and Burst enable client-side throttling when both are positive.
	Rate  int `yaml:"rate"`
	Burst int `yaml:"burst"`

	Log LogConfig `yaml:"log"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

func defaultConfig() Config {
	return Config{
		BaseURL: vjmap.DefaultBaseURL,
		Timeout: 60 * time.Second,
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// globalFlags are the flags accepted before the subcommand.
type globalFlags struct {
	config   string
	token    string
	baseURL  string
	timeout  time.Duration
	logLevel string
	metrics  bool
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.config, "config", "", "path to a YAML config file (env "+envConfig+")")
	fs.StringVar(&g.token, "token", "", "access token (env "+envToken+")")
	fs.StringVar(&g.baseURL, "base-url", "", "service base URL (env "+envBaseURL+")")
	fs.DurationVar(&g.timeout, "timeout", 0, "overall request timeout, e.g. 30s")
	fs.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&g.metrics, "metrics", false, "print request metrics to stderr on exit")
}

// loadConfig layers defaults, the config file, the environment and the
// flags that were set, in that order.
func loadConfig(fs *pflag.FlagSet, g globalFlags, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()

	path := getenv(envConfig)
	if fs.Changed("config") {
		path = g.config
	}
	if path != "" {
		if err := readConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if v := getenv(envToken); v != "" {
		cfg.Token = v
	}
	if v := getenv(envBaseURL); v != "" {
		cfg.BaseURL = v
	}

	if fs.Changed("token") {
		cfg.Token = g.token
	}
	if fs.Changed("base-url") {
		cfg.BaseURL = g.baseURL
	}
	if fs.Changed("timeout") {
		cfg.Timeout = g.timeout
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}

	if cfg.Timeout < 0 {
		return Config{}, errors.New("timeout must not be negative")
	}

	return cfg, nil
}

func readConfigFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding config %s: %w", path, err)
	}

	return nil
}
