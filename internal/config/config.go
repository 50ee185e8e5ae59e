package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const DefaultConfigPath = "/etc/phishguard/config.yaml"

type Config struct {
	App        AppConfig        `yaml:"app"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Model      ModelConfig      `yaml:"model"`
	Lists      ListsConfig      `yaml:"lists"`
}

type AppConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
	// ScanRate caps scans per second across the web endpoints, 0 disables.
	ScanRate  float64 `yaml:"scan_rate"`
	ScanBurst int     `yaml:"scan_burst"`
}

type FetchConfig struct {
	TimeoutSeconds       int    `yaml:"timeout_seconds"`
	RobotsTimeoutSeconds int    `yaml:"robots_timeout_seconds"`
	MaxRedirects         int    `yaml:"max_redirects"`
	MaxBodyBytes         int64  `yaml:"max_body_bytes"`
	UserAgent            string `yaml:"user_agent"`
	VerifyTLS            bool   `yaml:"verify_tls"`
}

type VocabularyConfig struct {
	DBPath             string       `yaml:"db_path"`
	SeedTimeoutSeconds int          `yaml:"seed_timeout_seconds"`
	Seeds              []SeedConfig `yaml:"seeds"`
}

// SeedTimeout bounds one whole seed download, body included.
func (v VocabularyConfig) SeedTimeout() time.Duration {
	return time.Duration(v.SeedTimeoutSeconds) * time.Second
}

// SeedConfig describes a feed of known Domain/TLD values, typically the
// training dataset, imported so ids line up with what the model saw.
type SeedConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Format string `yaml:"format"`
	// Axis applies to "text" feeds: every line is a term of this axis.
	Axis string `yaml:"axis"`
	// Columns maps axis name to CSV header for "csv" feeds.
	Columns map[string]string `yaml:"columns"`
}

type ModelConfig struct {
	Dir         string `yaml:"dir"`
	LibraryPath string `yaml:"library_path"`
}

// ListsConfig holds operator overrides that bypass the classifier.
type ListsConfig struct {
	Blacklist []string `yaml:"blacklist"`
	Whitelist []string `yaml:"whitelist"`
}

func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

func (f FetchConfig) RobotsTimeout() time.Duration {
	return time.Duration(f.RobotsTimeoutSeconds) * time.Second
}

func Default() *Config {
	return &Config{
		App: AppConfig{
			ListenAddr: ":8080",
			LogLevel:   "info",
		},
		Fetch: FetchConfig{
			TimeoutSeconds:       10,
			RobotsTimeoutSeconds: 5,
			MaxRedirects:         30,
			MaxBodyBytes:         10 * 1024 * 1024,
		},
		Vocabulary: VocabularyConfig{
			DBPath:             "./data/phishguard.db",
			SeedTimeoutSeconds: 120,
		},
		Model: ModelConfig{
			Dir:         "./data/models",
			LibraryPath: "/usr/lib/libonnxruntime.so",
		},
	}
}

// Load reads the first config file found. An explicit path must exist;
// without one the search paths are tried and defaults used if none exist.
func Load(path string) (*Config, error) {
	if path != "" {
		return parseConfigFile(path)
	}

	searchPaths := []string{
		"configs/config.yaml",
		"./config.yaml",
		DefaultConfigPath,
	}

	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			log.Info().Str("path", p).Msg("loading config")
			return parseConfigFile(p)
		}
	}

	log.Info().Msg("no config file found, using defaults")
	return Default(), nil
}

func parseConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be positive")
	}
	if c.Fetch.RobotsTimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.robots_timeout_seconds must be positive")
	}
	if c.Vocabulary.SeedTimeoutSeconds <= 0 {
		return fmt.Errorf("vocabulary.seed_timeout_seconds must be positive")
	}
	if c.App.ScanRate < 0 {
		return fmt.Errorf("app.scan_rate must not be negative")
	}
	for _, s := range c.Vocabulary.Seeds {
		switch s.Format {
		case "csv":
			if len(s.Columns) == 0 {
				return fmt.Errorf("seed %q: csv format needs columns", s.Name)
			}
		case "text":
			if s.Axis == "" {
				return fmt.Errorf("seed %q: text format needs an axis", s.Name)
			}
		default:
			return fmt.Errorf("seed %q: unknown format %q", s.Name, s.Format)
		}
	}
	return nil
}
