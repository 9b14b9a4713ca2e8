// Package config loads the ledger service configuration from an optional YAML
// file and LEDGER_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/kalinova-sec/secledger/ledger"
)

// Signer kinds accepted in Config.Signer.
const (
	SignerSecret  = "secret"
	SignerSchnorr = "schnorr"
)

// Config holds the settings shared by every secledger command.
type Config struct {
	Difficulty      int           `yaml:"difficulty"`
	Signer          string        `yaml:"signer"`
	Secret          string        `yaml:"secret"`
	MonitorInterval time.Duration `yaml:"monitor_interval"`
	EventRate       float64       `yaml:"event_rate"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	LogLevel        string        `yaml:"log_level"`
}

// Default returns the configuration used before the file and environment are
// applied. It has no secret, so it does not validate on its own.
func Default() Config {
	return Config{
		Difficulty:      ledger.DefaultDifficulty,
		Signer:          SignerSecret,
		MonitorInterval: time.Minute,
		EventRate:       0.3,
		LogLevel:        "info",
	}
}

// Load reads path if it is not empty, applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("LEDGER_DIFFICULTY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_DIFFICULTY=%q", v)
		}
		c.Difficulty = n
	}
	if v, ok := lookup("LEDGER_SIGNER"); ok {
		c.Signer = v
	}
	if v, ok := lookup("LEDGER_SECRET"); ok {
		c.Secret = v
	}
	if v, ok := lookup("LEDGER_MONITOR_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_MONITOR_INTERVAL=%q", v)
		}
		c.MonitorInterval = d
	}
	if v, ok := lookup("LEDGER_EVENT_RATE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_EVENT_RATE=%q", v)
		}
		c.EventRate = f
	}
	if v, ok := lookup("LEDGER_METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	if v, ok := lookup("LEDGER_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Difficulty < 0 || c.Difficulty > 64 {
		errs = append(errs, fmt.Errorf("difficulty must be between 0 and 64, got %d", c.Difficulty))
	}
	switch c.Signer {
	case SignerSecret:
		if c.Secret == "" {
			errs = append(errs, errors.New("secret signer requires a secret (LEDGER_SECRET)"))
		}
	case SignerSchnorr:
	default:
		errs = append(errs, fmt.Errorf("unknown signer %q", c.Signer))
	}
	if c.MonitorInterval <= 0 {
		errs = append(errs, fmt.Errorf("monitor interval must be positive, got %s", c.MonitorInterval))
	}
	if c.EventRate < 0 || c.EventRate > 1 {
		errs = append(errs, fmt.Errorf("event rate must be between 0 and 1, got %v", c.EventRate))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// NewSigner builds the signer selected by the configuration.
func (c Config) NewSigner() (ledger.Signer, error) {
	if c.Signer == SignerSchnorr {
		return ledger.NewSchnorrSigner(), nil
	}
	signer, err := ledger.NewSecretSigner([]byte(c.Secret))
	if err != nil {
		return nil, err
	}
	return signer, nil
}
