// Package config loads the gateway's on-disk configuration, following
// the defaults → unmarshal → validate shape the teacher's operator
// package uses for its own fileConfig.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/nand0san/panzer-go/internal/quota"
)

// defaultConfig is copied, not mutated, before a file is unmarshalled
// onto it — Load returns it unchanged when path is empty.
var defaultConfig = Config{
	CredentialFilename:         "panzer.tmp",
	RecvWindowMillis:           10000,
	HousekeepingSleepCapMillis: 60000,
	ClockDriftWarnMillis:       1000,
	OpsListenAddress:           "",
}

// RateLimitOverride mirrors quota.RateLimitSpec in a YAML-friendly shape,
// used when exchangeInfo is unreachable at startup and the built-in
// defaults are not desired.
type RateLimitOverride struct {
	Kind         string `yaml:"kind"`
	IntervalNum  int    `yaml:"intervalNum"`
	IntervalUnit string `yaml:"intervalUnit"`
	Limit        int    `yaml:"limit"`
}

// Config is the gateway's full on-disk configuration.
type Config struct {
	// CredentialFilename is the name of the credential file within the
	// user's home directory.
	CredentialFilename string `yaml:"credentialFilename"`
	// RecvWindowMillis is the default recvWindow appended to signed
	// requests that do not specify one.
	RecvWindowMillis int `yaml:"recvWindowMillis"`
	// HousekeepingSleepCapMillis bounds how long WaitUntilAdmissible
	// sleeps between re-checks.
	HousekeepingSleepCapMillis int `yaml:"housekeepingSleepCapMillis"`
	// ClockDriftWarnMillis is the reconciliation delta past which a
	// drift warning is logged at a higher severity.
	ClockDriftWarnMillis int `yaml:"clockDriftWarnMillis"`
	// RateLimitOverrides replaces the rate limits normally discovered
	// from exchangeInfo. Empty means "use exchangeInfo, falling back to
	// built-in defaults if unreachable".
	RateLimitOverrides []RateLimitOverride `yaml:"rateLimitOverrides"`
	// OpsListenAddress, if non-empty, starts the optional metrics/status
	// HTTP server on this address.
	OpsListenAddress string `yaml:"opsListenAddress"`
}

// Default returns a copy of the built-in configuration.
func Default() Config {
	return defaultConfig
}

// Load reads and validates configuration from path. An empty path returns
// the built-in defaults unchanged — this is the testable property 9
// (config idempotence) starting point: Load("") followed by re-marshaling
// and re-loading must reproduce the same Config.
func Load(path string) (Config, error) {
	cfg := defaultConfig
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if len(cfg.RateLimitOverrides) == 0 {
		cfg.RateLimitOverrides = nil
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.CredentialFilename) == "" {
		return fmt.Errorf("config: credentialFilename must not be empty")
	}
	if strings.ContainsAny(c.CredentialFilename, "/"+string(os.PathSeparator)) {
		return fmt.Errorf("config: credentialFilename must not contain a path separator")
	}
	if c.RecvWindowMillis <= 0 {
		return fmt.Errorf("config: recvWindowMillis must be positive")
	}
	if c.HousekeepingSleepCapMillis <= 0 {
		return fmt.Errorf("config: housekeepingSleepCapMillis must be positive")
	}
	for _, o := range c.RateLimitOverrides {
		if o.Limit <= 0 {
			return fmt.Errorf("config: rateLimitOverrides entry for %s/%s has non-positive limit", o.Kind, o.IntervalUnit)
		}
	}
	return nil
}

// HousekeepingSleepCap returns HousekeepingSleepCapMillis as a
// time.Duration.
func (c Config) HousekeepingSleepCap() time.Duration {
	return time.Duration(c.HousekeepingSleepCapMillis) * time.Millisecond
}

// QuotaLimits converts RateLimitOverrides into quota.Limits, falling back
// to quota.DefaultLimits for anything not overridden.
func (c Config) QuotaLimits() quota.Limits {
	if len(c.RateLimitOverrides) == 0 {
		return quota.DefaultLimits()
	}

	specs := make([]quota.RateLimitSpec, 0, len(c.RateLimitOverrides))
	for _, o := range c.RateLimitOverrides {
		specs = append(specs, quota.RateLimitSpec{
			Kind:         quota.Kind(o.Kind),
			IntervalNum:  o.IntervalNum,
			IntervalUnit: quota.IntervalUnit(o.IntervalUnit),
			Limit:        o.Limit,
		})
	}
	return quota.LimitsFromSpecs(specs)
}
