package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAPIBase is the vendor cloud endpoint used when none is configured.
const DefaultAPIBase = "http://api.petkit.cn/6/"

// Default polling and feeding settings.
const (
	DefaultScanInterval  = 120 // seconds
	DefaultFeedingAmount = 10  // grams
)

// Config is the root configuration structure for petkit-bridge.
// All configuration is loaded from YAML and can be overridden by
// environment variables.
type Config struct {
	// Account holds top-level account fields. If a password or token is
	// present here, the top level itself counts as an account, in
	// addition to any entries under accounts. Top-level values also act
	// as defaults for the per-account entries.
	Account  AccountConfig   `yaml:",inline"`
	Extra    []AccountConfig `yaml:"accounts"`
	Database DatabaseConfig  `yaml:"database"`
	MQTT     MQTTConfig      `yaml:"mqtt"`
	InfluxDB InfluxDBConfig  `yaml:"influxdb"`
	API      APIConfig       `yaml:"api"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// AccountConfig describes a single PetKit cloud account.
type AccountConfig struct {
	APIBase  string `yaml:"api_base"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	UID      string `yaml:"uid"`
	Token    string `yaml:"token"`

	// ScanInterval is the refresh period in seconds.
	ScanInterval int `yaml:"scan_interval"`

	// FeedingAmount is the default portion for manual feeds. It is
	// either a literal gram count or the name of an external numeric
	// input (resolved at feed time).
	FeedingAmount  AmountRef `yaml:"feeding_amount"`
	FeedingAmount1 AmountRef `yaml:"feeding_amount1"`
	FeedingAmount2 AmountRef `yaml:"feeding_amount2"`
}

// AmountRef is a feeding amount that is either a literal number or a
// reference to a named external numeric input.
type AmountRef struct {
	Literal int
	Ref     string
}

// IsZero reports whether the amount was left unset in the config.
func (a AmountRef) IsZero() bool {
	return a.Literal == 0 && a.Ref == ""
}

// UnmarshalYAML accepts either an integer or a string value.
func (a *AmountRef) UnmarshalYAML(value *yaml.Node) error {
	var n int
	if err := value.Decode(&n); err == nil {
		a.Literal = n
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("feeding_amount must be a number or input name: %w", err)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		a.Literal = n
		return nil
	}
	a.Ref = strings.TrimSpace(s)
	return nil
}

// Interval returns the account's scan interval as a Duration.
func (a AccountConfig) Interval() time.Duration {
	if a.ScanInterval <= 0 {
		return DefaultScanInterval * time.Second
	}
	return time.Duration(a.ScanInterval) * time.Second
}

// DatabaseConfig contains SQLite database settings for the credential
// store.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT state-sink connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains settings for the optional attribute recorder.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern PETKIT_SECTION_KEY, for
// example PETKIT_DATABASE_PATH or PETKIT_MQTT_PASSWORD.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Account: AccountConfig{
			APIBase:      DefaultAPIBase,
			ScanInterval: DefaultScanInterval,
		},
		Database: DatabaseConfig{
			Path:        "data/petkit.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "petkit-bridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8097,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides replaces config values from the environment.
func applyEnvOverrides(cfg *Config) {
	// Vendor account (applies to the top-level account)
	if v := os.Getenv("PETKIT_USERNAME"); v != "" {
		cfg.Account.Username = v
	}
	if v := os.Getenv("PETKIT_PASSWORD"); v != "" {
		cfg.Account.Password = v
	}
	if v := os.Getenv("PETKIT_API_BASE"); v != "" {
		cfg.Account.APIBase = v
	}

	// Database
	if v := os.Getenv("PETKIT_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("PETKIT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PETKIT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PETKIT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("PETKIT_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("PETKIT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Accounts returns the effective account list: the top-level account (if
// it carries credentials) followed by the accounts entries, each filled
// in with top-level defaults.
func (c *Config) Accounts() []AccountConfig {
	var out []AccountConfig
	if c.Account.Password != "" || c.Account.Token != "" {
		out = append(out, c.Account)
	}
	for _, acc := range c.Extra {
		out = append(out, c.fillDefaults(acc))
	}
	return out
}

// fillDefaults copies top-level account fields into an entry that left
// them unset.
func (c *Config) fillDefaults(acc AccountConfig) AccountConfig {
	if acc.APIBase == "" {
		acc.APIBase = c.Account.APIBase
	}
	if acc.APIBase == "" {
		acc.APIBase = DefaultAPIBase
	}
	if acc.ScanInterval <= 0 {
		acc.ScanInterval = c.Account.ScanInterval
	}
	if acc.FeedingAmount.IsZero() {
		acc.FeedingAmount = c.Account.FeedingAmount
	}
	if acc.FeedingAmount1.IsZero() {
		acc.FeedingAmount1 = c.Account.FeedingAmount1
	}
	if acc.FeedingAmount2.IsZero() {
		acc.FeedingAmount2 = c.Account.FeedingAmount2
	}
	return acc
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	accounts := c.Accounts()
	if len(accounts) == 0 {
		errs = append(errs, "at least one account with a password or token is required")
	}
	for _, acc := range accounts {
		if acc.Username == "" {
			errs = append(errs, "account username is required")
		}
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Default API timeouts in seconds, used when the config leaves them
// unset.
const (
	defaultAPIReadTimeout  = 15
	defaultAPIWriteTimeout = 15
	defaultAPIIdleTimeout  = 60
)

// ReadTimeout returns the API read timeout as a Duration.
func (a APIConfig) ReadTimeout() time.Duration {
	return timeoutSeconds(a.Timeouts.Read, defaultAPIReadTimeout)
}

// WriteTimeout returns the API write timeout as a Duration.
func (a APIConfig) WriteTimeout() time.Duration {
	return timeoutSeconds(a.Timeouts.Write, defaultAPIWriteTimeout)
}

// IdleTimeout returns the API idle timeout as a Duration.
func (a APIConfig) IdleTimeout() time.Duration {
	return timeoutSeconds(a.Timeouts.Idle, defaultAPIIdleTimeout)
}

func timeoutSeconds(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
