// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML documents of the seller and concierge processes.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-a2a/a2a-purchasing/auth"
)

// Seller agent kinds.
const (
	AgentPizza  = "pizza"
	AgentBurger = "burger"
)

// LogConfig selects the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TelemetryConfig selects tracing and metrics exporters.
type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name"`
	Metrics      bool   `yaml:"metrics"`
	StdoutTraces bool   `yaml:"stdout_traces"`
}

// AuthConfig is a scheme and its secret: the token for bearer, "user:pass" for basic.
type AuthConfig struct {
	Scheme string `yaml:"scheme"`
	Secret string `yaml:"secret"`
}

// Credentials parses the secret for the configured scheme.
func (c AuthConfig) Credentials() (auth.Credentials, error) {
	return auth.ParseCredentials(c.Scheme, c.Secret)
}

// PushConfig controls outgoing push notifications of a seller.
type PushConfig struct {
	Enabled            bool          `yaml:"enabled"`
	DeliveryTimeoutRaw string        `yaml:"delivery_timeout"`
	DeliveryTimeout    time.Duration `yaml:"-"`
}

// SellerConfig configures one seller agent process.
type SellerConfig struct {
	Agent              string          `yaml:"agent"`
	Listen             string          `yaml:"listen"`
	PublicURL          string          `yaml:"public_url"`
	ShutdownTimeoutRaw string          `yaml:"shutdown_timeout"`
	ShutdownTimeout    time.Duration   `yaml:"-"`
	Auth               AuthConfig      `yaml:"auth"`
	Push               PushConfig      `yaml:"push"`
	Log                LogConfig       `yaml:"log"`
	Telemetry          TelemetryConfig `yaml:"telemetry"`
}

// ReceiverConfig configures the concierge push receiver.
type ReceiverConfig struct {
	Listen  string `yaml:"listen"`
	JWKSURL string `yaml:"jwks_url"`
}

// ConciergeConfig configures the orchestrator process.
type ConciergeConfig struct {
	Remotes           []string              `yaml:"remotes"`
	Credentials       map[string]AuthConfig `yaml:"credentials"`
	RequestTimeoutRaw string                `yaml:"request_timeout"`
	RequestTimeout    time.Duration         `yaml:"-"`
	Receiver          ReceiverConfig        `yaml:"receiver"`
	Log               LogConfig             `yaml:"log"`
	Telemetry         TelemetryConfig       `yaml:"telemetry"`
}

// RemoteCredentials returns the credentials of each configured remote, keyed by agent name.
// Entries with an empty secret are skipped.
func (c *ConciergeConfig) RemoteCredentials() (map[string]auth.Credentials, error) {
	out := make(map[string]auth.Credentials, len(c.Credentials))
	for name, ac := range c.Credentials {
		if ac.Secret == "" {
			continue
		}
		creds, err := ac.Credentials()
		if err != nil {
			return nil, fmt.Errorf("credentials for %s: %w", name, err)
		}
		out[name] = creds
	}
	return out, nil
}

// LoadSeller reads, expands, parses and validates a seller configuration.
func LoadSeller(path string) (*SellerConfig, error) {
	var cfg SellerConfig
	if err := load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.parseDurations(); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// LoadConcierge reads, expands, parses and validates a concierge configuration.
func LoadConcierge(path string) (*ConciergeConfig, error) {
	var cfg ConciergeConfig
	if err := load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.RequestTimeout = 30 * time.Second
	if cfg.RequestTimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.RequestTimeoutRaw)
		if err != nil {
			return nil, fmt.Errorf("parsing durations: request_timeout %q: %w", cfg.RequestTimeoutRaw, err)
		}
		cfg.RequestTimeout = d
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), out); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func (l *LogConfig) applyDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func (l LogConfig) validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", l.Level)
	}
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not one of text, json", l.Format)
	}
	return nil
}

func (c *SellerConfig) applyDefaults() {
	if c.Listen == "" {
		switch c.Agent {
		case AgentPizza:
			c.Listen = "localhost:10000"
		case AgentBurger:
			c.Listen = "localhost:10001"
		}
	}
	if c.PublicURL == "" && c.Listen != "" {
		c.PublicURL = "http://" + c.Listen + "/"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.Agent + "_seller_agent"
	}
	c.Log.applyDefaults()
}

func (c *SellerConfig) parseDurations() error {
	var err error
	c.ShutdownTimeout = 10 * time.Second
	if c.ShutdownTimeoutRaw != "" {
		c.ShutdownTimeout, err = time.ParseDuration(c.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("shutdown_timeout %q: %w", c.ShutdownTimeoutRaw, err)
		}
	}
	c.Push.DeliveryTimeout = 10 * time.Second
	if c.Push.DeliveryTimeoutRaw != "" {
		c.Push.DeliveryTimeout, err = time.ParseDuration(c.Push.DeliveryTimeoutRaw)
		if err != nil {
			return fmt.Errorf("push.delivery_timeout %q: %w", c.Push.DeliveryTimeoutRaw, err)
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *SellerConfig) Validate() error {
	switch c.Agent {
	case AgentPizza, AgentBurger:
	default:
		return fmt.Errorf("agent %q is not one of %s, %s", c.Agent, AgentPizza, AgentBurger)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if _, err := url.ParseRequestURI(c.PublicURL); err != nil {
		return fmt.Errorf("public_url: %w", err)
	}
	if c.Auth.Scheme == "" {
		return fmt.Errorf("auth.scheme is required")
	}
	if _, err := c.Auth.Credentials(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return c.Log.validate()
}

func (c *ConciergeConfig) applyDefaults() {
	if c.Receiver.Listen == "" {
		c.Receiver.Listen = "localhost:10100"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "purchasing_concierge"
	}
	c.Log.applyDefaults()
}

// Validate reports the first invalid setting.
func (c *ConciergeConfig) Validate() error {
	if len(c.Remotes) == 0 {
		return fmt.Errorf("at least one remote is required")
	}
	for _, r := range c.Remotes {
		if _, err := url.ParseRequestURI(r); err != nil {
			return fmt.Errorf("remote %q: %w", r, err)
		}
	}
	if _, err := c.RemoteCredentials(); err != nil {
		return err
	}
	return c.Log.validate()
}
