// Package config loads and validates server configuration from the
// environment. Configuration is read once at startup; there is no
// runtime reconfiguration.
package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/caarlos0/env/v11"
)

// Transport selects the channel the server speaks over.
type Transport string

const (
	TransportStdio          Transport = "stdio"
	TransportSSE            Transport = "sse"
	TransportStreamableHTTP Transport = "streamable-http"
)

// AuthType selects the authentication scheme for HTTP transports.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthAPIKey AuthType = "api-key"
	AuthOAuth  AuthType = "oauth"
)

// Auth holds authentication settings. Provider fields are meaningful
// only when Type is AuthOAuth.
type Auth struct {
	Type     AuthType `env:"TYPE" envDefault:"none"`
	Provider string   `env:"PROVIDER"`
	ClientID string   `env:"CLIENT_ID"`
	APIKey   string   `env:"API_KEY"`
}

// Config is the read-only server configuration, created once at server
// construction.
type Config struct {
	Name        string    `env:"MCP_SERVER_NAME" envDefault:"promptmcp"`
	Version     string    `env:"MCP_SERVER_VERSION" envDefault:"0.1.0"`
	Description string    `env:"MCP_SERVER_DESCRIPTION"`
	Transport   Transport `env:"MCP_TRANSPORT" envDefault:"stdio"`

	// Host and Port are meaningful only for non-stdio transports.
	Host string `env:"MCP_HOST" envDefault:"127.0.0.1"`
	Port int    `env:"MCP_PORT" envDefault:"8080"`

	Auth Auth `envPrefix:"MCP_AUTH_"`

	// Storage selects the prompt storage backend: memory, dir, or
	// sqlite. Path is the directory or DSN for the file-backed ones.
	Storage     string `env:"MCP_STORAGE" envDefault:"memory"`
	StoragePath string `env:"MCP_STORAGE_PATH"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot produce a working server.
// An unsupported transport is a startup error, never a runtime dispatch
// error.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportSSE, TransportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport %q", c.Transport)
	}

	if c.Transport != TransportStdio {
		if c.Host == "" {
			return fmt.Errorf("transport %q requires a host", c.Transport)
		}
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("transport %q requires a valid port, got %d", c.Transport, c.Port)
		}
	}

	switch c.Auth.Type {
	case AuthNone, AuthAPIKey, AuthOAuth:
	default:
		return fmt.Errorf("unsupported auth type %q", c.Auth.Type)
	}

	switch c.Storage {
	case "memory", "dir", "sqlite":
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage)
	}

	return nil
}

// Addr returns the host:port address for network transports.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
