package connect

import (
	"os"
	"strconv"
)

// DefaultPort is the default document store port.
const DefaultPort = 27017

// Config holds connection settings for a document store.
type Config struct {
	// Host is the store host name or address.
	// Default: "127.0.0.1"
	Host string

	// Port is the store port.
	// Default: 27017
	Port int

	// Database is the logical database name.
	// Default: "mydata"
	Database string

	// User and Password are the credentials. Authentication is attempted
	// only when both are non-empty.
	User     string
	Password string
}

// DefaultConfig returns settings for a local, unauthenticated store.
func DefaultConfig() Config {
	return Config{
		Host:     "127.0.0.1",
		Port:     DefaultPort,
		Database: "mydata",
	}
}

// HasCredentials reports whether authentication should be attempted.
func (c Config) HasCredentials() bool {
	return c.User != "" && c.Password != ""
}

// validate fills empty values with defaults.
func (c *Config) validate() {
	d := DefaultConfig()
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.Port <= 0 {
		c.Port = d.Port
	}
	if c.Database == "" {
		c.Database = d.Database
	}
}

// ConfigFromEnv reads HOST, PORT, DATABASE, USER and PASSWORD with the given
// prefix (e.g. "DOCKET_") on top of DefaultConfig. Unparseable ports are
// ignored.
func ConfigFromEnv(prefix string) Config {
	cfg := DefaultConfig()
	if v := os.Getenv(prefix + "HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(prefix + "PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv(prefix + "DATABASE"); v != "" {
		cfg.Database = v
	}
	cfg.User = os.Getenv(prefix + "USER")
	cfg.Password = os.Getenv(prefix + "PASSWORD")
	return cfg
}
