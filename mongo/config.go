package mongo

import "time"

// Config holds MongoDB-specific settings. Host, port, database and
// credentials come from connect.Config.
type Config struct {
	// AppName is reported to the server in the connection handshake.
	// Default: "docket"
	AppName string

	// ConnectTimeout bounds establishing a single connection.
	// Default: 10 seconds
	ConnectTimeout time.Duration

	// ServerSelectionTimeout bounds waiting for a usable server on each
	// operation. Keep it short when an availability retrier drives
	// reconnection.
	// Default: 5 seconds
	ServerSelectionTimeout time.Duration
}

// DefaultConfig returns the default MongoDB settings.
func DefaultConfig() Config {
	return Config{
		AppName:                "docket",
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
	}
}

// validate fills empty values with defaults.
func (c *Config) validate() {
	d := DefaultConfig()
	if c.AppName == "" {
		c.AppName = d.AppName
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.ServerSelectionTimeout <= 0 {
		c.ServerSelectionTimeout = d.ServerSelectionTimeout
	}
}
