package dynamo

import "time"

// DefaultLocalPort is the port DynamoDB Local listens on.
const DefaultLocalPort = 8000

// Config holds DynamoDB-specific settings. Host, port, database and
// credentials come from connect.Config.
type Config struct {
	// Region is the AWS region.
	// Default: "us-east-1"
	Region string

	// Local sends requests to http://host:port (DynamoDB Local) instead of
	// the regional endpoint.
	Local bool

	// ScanSegments is the number of parallel scan segments used by Find
	// and Remove. Higher values speed up scans of large tables at the cost
	// of more concurrent requests.
	// Default: 1 (sequential scan)
	// Max: 256
	ScanSegments int

	// CreateTimeout bounds the wait for a newly created table to become
	// active.
	// Default: 2 minutes
	CreateTimeout time.Duration
}

// DefaultConfig returns settings for a sequential scanner in us-east-1.
func DefaultConfig() Config {
	return Config{
		Region:        "us-east-1",
		ScanSegments:  1,
		CreateTimeout: 2 * time.Minute,
	}
}

// validate fills empty values with defaults.
func (c *Config) validate() {
	d := DefaultConfig()
	if c.Region == "" {
		c.Region = d.Region
	}
	if c.ScanSegments < 1 {
		c.ScanSegments = d.ScanSegments
	}
	if c.CreateTimeout <= 0 {
		c.CreateTimeout = d.CreateTimeout
	}
}

// TableName returns the table backing a collection. The database name is
// used as a prefix so several logical databases can share an account.
func TableName(database, collection string) string {
	if database == "" {
		return collection
	}
	return database + "-" + collection
}
