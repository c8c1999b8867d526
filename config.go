package hiera

import (
	"fmt"

	"github.com/goliatone/go-hiera-redis/pkg/store"
)

// DefaultSeparator joins source segments and keys.
const DefaultSeparator = ":"

// Config is the backend configuration. It is read once by New and never
// mutated afterwards.
type Config struct {
	Separator             string          `yaml:"separator,omitempty"`
	SoftConnectionFailure bool            `yaml:"soft_connection_failure,omitempty"`
	Deserialize           DeserializeMode `yaml:"deserialize,omitempty"`
	// Connection is forwarded verbatim to the store dialer.
	Connection store.RedisOptions `yaml:",inline"`
}

// DefaultConfig returns the configuration used when the host supplies none.
func DefaultConfig() Config {
	return Config{
		Separator:   DefaultSeparator,
		Deserialize: DeserializeNone,
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()
	if c.Separator == "" {
		c.Separator = defaults.Separator
	}
	if c.Deserialize == "" {
		c.Deserialize = defaults.Deserialize
	}
	return c
}

// Validate reports configuration the backend cannot run with. An unknown
// deserialize mode is not an error; it is reported when first used.
func (c Config) Validate() error {
	if c.Separator == "" {
		return fmt.Errorf("hiera: separator must not be empty")
	}
	if err := c.Connection.Validate(); err != nil {
		return fmt.Errorf("hiera: connection: %w", err)
	}
	return nil
}
