package config

import "time"

// CacheConfig defines settings for the response cache middleware used on
// the problem history route.  When Enabled is false or no Redis client is
// configured, caching is disabled.  Prefix namespaces the keys so a seed
// can purge them; MaxBodyBytes bounds what is stored per entry.
type CacheConfig struct {
	Enabled      bool          `env:"CACHE_ENABLED"        envDefault:"true"`
	TTL          time.Duration `env:"CACHE_TTL"            envDefault:"5m"`
	Prefix       string        `env:"CACHE_PREFIX"         envDefault:"cache"`
	MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`
}
