// internal/workers/matching/geocode-postcodes/config.go
package geocodepostcodes

import "time"

// No tunables yet; struct kept for layout consistency with the other workers.
// The lookup rate delay lives on the resolver, not here, so every caller of
// the shared resolver gets the same pacing.
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 120 * time.Second,
	}
}
