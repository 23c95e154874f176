// internal/workers/matching/validate-request/config.go
package validaterequest

import "time"

// No tunables yet; struct kept for layout consistency with the other workers.
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
