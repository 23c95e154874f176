// internal/workers/matching/calculate-matches/config.go
package calculatematches

import "time"

type Config struct {
	Timeout time.Duration

	// Higher temperature keeps the generated explanations from all reading
	// the same; the token cap keeps them to 1-2 sentences.
	ReasoningTemperature float64
	ReasoningMaxTokens   int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:              300 * time.Second,
		ReasoningTemperature: 0.7,
		ReasoningMaxTokens:   120,
	}
}
