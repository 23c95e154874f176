// internal/workers/cv-analysis/extract-interests/config.go
package extractinterests

type Config struct {
	Temperature float64
	MaxTokens   int
}

func LoadConfig() *Config {
	return &Config{
		// Low temperature keeps tag selection consistent across runs.
		Temperature: 0.3,
		MaxTokens:   500,
	}
}
