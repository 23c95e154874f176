package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig                 `mapstructure:"app"`
	Server     ServerConfig              `mapstructure:"server"`
	Database   DatabaseConfig            `mapstructure:"database"`
	APIs       APIsConfig                `mapstructure:"apis"`
	Activities map[string]ActivityConfig `mapstructure:"activities"`
	Data       DataConfig                `mapstructure:"data"`
	Logging    LoggingConfig             `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	Nominatim NominatimConfig `mapstructure:"nominatim"`
	LLM       LLMConfig       `mapstructure:"llm"`
}

type NominatimConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	UserAgent   string `mapstructure:"user_agent"`
	CountryName string `mapstructure:"country_name"`
	CountryCode string `mapstructure:"country_code"`
	RateDelayMS int    `mapstructure:"rate_delay_ms"`
	TimeoutMS   int    `mapstructure:"timeout_ms"`
}

type LLMConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// ActivityConfig holds the per-activity execution policy overrides.
// Values are milliseconds; zero means "use the workflow's declared policy".
type ActivityConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Timeout int  `mapstructure:"timeout"`
}

type DataConfig struct {
	InterestsCSVPath string `mapstructure:"interests_csv_path"`
	RegistryPath     string `mapstructure:"registry_path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
