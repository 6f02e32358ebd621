package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	Snapshot  SnapshotConfig            `mapstructure:"snapshot"`
	Broker    BrokerConfig              `mapstructure:"broker"`
	Outbox    OutboxConfig              `mapstructure:"outbox"`
	RateLimit RateLimitConfig           `mapstructure:"rate_limit"`
	Activity  ActivityConfig            `mapstructure:"activity"`
	Dashboard DashboardConfig           `mapstructure:"dashboard"`
	Security  SecurityConfig            `mapstructure:"security"`
	Operators []OperatorConfig          `mapstructure:"operators"`
	TaskTypes map[string]TaskTypeConfig `mapstructure:"task_types"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	TimeoutSeconds int           `mapstructure:"timeout_seconds"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// SnapshotConfig selects the persistence collaborator: "file" or "redis".
type SnapshotConfig struct {
	Backend  string `mapstructure:"backend"`
	Path     string `mapstructure:"path"`
	RedisURL string `mapstructure:"redis_url"`
	RedisKey string `mapstructure:"redis_key"`
}

type BrokerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type ActivityConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
}

type DashboardConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type SecurityConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

type OperatorConfig struct {
	ID             string `mapstructure:"id"`
	Name           string `mapstructure:"name"`
	Role           string `mapstructure:"role"`
	HomeLocation   string `mapstructure:"home_location"`
	Credential     string `mapstructure:"credential"`
	CredentialHash string `mapstructure:"credential_hash"`
}

type TaskTypeConfig struct {
	Label            string `mapstructure:"label"`
	RequiredLocation string `mapstructure:"required_location"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeout_seconds", 30)
	viper.SetDefault("server.shutdown_grace", "5s")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.pretty", true)
	viper.SetDefault("snapshot.backend", "file")
	viper.SetDefault("snapshot.path", "data/snapshot.json")
	viper.SetDefault("rate_limit.rps", 100)
	viper.SetDefault("rate_limit.burst", 50)
	viper.SetDefault("activity.max_entries", 1000)
	viper.SetDefault("dashboard.cache_ttl", "5s")
	viper.SetDefault("outbox.batch_size", 50)
	viper.SetDefault("outbox.poll_interval", "2s")
	viper.SetDefault("outbox.retry_attempts", 3)
	viper.SetDefault("outbox.retry_delay", "500ms")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
