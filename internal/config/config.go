package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/scalpapaschal-dotcom/OuterCircle/pkg/rand"
)

const (
	// StoreBackendSQL selects the database/sql message repository.
	StoreBackendSQL = "sql"
	// StoreBackendGorm selects the gorm message repository.
	StoreBackendGorm = "gorm"

	// MaxCodeLength is the width of the user_code column.
	MaxCodeLength = 16
)

var (
	// ErrInvalidConfig is returned when a loaded configuration value is not usable.
	ErrInvalidConfig = errors.New("invalid config")

	supportedDrivers = map[string]struct{}{"postgres": {}, "pgx": {}, "sqlite3": {}}
)

// Config stores configuration values for the application.
// These values can be read from a configuration file or environment variables.
type Config struct {
	// ServerAddress is the IP address where the server will listen.
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	// ServerPort is the port on which the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT"`
	// ServerReadTimeout is the read timeout for incoming requests.
	ServerReadTimeout time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	// ServerWriteTimeout is the write timeout for server responses.
	ServerWriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`

	// DatabaseDriver is the database/sql driver name: postgres, pgx or sqlite3.
	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	// DatabaseURL is the connection string passed to the driver.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// DatabaseMaxOpenConns is the maximum number of open connections in the pool.
	DatabaseMaxOpenConns int `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	// DatabaseMaxIdleConns is the maximum number of idle connections kept in the pool.
	DatabaseMaxIdleConns int `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	// DatabaseConnMaxLifetime is the maximum time a pooled connection may be reused.
	DatabaseConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
	// StoreBackend selects the message repository implementation: sql or gorm.
	StoreBackend string `mapstructure:"STORE_BACKEND"`

	// CodeAlphabet is the set of characters codes are drawn from.
	CodeAlphabet string `mapstructure:"CODE_ALPHABET"`
	// CodeLength is the length of generated codes.
	CodeLength int `mapstructure:"CODE_LENGTH"`
	// CodeMaxAttempts bounds the number of draws per generated code. Zero means unbounded.
	CodeMaxAttempts int `mapstructure:"CODE_MAX_ATTEMPTS"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is json or text.
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// Load loads configuration settings from a specified file or environment variables.
// If both a configuration file and environment variables are used, environment variables take precedence.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filePath)
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", "")
	v.SetDefault("SERVER_PORT", 5000)
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 1)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute)
	v.SetDefault("STORE_BACKEND", StoreBackendSQL)
	v.SetDefault("CODE_ALPHABET", rand.UpperAlphanumeric)
	v.SetDefault("CODE_LENGTH", 4)
	v.SetDefault("CODE_MAX_ATTEMPTS", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Validate checks that the configuration can be used to start the application.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL must be set", ErrInvalidConfig)
	}
	if _, ok := supportedDrivers[c.DatabaseDriver]; !ok {
		return fmt.Errorf("%w: unsupported DATABASE_DRIVER %q", ErrInvalidConfig, c.DatabaseDriver)
	}
	if c.StoreBackend != StoreBackendSQL && c.StoreBackend != StoreBackendGorm {
		return fmt.Errorf("%w: unsupported STORE_BACKEND %q", ErrInvalidConfig, c.StoreBackend)
	}
	if c.CodeLength < 1 || c.CodeLength > MaxCodeLength {
		return fmt.Errorf("%w: CODE_LENGTH must be between 1 and %d", ErrInvalidConfig, MaxCodeLength)
	}
	if c.CodeAlphabet == "" {
		return fmt.Errorf("%w: CODE_ALPHABET must not be empty", ErrInvalidConfig)
	}
	if c.CodeAlphabet != strings.ToUpper(c.CodeAlphabet) {
		return fmt.Errorf("%w: CODE_ALPHABET must not contain lower case characters", ErrInvalidConfig)
	}
	seen := make(map[rune]struct{}, len(c.CodeAlphabet))
	for _, r := range c.CodeAlphabet {
		if _, ok := seen[r]; ok {
			return fmt.Errorf("%w: CODE_ALPHABET contains %q more than once", ErrInvalidConfig, r)
		}
		seen[r] = struct{}{}
	}
	if c.CodeMaxAttempts < 0 {
		return fmt.Errorf("%w: CODE_MAX_ATTEMPTS must not be negative", ErrInvalidConfig)
	}
	if c.DatabaseMaxOpenConns < 1 {
		return fmt.Errorf("%w: DATABASE_MAX_OPEN_CONNS must be positive", ErrInvalidConfig)
	}

	return nil
}
