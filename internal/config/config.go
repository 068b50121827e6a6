// Package config loads the metamodel configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the metamodel configuration
type Config struct {
	Core             CoreConfig                 `mapstructure:"core"`
	ProgrammingModel ProgrammingModelConfig     `mapstructure:"programming_model"`
	ValueTypes       map[string]ValueTypeConfig `mapstructure:"value_types"`
	Persistence      PersistenceConfig          `mapstructure:"persistence"`
	Memento          MementoConfig              `mapstructure:"memento"`
	Logging          LoggingConfig              `mapstructure:"logging"`
	Server           ServerConfig               `mapstructure:"server"`
}

// CoreConfig represents runtime-wide settings
type CoreConfig struct {
	Runtime RuntimeConfig `mapstructure:"runtime"`
}

// RuntimeConfig represents runtime settings
type RuntimeConfig struct {
	// Locale is a BCP 47 tag used for titles and text entry, e.g. "en-US".
	Locale string `mapstructure:"locale"`
}

// ProgrammingModelConfig represents switches of the introspection pipeline
type ProgrammingModelConfig struct {
	// ExplicitActions removes un-annotated SetX methods from the action candidates.
	ExplicitActions bool `mapstructure:"explicit_actions"`
	// IgnoredBaseTypes lists embedded types (package.Type) whose promoted
	// methods are not actions.
	IgnoredBaseTypes []string `mapstructure:"ignored_base_types"`
}

// ValueTypeConfig represents formatting settings of one value type
type ValueTypeConfig struct {
	// Format is a named style, a named pattern or a raw pattern.
	Format string `mapstructure:"format"`
	// Patterns registers additional named patterns.
	Patterns map[string]string `mapstructure:"patterns"`
}

// PersistenceConfig represents the entity store
type PersistenceConfig struct {
	// Driver is "memory", "sqlite3", "pgx" or "postgres".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// MementoConfig represents where serialized mementos are kept
type MementoConfig struct {
	// Backend is "memory" or "redis".
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Prefix  string        `mapstructure:"prefix"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig represents a redis connection
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig represents logger settings
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ServerConfig represents the introspection API server
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// CORSOrigins lists origins allowed to read the API cross-origin.
	CORSOrigins []string `mapstructure:"cors_origins"`
	// Pprof mounts the runtime profiling endpoints.
	Pprof bool `mapstructure:"pprof"`
}

// Address returns host:port
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ValueFormat returns the configured format of a value type, keyed like
// "local_date", or "".
func (c *Config) ValueFormat(typeKey string) string {
	if c == nil {
		return ""
	}
	return c.ValueTypes[typeKey].Format
}

// ValuePatterns returns the configured named patterns of a value type.
func (c *Config) ValuePatterns(typeKey string) map[string]string {
	if c == nil {
		return nil
	}
	return c.ValueTypes[typeKey].Patterns
}

// IsIgnoredBaseType reports whether methods promoted from the named type are
// excluded from the action candidates.
func (c *Config) IsIgnoredBaseType(name string) bool {
	if c == nil {
		return false
	}
	for _, ignored := range c.ProgrammingModel.IgnoredBaseTypes {
		if ignored == name {
			return true
		}
	}
	return false
}

func newViper() *viper.Viper {
	v := viper.New()

	// Set defaults
	v.SetDefault("core.runtime.locale", "en-US")
	v.SetDefault("programming_model.explicit_actions", false)
	v.SetDefault("programming_model.ignored_base_types", []string{})
	v.SetDefault("persistence.driver", "memory")
	v.SetDefault("persistence.dsn", "")
	v.SetDefault("memento.backend", "memory")
	v.SetDefault("memento.ttl", 24*time.Hour)
	v.SetDefault("memento.prefix", "memento:")
	v.SetDefault("memento.redis.addr", "localhost:6379")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.pprof", false)

	// Enable environment variable support, e.g. METAMODEL_LOGGING_LEVEL
	v.SetEnvPrefix("METAMODEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load loads the configuration from path, or from metamodel.yaml in the
// working directory when path is empty. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("metamodel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	return decode(v)
}

// FromMap builds a configuration from defaults overlaid with values.
func FromMap(values map[string]any) (*Config, error) {
	v := newViper()
	if err := v.MergeConfigMap(values); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	return decode(v)
}

// Default returns the default configuration.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// defaults are valid
		panic(err)
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	switch cfg.Persistence.Driver {
	case "memory", "sqlite3", "pgx", "postgres":
	default:
		return fmt.Errorf("persistence.driver must be one of memory, sqlite3, pgx, postgres, got: %s", cfg.Persistence.Driver)
	}
	if cfg.Persistence.Driver != "memory" && cfg.Persistence.DSN == "" {
		return fmt.Errorf("persistence.dsn is required for driver %s", cfg.Persistence.Driver)
	}

	switch cfg.Memento.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("memento.backend must be memory or redis, got: %s", cfg.Memento.Backend)
	}
	if cfg.Memento.TTL < 0 {
		return fmt.Errorf("memento.ttl must not be negative, got: %s", cfg.Memento.TTL)
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	return nil
}
