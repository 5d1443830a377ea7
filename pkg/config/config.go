// Package config loads catalog client configuration from a YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/catalog-client/pkg/catalog"
	"github.com/Sternrassler/catalog-client/pkg/logging"
)

// Config is the full application configuration.
type Config struct {
	GraphQL GraphQL `yaml:"graphql"`
	List    List    `yaml:"list"`
	Redis   Redis   `yaml:"redis"`
	Server  Server  `yaml:"server"`
	Log     Log     `yaml:"log"`
}

// GraphQL configures the remote API.
type GraphQL struct {
	Endpoint    string        `yaml:"endpoint"`
	AdminSecret string        `yaml:"admin_secret"`
	UserAgent   string        `yaml:"user_agent"`
	Timeout     time.Duration `yaml:"timeout"`
}

// List configures the list controller.
type List struct {
	PageSize   int    `yaml:"page_size"`
	Collection string `yaml:"collection"`
}

// Redis configures cross-process change notifications.
type Redis struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

// Server configures the HTTP facade.
type Server struct {
	Addr string `yaml:"addr"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		GraphQL: GraphQL{
			Endpoint:  "http://localhost:8080/v1/graphql",
			UserAgent: "catalog-client/0.1.0",
			Timeout:   30 * time.Second,
		},
		List: List{
			PageSize:   10,
			Collection: catalog.BooksCollection,
		},
		Redis: Redis{
			Addr:    "localhost:6379",
			Channel: "catalog:changed:book_book",
		},
		Server: Server{
			Addr: ":8081",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads path (if not empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.GraphQL.Endpoint = getEnv("CATALOG_GRAPHQL_ENDPOINT", c.GraphQL.Endpoint)
	c.GraphQL.AdminSecret = getEnv("CATALOG_ADMIN_SECRET", c.GraphQL.AdminSecret)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	if v := os.Getenv("CATALOG_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CATALOG_PAGE_SIZE: %w", err)
		}
		c.List.PageSize = n
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	return nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.GraphQL.Endpoint == "" {
		errs = append(errs, errors.New("graphql.endpoint is required"))
	}
	if c.GraphQL.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("graphql.timeout must be > 0 (got %s)", c.GraphQL.Timeout))
	}
	if c.List.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("list.page_size must be > 0 (got %d)", c.List.PageSize))
	}
	switch c.List.Collection {
	case "":
		errs = append(errs, errors.New("list.collection is required"))
	case catalog.BooksCollection, catalog.AuthorsCollection:
	default:
		errs = append(errs, fmt.Errorf("list.collection must be %s or %s (got %q)",
			catalog.BooksCollection, catalog.AuthorsCollection, c.List.Collection))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// Logging converts the log section for logging.Setup.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
