package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Map       MapConfig       `yaml:"map"`
	Tracker   TrackerConfig   `yaml:"tracker"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StorageConfig struct {
	Driver     string         `yaml:"driver"`
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   DatabaseConfig `yaml:"postgres"`
	Migrations string         `yaml:"migrations"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// AuthConfig guards mutating endpoints when APIKey is set.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type MapConfig struct {
	Zoom int `yaml:"zoom"`
}

// TrackerConfig controls store behaviour.
type TrackerConfig struct {
	// RecomputeOnEdit refreshes pace and speed after an edit. Off by
	// default: edited workouts keep their creation-time derived metrics.
	RecomputeOnEdit bool `yaml:"recompute_on_edit"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Default returns the configuration used for any field a file leaves unset.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8080},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: "data/mapty.db",
			Migrations: "migrations",
		},
		Tailscale: TailscaleConfig{Hostname: "mapty", StateDir: "data/tsnet"},
		Map:       MapConfig{Zoom: 14},
	}
}

// Load reads config from a YAML file over Default, then applies environment
// variable overrides. Env vars use the prefix MAPTY_:
//
//	MAPTY_SERVER_HOST, MAPTY_SERVER_PORT,
//	MAPTY_STORAGE_DRIVER, MAPTY_SQLITE_PATH,
//	MAPTY_DB_HOST, MAPTY_DB_PORT, MAPTY_DB_NAME,
//	MAPTY_DB_USER, MAPTY_DB_PASSWORD, MAPTY_DB_SSLMODE,
//	MAPTY_AUTH_API_KEY, MAPTY_TAILSCALE_ENABLED,
//	MAPTY_MAP_ZOOM, MAPTY_RECOMPUTE_ON_EDIT
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MAPTY_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("MAPTY_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MAPTY_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("MAPTY_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("MAPTY_DB_HOST"); v != "" {
		cfg.Storage.Postgres.Host = v
	}
	if v := os.Getenv("MAPTY_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.Port = port
		}
	}
	if v := os.Getenv("MAPTY_DB_NAME"); v != "" {
		cfg.Storage.Postgres.Name = v
	}
	if v := os.Getenv("MAPTY_DB_USER"); v != "" {
		cfg.Storage.Postgres.User = v
	}
	if v := os.Getenv("MAPTY_DB_PASSWORD"); v != "" {
		cfg.Storage.Postgres.Password = v
	}
	if v := os.Getenv("MAPTY_DB_SSLMODE"); v != "" {
		cfg.Storage.Postgres.SSLMode = v
	}
	if v := os.Getenv("MAPTY_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("MAPTY_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("MAPTY_MAP_ZOOM"); v != "" {
		if zoom, err := strconv.Atoi(v); err == nil {
			cfg.Map.Zoom = zoom
		}
	}
	if v := os.Getenv("MAPTY_RECOMPUTE_ON_EDIT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tracker.RecomputeOnEdit = b
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 22 {
		return fmt.Errorf("map.zoom must be between 0 and 22, got %d", c.Map.Zoom)
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required")
		}
	case DriverPostgres:
		db := c.Storage.Postgres
		if db.Host == "" {
			return fmt.Errorf("storage.postgres.host is required")
		}
		if db.Port == 0 {
			return fmt.Errorf("storage.postgres.port is required")
		}
		if db.Name == "" {
			return fmt.Errorf("storage.postgres.name is required")
		}
		if db.User == "" {
			return fmt.Errorf("storage.postgres.user is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver %q is not one of sqlite, postgres, memory", c.Storage.Driver)
	}
	return nil
}
