package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"

	defaultPath = "./config/config.yaml"
)

type HTTP struct {
	Addr         string        `yaml:"addr"` // :5000
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// GRPC serves the health service only; empty Addr disables it.
type GRPC struct {
	Addr       string        `yaml:"addr"`
	CheckEvery time.Duration `yaml:"checkEvery"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // chatroom
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Storage struct {
	Driver   string `yaml:"driver"`   // postgres|badger
	URI      string `yaml:"uri"`      // DSN or badger directory
	Database string `yaml:"database"` // database name or badger key namespace
	InMemory bool   `yaml:"inMemory"` // badger only

	MaxConns        int32         `yaml:"maxConns"`
	MinConns        int32         `yaml:"minConns"`
	MaxConnLifetime time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime time.Duration `yaml:"maxConnIdleTime"`
}

type Chat struct {
	Broadcast     string        `yaml:"broadcast"`
	JoinText      string        `yaml:"joinText"`
	LeaveText     string        `yaml:"leaveText"`
	TimeLayout    string        `yaml:"timeLayout"`
	StaleAfter    time.Duration `yaml:"staleAfter"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
	WSPingEvery   time.Duration `yaml:"wsPingEvery"`
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	GRPC    GRPC    `yaml:"grpc"`
	Logging Logging `yaml:"logging"`
	Storage Storage `yaml:"storage"`
	Chat    Chat    `yaml:"chat"`
}

// overrides are read from the environment after the file; unset vars keep
// the file value.
type overrides struct {
	StoreDriver   *string        `env:"STORE_DRIVER"`
	StoreURI      *string        `env:"STORE_URI"`
	StoreDB       *string        `env:"STORE_DB"`
	Port          *string        `env:"PORT"`
	GRPCAddr      *string        `env:"GRPC_ADDR"`
	AppEnv        *string        `env:"APP_ENV"`
	LogLevel      *string        `env:"LOG_LEVEL"`
	StaleAfter    *time.Duration `env:"STALE_AFTER"`
	SweepInterval *time.Duration `env:"SWEEP_INTERVAL"`
}

// LoadConfig reads CONFIG_PATH (default ./config/config.yaml), then .env and
// the process environment.
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultPath
	}
	_ = godotenv.Load()
	return Load(path)
}

// Load builds the config from the YAML file at path, which may be absent,
// and the current environment.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var o overrides
	if _, err := env.UnmarshalFromEnviron(&o); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	cfg.apply(o)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) apply(o overrides) {
	if o.StoreDriver != nil {
		c.Storage.Driver = *o.StoreDriver
	}
	if o.StoreURI != nil {
		c.Storage.URI = *o.StoreURI
	}
	if o.StoreDB != nil {
		c.Storage.Database = *o.StoreDB
	}
	if o.Port != nil && *o.Port != "" {
		c.HTTP.Addr = ":" + strings.TrimPrefix(*o.Port, ":")
	}
	if o.GRPCAddr != nil {
		c.GRPC.Addr = *o.GRPCAddr
	}
	if o.AppEnv != nil && *o.AppEnv != "" {
		c.Logging.Env = *o.AppEnv
	}
	if o.LogLevel != nil {
		c.Logging.Level = *o.LogLevel
	}
	if o.StaleAfter != nil {
		c.Chat.StaleAfter = *o.StaleAfter
	}
	if o.SweepInterval != nil {
		c.Chat.SweepInterval = *o.SweepInterval
	}
}

func (c *Config) validate() error {
	// defaults for anything left unset
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":5000"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.GRPC.CheckEvery == 0 {
		c.GRPC.CheckEvery = 5 * time.Second
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "chatroom"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverPostgres
	}
	if c.Chat.StaleAfter == 0 {
		c.Chat.StaleAfter = 10 * time.Second
	}
	if c.Chat.SweepInterval == 0 {
		c.Chat.SweepInterval = 1500 * time.Millisecond
	}
	if c.Chat.WSPingEvery == 0 {
		c.Chat.WSPingEvery = 5 * time.Second
	}

	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Storage.URI == "" {
			return errors.New("storage.uri is required")
		}
		if c.Storage.Database == "" {
			return errors.New("storage.database is required")
		}
	case DriverBadger:
		if c.Storage.URI == "" && !c.Storage.InMemory {
			return errors.New("storage.uri is required unless storage.inMemory is set")
		}
		if strings.Contains(c.Storage.Database, ":") {
			return errors.New("storage.database must not contain ':' for the badger driver")
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}

	if c.Chat.StaleAfter < 0 || c.Chat.SweepInterval < 0 {
		return errors.New("chat.staleAfter and chat.sweepInterval must be positive")
	}
	switch c.Logging.Backend {
	case "std", "zap":
	default:
		return fmt.Errorf("logging.backend %q is not supported", c.Logging.Backend)
	}
	return nil
}
