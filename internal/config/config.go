// Package config handles loading and parsing application configuration.
// It supports three sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//  3. Neither: every value comes from the environment (or its default)
//
// Individual values in the YAML file can always be overridden by the
// environment variable named in the env:"..." tag.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers accepted in storage.driver.
const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config is the root configuration structure.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev" validate:"oneof=dev staging prod"`

	Storage Storage `yaml:"storage"`

	// HTTPServer is embedded so cfg.HTTPServer.Addr and cfg.Addr both work.
	HTTPServer `yaml:"http_server"`
}

// Storage selects and configures the toys backend.
type Storage struct {
	// Driver is one of "memory", "mongo", "sqlite".
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory" validate:"oneof=memory mongo sqlite"`

	// Path is the SQLite .db file (sqlite driver only).
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"storage/toys.db"`

	// MongoURI is the connection string of the document store.
	MongoURI   string `yaml:"mongo_uri" env:"MONGO_URI" env-default:"mongodb://mongo:27017/"`
	Database   string `yaml:"database" env:"MONGO_DATABASE" env-default:"toys_inventory"`
	Collection string `yaml:"collection" env:"MONGO_COLLECTION" env-default:"toys"`

	// Timeout bounds connecting to the backend at startup.
	Timeout time.Duration `yaml:"timeout" env:"STORAGE_TIMEOUT" env-default:"10s"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "0.0.0.0:8001".
	Addr            string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"0.0.0.0:8001" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Persistent reports whether the configured backend outlives the process.
func (s Storage) Persistent() bool {
	return s.Driver != DriverMemory
}

// Load reads the config from the YAML file at path, or from the
// environment alone when path is empty, and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		// Verify the file exists before trying to read it, for a clearer
		// message than the one the YAML reader would give.
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read config from env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
// Functions prefixed with "Must" exit on failure, so if this returns
// the config is valid.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}
