package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds connection settings shared by the CLI commands. Values come
// from a YAML file passed via --config; command flags override file values.
type Config struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// loadConfig reads a YAML config file. An empty path yields defaults.
func loadConfig(path string) (Config, error) {
	cfg := Config{URI: "mongodb://localhost:27017"}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	return cfg, nil
}

// resolveConn merges the config file with explicit flag values.
// Flags that were set take precedence over the file.
func resolveConn(configPath, flagURI, flagDB string, uriChanged, dbChanged bool) (uri, db string, err error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return "", "", err
	}

	uri = cfg.URI
	if uriChanged {
		uri = flagURI
	}
	db = cfg.Database
	if dbChanged {
		db = flagDB
	}
	if db == "" {
		return "", "", fmt.Errorf("database name required (set --db or the config file's database key)")
	}
	return uri, db, nil
}
