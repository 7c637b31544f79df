package database

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the connection section of a configuration file:
//
//	database:
//	  type: mysql
//	  connectionString: tcp(localhost:3306)/app
//	  username: app
//	  password: secret
//	  connectTimeout: 5s
type Config struct {
	Type             string        `yaml:"type"`
	Path             string        `yaml:"path,omitempty"`
	ConnectionString string        `yaml:"connectionString,omitempty"`
	DatabaseName     string        `yaml:"databaseName,omitempty"`
	Username         string        `yaml:"username,omitempty"`
	Password         string        `yaml:"password,omitempty"`
	Debug            bool          `yaml:"debug,omitempty"`
	ConnectTimeout   time.Duration `yaml:"connectTimeout,omitempty"`
}

type configFile struct {
	Database *Config `yaml:"database"`
}

// LoadConfig reads the database section of the YAML file.
func LoadConfig(file string) (*Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", file, err)
	}
	return cfg, nil
}

// ParseConfig parses the database section of a YAML document. Unknown keys
// are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var f configFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if f.Database == nil {
		return nil, errors.New("missing database section")
	}
	return f.Database, nil
}

// Marshal returns the config as a YAML document with a database section.
func (cfg *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(&configFile{Database: cfg})
}

// NewBuilderFromConfig returns a builder with the parameters of cfg. A
// non-empty path replaces the sqlite path of the config.
func NewBuilderFromConfig(cfg *Config, path string) *Builder {
	if path == "" {
		path = cfg.Path
	}

	return NewBuilder().
		SetType(cfg.Type).
		SetPath(path).
		SetConnectionString(cfg.ConnectionString).
		SetDatabaseName(cfg.DatabaseName).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetDebug(cfg.Debug).
		SetConnectTimeout(cfg.ConnectTimeout)
}
