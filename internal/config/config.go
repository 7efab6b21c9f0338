package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultTable = "data_timbang"

var (
	ErrMissingDSN         = errors.New("connection string is required (set MYSQL_URL or DATABASE_URL)")
	ErrUnsupportedSource  = errors.New("source.type must be mysql or postgres")
	errEmptyTable         = errors.New("table name is required")
	supportedSourceTypes  = map[string]bool{"mysql": true, "postgres": true}
	postgresSchemeAliases = map[string]bool{"postgres": true, "postgresql": true}
)

type Config struct {
	Source          SourceConfig `yaml:"source"`
	Table           string       `yaml:"table"`
	IndexCandidates []string     `yaml:"indexCandidates"`
	CDC             CDCConfig    `yaml:"cdc"`
}

type SourceConfig struct {
	Type         string        `yaml:"type"`
	DSN          string        `yaml:"dsn"`
	Schema       string        `yaml:"schema"`
	QueryTimeout time.Duration `yaml:"queryTimeout"`
}

type CDCConfig struct {
	Type       string `yaml:"type"`
	ConnectURL string `yaml:"connectURL"`
}

// Enabled reports whether a Kafka Connect endpoint was configured.
func (c CDCConfig) Enabled() bool {
	return c.ConnectURL != ""
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Override adjusts a Config after the file and environment have been
// applied, e.g. from command-line flags.
type Override func(*Config)

// LoadConfig reads the optional YAML file at path, applies environment
// variables, then overrides, then defaults, and validates the result.
func LoadConfig(path string, overrides ...Override) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %w", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(&cfg)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("MYSQL_URL"); ok && v != "" {
		c.Source.DSN = v
	} else if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Source.DSN = v
	}
	if v, ok := lookup("SOURCE_TYPE"); ok && v != "" {
		c.Source.Type = v
	}
	if v, ok := lookup("TABLE_SCHEMA"); ok && v != "" {
		c.Source.Schema = v
	}
	if v, ok := lookup("TABLE_NAME"); ok && v != "" {
		c.Table = v
	}
	if v, ok := lookup("INDEX_CANDIDATES"); ok && v != "" {
		c.IndexCandidates = ParseCandidates(v)
	}
	if v, ok := lookup("QUERY_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse QUERY_TIMEOUT: %w", err)
		}
		c.Source.QueryTimeout = d
	}
	if v, ok := lookup("CDC_CONNECT_URL"); ok && v != "" {
		c.CDC.ConnectURL = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Table == "" {
		c.Table = DefaultTable
	}
	if c.Source.Type == "" {
		c.Source.Type = InferSourceType(c.Source.DSN)
	}
	if c.CDC.Enabled() && c.CDC.Type == "" {
		c.CDC.Type = "debezium"
	}
	c.IndexCandidates = cleanCandidates(c.IndexCandidates)
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.DSN) == "" {
		return ErrMissingDSN
	}
	if !supportedSourceTypes[c.Source.Type] {
		return fmt.Errorf("%w, got %q", ErrUnsupportedSource, c.Source.Type)
	}
	if strings.TrimSpace(c.Table) == "" {
		return errEmptyTable
	}
	if c.Source.QueryTimeout < 0 {
		return errors.New("source.queryTimeout must not be negative")
	}
	if c.CDC.Enabled() {
		if c.CDC.Type != "debezium" {
			return errors.New("cdc.type must be debezium")
		}
		u, err := url.Parse(c.CDC.ConnectURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("cdc.connectURL is not a valid URL: %q", c.CDC.ConnectURL)
		}
	}
	return nil
}

// ParseCandidates splits a comma separated column list, trimming whitespace
// and dropping empty entries.
func ParseCandidates(s string) []string {
	return cleanCandidates(strings.Split(s, ","))
}

func cleanCandidates(in []string) []string {
	var out []string
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// InferSourceType guesses the database flavour from a URL-style DSN.
// Anything that is not recognisably Postgres is treated as MySQL.
func InferSourceType(dsn string) string {
	scheme, _, ok := strings.Cut(dsn, "://")
	if !ok {
		if strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
			return "postgres"
		}
		return "mysql"
	}
	scheme, _, _ = strings.Cut(strings.ToLower(scheme), "+")
	if postgresSchemeAliases[scheme] {
		return "postgres"
	}
	return "mysql"
}
