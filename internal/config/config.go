// Package config resolves the run configuration: defaults, then an optional
// YAML file, then environment variables.
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultMongoPort    = 27017
	defaultPostgresPort = 5432
)

// Mongo holds the staging store connection settings.
type Mongo struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// URI renders a mongodb:// connection URI.
func (m Mongo) URI() string {
	u := &url.URL{
		Scheme: "mongodb",
		Host:   hostPort(m.Host, m.Port),
		Path:   "/",
	}
	if m.User != "" {
		if m.Password != "" {
			u.User = url.UserPassword(m.User, m.Password)
		} else {
			u.User = url.User(m.User)
		}
	}
	return u.String()
}

// Postgres holds the warehouse connection settings.
type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Schema   string `mapstructure:"schema"`
	SSLMode  string `mapstructure:"sslmode"`
	// ConnectRetries bounds connection attempts on transient network errors.
	ConnectRetries int `mapstructure:"connect_retries"`
}

// ConnString renders a postgres:// URL usable by both pgx and lib/pq.
func (p Postgres) ConnString() string {
	u := &url.URL{
		Scheme:   "postgres",
		Host:     hostPort(p.Host, p.Port),
		Path:     "/" + p.Database,
		RawQuery: "sslmode=" + p.SSLMode,
	}
	if p.Password != "" {
		u.User = url.UserPassword(p.User, p.Password)
	} else {
		u.User = url.User(p.User)
	}
	return u.String()
}

// Snapshot controls the Parquet side-channel and its optional S3 mirror.
type Snapshot struct {
	Enabled    bool   `mapstructure:"enabled"`
	S3Bucket   string `mapstructure:"s3_bucket"`
	S3Region   string `mapstructure:"s3_region"`
	S3Endpoint string `mapstructure:"s3_endpoint"`
	S3Prefix   string `mapstructure:"s3_prefix"`
}

// Log controls the slog handler.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text", "json" or "auto"
}

// Config is the fully resolved configuration handed to every stage.
type Config struct {
	Mongo    Mongo    `mapstructure:"mongo"`
	Postgres Postgres `mapstructure:"postgres"`
	DataDir  string   `mapstructure:"data_dir"`
	Snapshot Snapshot `mapstructure:"snapshot"`
	Log      Log      `mapstructure:"log"`
}

// ProcessedDir is where snapshot files and quality reports are written.
func (c *Config) ProcessedDir() string {
	return filepath.Join(c.DataDir, "processed")
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Mongo: Mongo{
			Host:     "localhost",
			Port:     defaultMongoPort,
			User:     "ecom_admin",
			Database: "ecom",
		},
		Postgres: Postgres{
			Host:     "localhost",
			Port:     defaultPostgresPort,
			User:     "ecom_user",
			Database: "ecom_dw",
			Schema:   "ecom",
			SSLMode:  "disable",

			ConnectRetries: 3,
		},
		DataDir:  "data",
		Snapshot: Snapshot{Enabled: true, S3Prefix: "snapshots"},
		Log:      Log{Level: "info", Format: "auto"},
	}
}

// envAliases keeps the variable names used by the older deployment scripts working
// next to the ECOM_-prefixed ones.
var envAliases = map[string][]string{
	"mongo.host":        {"ECOM_MONGO_HOST", "MONGO_HOST"},
	"mongo.port":        {"ECOM_MONGO_PORT", "MONGO_PORT"},
	"mongo.user":        {"ECOM_MONGO_USER", "MONGO_USER"},
	"mongo.password":    {"ECOM_MONGO_PASSWORD", "MONGO_PASS"},
	"mongo.database":    {"ECOM_MONGO_DATABASE", "MONGO_DB"},
	"postgres.host":     {"ECOM_POSTGRES_HOST", "PG_HOST"},
	"postgres.port":     {"ECOM_POSTGRES_PORT", "PG_PORT"},
	"postgres.user":     {"ECOM_POSTGRES_USER", "PG_USER"},
	"postgres.password": {"ECOM_POSTGRES_PASSWORD", "PG_PASS", "PGPASSWORD"},
	"postgres.database": {"ECOM_POSTGRES_DATABASE", "PG_DB"},
	"postgres.schema":   {"ECOM_POSTGRES_SCHEMA", "PG_SCHEMA"},
	"data_dir":          {"ECOM_DATA_DIR", "DATA_DIR"},
}

// Load resolves the configuration. path may be empty, in which case only
// defaults and environment are used.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("ECOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing required value.
func (c *Config) Validate() error {
	var missing []string
	if c.Mongo.Host == "" {
		missing = append(missing, "mongo.host")
	}
	if c.Mongo.Database == "" {
		missing = append(missing, "mongo.database")
	}
	if c.Postgres.Host == "" {
		missing = append(missing, "postgres.host")
	}
	if c.Postgres.User == "" {
		missing = append(missing, "postgres.user")
	}
	if c.Postgres.Database == "" {
		missing = append(missing, "postgres.database")
	}
	if c.Postgres.Schema == "" {
		missing = append(missing, "postgres.schema")
	}
	if c.Postgres.ConnectRetries < 1 {
		missing = append(missing, "postgres.connect_retries (>= 1)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("mongo.host", d.Mongo.Host)
	v.SetDefault("mongo.port", d.Mongo.Port)
	v.SetDefault("mongo.user", d.Mongo.User)
	v.SetDefault("mongo.password", d.Mongo.Password)
	v.SetDefault("mongo.database", d.Mongo.Database)
	v.SetDefault("postgres.host", d.Postgres.Host)
	v.SetDefault("postgres.port", d.Postgres.Port)
	v.SetDefault("postgres.user", d.Postgres.User)
	v.SetDefault("postgres.password", d.Postgres.Password)
	v.SetDefault("postgres.database", d.Postgres.Database)
	v.SetDefault("postgres.schema", d.Postgres.Schema)
	v.SetDefault("postgres.sslmode", d.Postgres.SSLMode)
	v.SetDefault("postgres.connect_retries", d.Postgres.ConnectRetries)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("snapshot.enabled", d.Snapshot.Enabled)
	v.SetDefault("snapshot.s3_bucket", d.Snapshot.S3Bucket)
	v.SetDefault("snapshot.s3_region", d.Snapshot.S3Region)
	v.SetDefault("snapshot.s3_endpoint", d.Snapshot.S3Endpoint)
	v.SetDefault("snapshot.s3_prefix", d.Snapshot.S3Prefix)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func hostPort(host string, port int) string {
	if port > 0 {
		return host + ":" + strconv.Itoa(port)
	}
	return host
}
