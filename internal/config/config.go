// Package config loads and validates termdex configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names accepted by the pluggable components.
const (
	BackendLocal  = "local"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendPubSub = "pubsub"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Ingest    IngestConfig    `mapstructure:"ingest"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Sprites   SpritesConfig   `mapstructure:"sprites"`
	Visited   VisitedConfig   `mapstructure:"visited"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// IngestConfig governs the job range and the worker pool.
type IngestConfig struct {
	FirstID     int    `mapstructure:"first_id"`
	LastID      int    `mapstructure:"last_id"`
	URLTemplate string `mapstructure:"url_template"`
	Workers     int    `mapstructure:"workers"`
	// PollInterval and IdlePolls only matter for a queue that is never closed.
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	IdlePolls     int           `mapstructure:"idle_polls"`
	BaseDelay     time.Duration `mapstructure:"base_delay"`
	Jitter        time.Duration `mapstructure:"jitter"`
	StrictSprites bool          `mapstructure:"strict_sprites"`
	// RunTimeout bounds a whole run; zero means no bound.
	RunTimeout time.Duration `mapstructure:"run_timeout"`
}

// HTTPConfig configures the fetch client.
type HTTPConfig struct {
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTries  int           `mapstructure:"max_tries"`
}

// RateLimitConfig is the optional cap shared by all workers.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// DatabaseConfig controls access to Postgres.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// SpritesConfig selects where sprite art is read from.
type SpritesConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// VisitedConfig selects the visited-URL set.
type VisitedConfig struct {
	Backend       string        `mapstructure:"backend"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Namespace     string        `mapstructure:"namespace"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// PublisherConfig selects where run reports go.
type PublisherConfig struct {
	Backend   string `mapstructure:"backend"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ServerConfig controls the lookup HTTP server.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TERMDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The conventional DATABASE_URL is honored after TERMDEX_DATABASE_DSN.
	if err := v.BindEnv("database.dsn", "TERMDEX_DATABASE_DSN", "DATABASE_URL"); err != nil {
		return Config{}, fmt.Errorf("bind database env: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ingest.first_id", 1)
	v.SetDefault("ingest.last_id", 151)
	v.SetDefault("ingest.url_template", "https://pokeapi.co/api/v2/pokemon/%d")
	v.SetDefault("ingest.workers", 8)
	v.SetDefault("ingest.poll_interval", 100*time.Millisecond)
	v.SetDefault("ingest.idle_polls", 10)
	v.SetDefault("ingest.base_delay", time.Second)
	v.SetDefault("ingest.jitter", 2*time.Second)
	v.SetDefault("ingest.strict_sprites", true)
	v.SetDefault("ingest.run_timeout", 0)
	v.SetDefault("http.user_agent", "termdex")
	v.SetDefault("http.timeout", 15*time.Second)
	v.SetDefault("http.max_tries", 3)
	v.SetDefault("rate_limit.rps", 0)
	v.SetDefault("rate_limit.burst", 1)
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("sprites.backend", BackendLocal)
	v.SetDefault("sprites.dir", "sprites")
	v.SetDefault("visited.backend", BackendMemory)
	v.SetDefault("visited.namespace", "termdex")
	v.SetDefault("visited.ttl", 24*time.Hour)
	v.SetDefault("publisher.backend", BackendMemory)
	v.SetDefault("publisher.topic", "termdex-runs")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	var errs []error
	if c.Ingest.FirstID < 1 {
		// 0 is the sentinel row's ID and is never fetched.
		errs = append(errs, errors.New("ingest.first_id must be >= 1"))
	}
	if c.Ingest.LastID < c.Ingest.FirstID {
		errs = append(errs, errors.New("ingest.last_id must be >= ingest.first_id"))
	}
	if strings.Count(c.Ingest.URLTemplate, "%d") != 1 {
		errs = append(errs, errors.New("ingest.url_template must contain exactly one %d"))
	}
	if c.Ingest.Workers <= 0 {
		errs = append(errs, errors.New("ingest.workers must be > 0"))
	}
	if c.Ingest.PollInterval <= 0 {
		errs = append(errs, errors.New("ingest.poll_interval must be > 0"))
	}
	if c.Ingest.IdlePolls < 0 {
		errs = append(errs, errors.New("ingest.idle_polls must be >= 0"))
	}
	if c.Ingest.BaseDelay < 0 || c.Ingest.Jitter < 0 {
		errs = append(errs, errors.New("ingest.base_delay and ingest.jitter must be >= 0"))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http.timeout must be > 0"))
	}
	if c.HTTP.MaxTries <= 0 {
		errs = append(errs, errors.New("http.max_tries must be > 0"))
	}
	switch c.Sprites.Backend {
	case BackendLocal:
		if c.Sprites.Dir == "" {
			errs = append(errs, errors.New("sprites.dir is required for the local backend"))
		}
	case BackendGCS:
		if c.Sprites.Bucket == "" {
			errs = append(errs, errors.New("sprites.bucket is required for the gcs backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sprites.backend %q", c.Sprites.Backend))
	}
	switch c.Visited.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Visited.RedisAddr == "" {
			errs = append(errs, errors.New("visited.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown visited.backend %q", c.Visited.Backend))
	}
	switch c.Publisher.Backend {
	case BackendMemory:
	case BackendPubSub:
		if c.Publisher.ProjectID == "" {
			errs = append(errs, errors.New("publisher.project_id is required for the pubsub backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown publisher.backend %q", c.Publisher.Backend))
	}
	if c.Publisher.Topic == "" {
		errs = append(errs, errors.New("publisher.topic is required"))
	}
	if c.Server.Port <= 0 {
		errs = append(errs, errors.New("server.port must be > 0"))
	}
	return errors.Join(errs...)
}

// RequireDatabase reports a missing DSN. Commands that touch Postgres call it.
func (c Config) RequireDatabase() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required (set TERMDEX_DATABASE_DSN or DATABASE_URL)")
	}
	return nil
}
