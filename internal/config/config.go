// Package config loads migrator configuration from file and environment.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Databases DatabasesConfig `mapstructure:"databases"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Consumer  ConsumerConfig  `mapstructure:"consumer"`
	Resync    ResyncConfig    `mapstructure:"resync"`
	Tasks     TasksConfig     `mapstructure:"tasks"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabasesConfig names the two legacy stores. Primary holds inquiries and
// change events, Archive holds postings, attachments and the aktor mapping.
type DatabasesConfig struct {
	PrimaryURL string `mapstructure:"primary_url"`
	ArchiveURL string `mapstructure:"archive_url"`
	// MigrationsDir points at the migration sources, split per database.
	MigrationsDir string `mapstructure:"migrations_dir"`
	RunMigrations bool   `mapstructure:"run_migrations"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// ConsumerConfig tunes the change feed consumer.
type ConsumerConfig struct {
	// BatchSize bounds how many ids one poll may return.
	BatchSize int `mapstructure:"batch_size"`
	// PollWait bounds how long a poll blocks when the stream is idle.
	PollWait time.Duration `mapstructure:"poll_wait"`
	// ChunkSize bounds ids per store round trip.
	ChunkSize int `mapstructure:"chunk_size"`
}

type ResyncConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// TasksConfig controls which tasks start automatically at boot.
type TasksConfig struct {
	AutoStartConsumer bool `mapstructure:"autostart_consumer"`
	AutoStartResync   bool `mapstructure:"autostart_resync"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 7075)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("databases.primary_url", "postgres://localhost:5432/henvendelse?sslmode=disable")
	v.SetDefault("databases.archive_url", "postgres://localhost:5432/henvendelsearkiv?sslmode=disable")
	v.SetDefault("databases.migrations_dir", "migrations")
	v.SetDefault("databases.run_migrations", true)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("consumer.batch_size", 1000)
	v.SetDefault("consumer.poll_wait", "10s")
	v.SetDefault("consumer.chunk_size", 1000)
	v.SetDefault("resync.interval", "60s")
	v.SetDefault("tasks.autostart_consumer", false)
	v.SetDefault("tasks.autostart_resync", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/inquiry-migrator")
	}

	// Environment variables override
	v.SetEnvPrefix("MIGRATOR")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Consumer.BatchSize <= 0 {
		return fmt.Errorf("consumer.batch_size must be positive, got %d", c.Consumer.BatchSize)
	}
	if c.Consumer.ChunkSize <= 0 || c.Consumer.ChunkSize > 1000 {
		return fmt.Errorf("consumer.chunk_size must be in (0,1000], got %d", c.Consumer.ChunkSize)
	}
	if c.Resync.Interval <= 0 {
		return fmt.Errorf("resync.interval must be positive, got %s", c.Resync.Interval)
	}
	return nil
}
